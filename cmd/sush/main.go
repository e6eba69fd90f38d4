package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/marcelocantos/sush/internal/cli"
	"github.com/marcelocantos/sush/internal/config"
	"github.com/marcelocantos/sush/internal/interp"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	configPath string
	debug      bool
	command    string
	hasCommand bool
}

func run(args []string) int {
	status := 0
	var opts options

	root := &cobra.Command{
		Use:           "sush [-c script [name [args...]] | file [args...]]",
		Short:         "A small POSIX-like shell",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasCommand = cmd.Flags().Changed("command")
			env, err := setup(opts)
			if err != nil {
				return err
			}
			defer env.Close()
			status, err = runShell(cmd.Context(), env, opts, args)
			return err
		},
	}
	root.Flags().SetInterspersed(false)
	root.Flags().StringVarP(&opts.command, "command", "c", "", "run `script` and exit")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug logs to stderr or the configured log file")

	root.AddCommand(&cobra.Command{
		Use:   "parse [file]",
		Short: "Print the syntax tree of a script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(opts)
			if err != nil {
				return err
			}
			src, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			status = cli.RunParse(env.NewParser(), src, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "builtins",
		Short: "List the builtin commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(opts)
			if err != nil {
				return err
			}
			status = cli.RunBuiltins(env.Builtins, cmd.OutOrStdout())
			return nil
		},
	})

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the job audit log",
	}
	auditCmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the hash chain of the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			status = cli.RunAuditVerify(cmd.OutOrStdout(), cfg.Audit.Path)
			return nil
		},
	})
	var tailN int
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			status = cli.RunAuditTail(cmd.OutOrStdout(), cfg.Audit.Path, tailN)
			return nil
		},
	}
	tailCmd.Flags().IntVarP(&tailN, "lines", "n", 20, "number of entries")
	auditCmd.AddCommand(tailCmd)
	root.AddCommand(auditCmd)

	root.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Serve the parse and run tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(opts)
			if err != nil {
				return err
			}
			defer env.Close()
			return cli.ServeMCP(env, version)
		},
	})

	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "sush: %v\n", err)
		if status == 0 {
			status = 2
		}
	}
	return status
}

func loadConfig(opts options) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFrom(opts.configPath)
	}
	return config.Load()
}

func setup(opts options) (*cli.Env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Log.Logger(opts.debug)
	if err != nil {
		return nil, err
	}
	log.Debug("config loaded", zap.String("path", opts.configPath))
	return cli.NewEnv(cfg, log)
}

func runShell(ctx context.Context, env *cli.Env, opts options, args []string) (int, error) {
	stdio := interp.OSStdio()

	if opts.hasCommand {
		name := "sush"
		if len(args) > 0 {
			name, args = args[0], args[1:]
		}
		sess, err := env.NewSession(name, args, stdio)
		if err != nil {
			return 0, err
		}
		defer sess.Runner.Core.NotifyInterrupt(ctx)()
		return sess.RunString(ctx, opts.command), nil
	}

	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return 127, err
		}
		defer f.Close()
		sess, err := env.NewSession(args[0], args[1:], stdio)
		if err != nil {
			return 0, err
		}
		defer sess.Runner.Core.NotifyInterrupt(ctx)()
		return sess.Run(ctx, cli.NewReaderInput(f)), nil
	}

	sess, err := env.NewSession("sush", nil, stdio)
	if err != nil {
		return 0, err
	}
	defer sess.Runner.Core.NotifyInterrupt(ctx)()
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return sess.Run(ctx, cli.NewReaderInput(os.Stdin)), nil
	}
	in, closer, err := cli.NewReadlineInput(historyPath())
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	status := sess.Run(ctx, in)
	env.Log.Debug("interactive shell done", zap.Int("status", status))
	return status, nil
}

func readSource(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(args[0])
	return string(data), err
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sush_history")
}
