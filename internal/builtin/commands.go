package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

type Cd struct{}

var _ Builtin = (*Cd)(nil)

func (*Cd) Name() string        { return "cd" }
func (*Cd) Description() string { return "change the working directory" }

func (*Cd) Run(_ context.Context, st State, args []string, _ io.Reader, stdout, _ io.Writer) error {
	var target string
	printDir := false
	switch {
	case len(args) > 1:
		return errors.New("too many arguments")
	case len(args) == 0, args[0] == "~":
		target = st.GetParam("HOME")
		if target == "" {
			return errors.New("HOME not set")
		}
	case args[0] == "-":
		target = st.GetParam("OLDPWD")
		if target == "" {
			return errors.New("OLDPWD not set")
		}
		printDir = true
	case strings.HasPrefix(args[0], "~/"):
		target = st.GetParam("HOME") + args[0][1:]
	default:
		target = args[0]
	}
	if err := st.Chdir(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: No such file or directory", target)
		}
		return fmt.Errorf("%s: %w", target, err)
	}
	if printDir {
		fmt.Fprintln(stdout, st.Dir())
	}
	return nil
}

type Echo struct{}

var _ Builtin = (*Echo)(nil)

func (*Echo) Name() string        { return "echo" }
func (*Echo) Description() string { return "write arguments to standard output" }

func (*Echo) Run(_ context.Context, _ State, args []string, _ io.Reader, stdout, _ io.Writer) error {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}
	out := strings.Join(args, " ")
	if newline {
		out += "\n"
	}
	_, err := io.WriteString(stdout, out)
	return err
}

type Exit struct{}

var _ Builtin = (*Exit)(nil)

func (*Exit) Name() string        { return "exit" }
func (*Exit) Description() string { return "exit the shell or subshell" }

func (*Exit) Run(_ context.Context, st State, args []string, _ io.Reader, _, stderr io.Writer) error {
	code := st.ExitStatus()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(stderr, "sush: exit: %s: numeric argument required\n", args[0])
			n = 2
		}
		code = n & 0xff
	}
	st.Exit(code)
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

type Export struct{}

var _ Builtin = (*Export)(nil)

func (*Export) Name() string        { return "export" }
func (*Export) Description() string { return "mark variables for the environment of commands" }

func (*Export) Run(_ context.Context, st State, args []string, _ io.Reader, stdout, _ io.Writer) error {
	if len(args) == 0 {
		for _, kv := range st.Environ() {
			k, v, _ := strings.Cut(kv, "=")
			fmt.Fprintf(stdout, "export %s=%s\n", k, strconv.Quote(v))
		}
		return nil
	}
	for _, arg := range args {
		name, value, assign := strings.Cut(arg, "=")
		if !validName(name) {
			return fmt.Errorf("`%s': not a valid identifier", arg)
		}
		if assign {
			st.SetVar(name, value)
		}
		st.Export(name)
	}
	return nil
}

type Unset struct{}

var _ Builtin = (*Unset)(nil)

func (*Unset) Name() string        { return "unset" }
func (*Unset) Description() string { return "remove variables" }

func (*Unset) Run(_ context.Context, st State, args []string, _ io.Reader, _, _ io.Writer) error {
	for _, name := range args {
		if !validName(name) {
			return fmt.Errorf("`%s': not a valid identifier", name)
		}
		st.Unset(name)
	}
	return nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}

type True struct{}

var _ Builtin = (*True)(nil)

func (*True) Name() string        { return "true" }
func (*True) Description() string { return "do nothing, successfully" }

func (*True) Run(context.Context, State, []string, io.Reader, io.Writer, io.Writer) error {
	return nil
}

type False struct{}

var _ Builtin = (*False)(nil)

func (*False) Name() string        { return "false" }
func (*False) Description() string { return "do nothing, unsuccessfully" }

func (*False) Run(context.Context, State, []string, io.Reader, io.Writer, io.Writer) error {
	return &ExitError{Code: 1}
}

type Pwd struct{}

var _ Builtin = (*Pwd)(nil)

func (*Pwd) Name() string        { return "pwd" }
func (*Pwd) Description() string { return "print the working directory" }

func (*Pwd) Run(_ context.Context, st State, _ []string, _ io.Reader, stdout, _ io.Writer) error {
	_, err := fmt.Fprintln(stdout, st.Dir())
	return err
}

type Type struct{}

var _ Builtin = (*Type)(nil)

func (*Type) Name() string        { return "type" }
func (*Type) Description() string { return "describe how each name would be run" }

func (*Type) Run(ctx context.Context, st State, args []string, _ io.Reader, stdout, stderr io.Writer) error {
	reg, _ := RegistryFromContext(ctx)
	status := 0
	for _, name := range args {
		if reg != nil {
			if _, err := reg.Lookup(name); err == nil {
				fmt.Fprintf(stdout, "%s is a shell builtin\n", name)
				continue
			}
		}
		if path, err := st.LookPath(name); err == nil {
			fmt.Fprintf(stdout, "%s is %s\n", name, path)
			continue
		}
		fmt.Fprintf(stderr, "sush: type: %s: not found\n", name)
		status = 1
	}
	if status != 0 {
		return &ExitError{Code: status}
	}
	return nil
}

type Wait struct{}

var _ Builtin = (*Wait)(nil)

func (*Wait) Name() string        { return "wait" }
func (*Wait) Description() string { return "wait for background jobs" }

func (*Wait) Run(_ context.Context, st State, _ []string, _ io.Reader, _, _ io.Writer) error {
	st.WaitBackground()
	return nil
}
