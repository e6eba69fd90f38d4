package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/marcelocantos/sush/internal/audit"
	"github.com/marcelocantos/sush/internal/builtin"
	"github.com/marcelocantos/sush/internal/config"
	"github.com/marcelocantos/sush/internal/interp"
	"github.com/marcelocantos/sush/internal/shell"
	"github.com/marcelocantos/sush/internal/syntax"
)

// Env is what every session of one sush process shares.
type Env struct {
	Config   *config.Config
	Log      *zap.Logger
	Builtins *builtin.Registry
	Audit    *audit.Logger
}

// NewEnv wires up the builtin registry and, when enabled, the audit log.
func NewEnv(cfg *config.Config, log *zap.Logger) (*Env, error) {
	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg)

	env := &Env{Config: cfg, Log: log, Builtins: reg}
	if cfg.Audit.Enabled {
		logger, err := audit.NewLogger(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("audit: %w", err)
		}
		env.Audit = logger
	}
	return env, nil
}

// NewSession creates a shell named name with positional parameters args.
func (e *Env) NewSession(name string, args []string, stdio interp.Stdio) (*Session, error) {
	timing, err := e.Config.Exec.Timing()
	if err != nil {
		return nil, err
	}
	core := shell.New(name, args, os.Environ())
	core.Log = e.Log
	core.Timing = timing

	ps1, ps2 := Prompts(e.Config.Prompt)
	return &Session{
		Runner: interp.New(core, e.Builtins),
		Parser: e.NewParser(),
		Audit:  e.Audit,
		Log:    e.Log,
		Stdio:  stdio,
		PS1:    ps1,
		PS2:    ps2,
	}, nil
}

// NewParser returns a parser with the configured nesting limit.
func (e *Env) NewParser() *syntax.Parser {
	return syntax.NewParser(e.Config.Exec.MaxNesting)
}

var promptColors = map[string]color.Attribute{
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
}

// Prompts returns PS1 and PS2 in the configured colour.
func Prompts(p config.PromptConfig) (string, string) {
	attr, ok := promptColors[p.Color]
	if !ok {
		return p.PS1, p.PS2
	}
	c := color.New(attr)
	return c.Sprint(p.PS1), c.Sprint(p.PS2)
}

// Close flushes the debug log and closes the audit log.
func (e *Env) Close() {
	_ = e.Log.Sync()
	if e.Audit != nil {
		_ = e.Audit.Close()
	}
}
