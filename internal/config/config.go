package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/marcelocantos/sush/internal/shell"
)

// Config holds the global sush configuration.
type Config struct {
	Prompt PromptConfig `yaml:"prompt"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`
	Exec   ExecConfig   `yaml:"exec"`
}

// PromptConfig controls the interactive prompt.
type PromptConfig struct {
	PS1   string `yaml:"ps1" validate:"required"`
	PS2   string `yaml:"ps2" validate:"required"`
	Color string `yaml:"color" validate:"omitempty,oneof=none red green yellow blue magenta cyan"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// LogConfig controls the debug log. An empty path disables it.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Path  string `yaml:"path"`
}

// ExecConfig tunes the execution runtime.
type ExecConfig struct {
	SubstitutionPollLines int    `yaml:"substitution_poll_lines" validate:"gte=1"`
	InterruptSettle       string `yaml:"interrupt_settle" validate:"required"`
	SigintSettle          string `yaml:"sigint_settle" validate:"required"`
	MaxNesting            int    `yaml:"max_nesting" validate:"gte=1,lte=4096"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prompt: PromptConfig{
			PS1:   "sush$ ",
			PS2:   "> ",
			Color: "green",
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    filepath.Join(home, ".local", "share", "sush", "audit.jsonl"),
		},
		Log: LogConfig{
			Level: "info",
		},
		Exec: ExecConfig{
			SubstitutionPollLines: 100,
			InterruptSettle:       "1ms",
			SigintSettle:          "200ms",
			MaxNesting:            64,
		},
	}
}

// Load reads the config from the standard location (~/.config/sush/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Audit.Path = expandHome(cfg.Audit.Path)
	cfg.Log.Path = expandHome(cfg.Log.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "" && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Exec.Timing(); err != nil {
		return err
	}
	return nil
}

// Timing converts the exec section into shell timing knobs.
func (e ExecConfig) Timing() (shell.Timing, error) {
	settle, err := time.ParseDuration(e.InterruptSettle)
	if err != nil {
		return shell.Timing{}, fmt.Errorf("interrupt_settle: %w", err)
	}
	sigint, err := time.ParseDuration(e.SigintSettle)
	if err != nil {
		return shell.Timing{}, fmt.Errorf("sigint_settle: %w", err)
	}
	return shell.Timing{
		PollLines:       e.SubstitutionPollLines,
		InterruptSettle: settle,
		SigintSettle:    sigint,
	}, nil
}

// Logger builds the debug logger. With no path and debug off it is a no-op.
func (l LogConfig) Logger(debug bool) (*zap.Logger, error) {
	if l.Path == "" && !debug {
		return zap.NewNop(), nil
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	} else if err := level.Set(l.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	if l.Path != "" {
		if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		zc.OutputPaths = []string{l.Path}
	}
	zc.ErrorOutputPaths = zc.OutputPaths
	return zc.Build()
}

// ConfigPath returns the standard config file path, or "" when the home
// directory is unknown.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "sush", "config.yaml")
}
