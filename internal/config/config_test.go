package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
prompt:
  ps1: "% "
audit:
  enabled: true
  path: ~/audit.jsonl
exec:
  substitution_poll_lines: 10
  sigint_settle: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "% ", cfg.Prompt.PS1)
	assert.Equal(t, "> ", cfg.Prompt.PS2)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "audit.jsonl"), cfg.Audit.Path)

	timing, err := cfg.Exec.Timing()
	require.NoError(t, err)
	assert.Equal(t, 10, timing.PollLines)
	assert.Equal(t, time.Millisecond, timing.InterruptSettle)
	assert.Equal(t, 50*time.Millisecond, timing.SigintSettle)
}

func TestValidateRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exec.SubstitutionPollLines = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Prompt.Color = "plaid"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Exec.InterruptSettle = "soon"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exec: [1"), 0o644))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestLoggerNopByDefault(t *testing.T) {
	l, err := DefaultConfig().Log.Logger(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	path := filepath.Join(t.TempDir(), "logs", "sush.log")
	l, err = LogConfig{Level: "debug", Path: path}.Logger(false)
	require.NoError(t, err)
	l.Debug("hello")
	_ = l.Sync()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestLoadUsesConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".config", "sush", "config.yaml"), ConfigPath())

	require.NoError(t, os.MkdirAll(filepath.Dir(ConfigPath()), 0o755))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("prompt:\n  ps1: \"% \"\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "% ", cfg.Prompt.PS1)
}
