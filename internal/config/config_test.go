// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
storage:
  workdir: "/var/lib/coven/sessions"
  driver: "sqlite3"
  busy_timeout: "250ms"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/coven/sessions", cfg.Storage.Workdir)
	assert.Equal(t, "sqlite3", cfg.Storage.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.BusyTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[storage]
workdir = "/srv/sessions"
busy_timeout = "2s"

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/sessions", cfg.Storage.Workdir)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_SESSION_DIR", "/tmp/from-env")

	path := writeConfig(t, "config.yaml", `
storage:
  workdir: "${TEST_SESSION_DIR}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-env", cfg.Storage.Workdir)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "metrics:\n  enabled: false\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkdir(), cfg.Storage.Workdir)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, time.Second, cfg.Storage.BusyTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad driver", "c.yaml", "storage:\n  driver: postgres\n"},
		{"bad duration", "c.yaml", "storage:\n  busy_timeout: soon\n"},
		{"bad level", "c.yaml", "logging:\n  level: loud\n"},
		{"bad format", "c.yaml", "logging:\n  format: xml\n"},
		{"bad yaml", "c.yaml", "storage: [\n"},
		{"bad toml", "c.toml", "[storage\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
