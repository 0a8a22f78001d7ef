package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relalg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, "catalog: cat.yaml\ncoalesce: false\nformat: json\nlog_level: debug\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "cat.yaml", cfg.Catalog)
	assert.False(t, cfg.Coalesce)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "catalog: from-file.yaml\n")
	t.Setenv("RELALG_CATALOG", "from-env.db")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Catalog)
}

func TestChangedFlagOverridesEnv(t *testing.T) {
	t.Setenv("RELALG_FORMAT", "json")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "text", "")
	fs.String("log-level", "info", "")
	require.NoError(t, fs.Parse([]string{"--log-level", "warn"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format, "unchanged flag must not override env")
	assert.Equal(t, "warn", cfg.LogLevel)
}
