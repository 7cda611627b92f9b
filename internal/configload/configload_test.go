package configload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "romcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, fileUsed, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, fileUsed)
	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Equal(t, "postgres", cfg.Connection.DBName)
	assert.Equal(t, 5, cfg.Pool.MaxConns)
	assert.Equal(t, 30, cfg.Query.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Query.CatalogTimeoutSeconds)
	assert.Equal(t, 100, cfg.Query.DefaultMaxRows)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.InDelta(t, 1.0, cfg.Retry.BaseDelaySeconds, 1e-9)
	assert.True(t, cfg.Security.StructuralCheck)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[connection]
host = "db.internal"
port = 5433

[query]
timeout_seconds = 45

[retry]
max_retries = 5
base_delay_seconds = 0.5

[[redaction]]
pattern = '[\w.+-]+@[\w-]+\.[\w.]+'
replacement = "[EMAIL]"
`)
	cfg, fileUsed, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, fileUsed)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, 45, cfg.Query.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.InDelta(t, 0.5, cfg.Retry.BaseDelaySeconds, 1e-9)
	require.Len(t, cfg.Redaction, 1)
	assert.Equal(t, "[EMAIL]", cfg.Redaction[0].Replacement)
	// Untouched keys keep their defaults.
	assert.Equal(t, "postgres", cfg.Connection.DBName)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeTempConfig(t, `
[query]
timeout_seconds = 45
`)
	t.Setenv("ROMCP_QUERY__TIMEOUT_SECONDS", "90")
	t.Setenv("ROMCP_CONNECTION__HOST", "env-host")

	cfg, _, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Query.TimeoutSeconds)
	assert.Equal(t, "env-host", cfg.Connection.Host)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ROMCP_CONNECTION__HOST", "env-host")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "localhost", "")
	flags.Int("query-timeout", 30, "")
	require.NoError(t, flags.Set("host", "flag-host"))
	require.NoError(t, flags.Set("query-timeout", "120"))

	cfg, _, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "flag-host", cfg.Connection.Host)
	assert.Equal(t, 120, cfg.Query.TimeoutSeconds)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	path := writeTempConfig(t, `
[connection]
host = "db.internal"
`)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("host", "localhost", "")

	cfg, _, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Connection.Host, "default flag value must not beat the config file")
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"), nil)
	require.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeTempConfig(t, `connection = not valid toml [`)
	_, _, err := Load(path, nil)
	require.Error(t, err)
}
