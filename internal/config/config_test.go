package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_DATABASE", "shelter")
	t.Setenv("DB_USER", "app")
	t.Setenv("AUTHZ_URL", "http://authz:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")
	t.Setenv("AUTH_DISABLED", "")
	t.Setenv("DB_CONNECTION_LIMIT", "")
	t.Setenv("SEED_FORMS", "")
	t.Setenv("DEFAULT_FORM_KEY", "")
	t.Setenv("EXPOSE_DB_ERRORS", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 5, cfg.DBConnectionLimit)
	assert.Equal(t, "client_intake", cfg.DefaultFormKey)
	assert.True(t, cfg.SeedForms)
	assert.False(t, cfg.AuthDisabled)
	assert.False(t, cfg.ExposeDBErrors)
	assert.False(t, cfg.IsSQLite())

	t.Setenv("EXPOSE_DB_ERRORS", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.ExposeDBErrors)
}

func TestLoadRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DATABASE", "")
	_, err := Load()
	assert.EqualError(t, err, "DB_DATABASE is required")

	setBaseEnv(t)
	t.Setenv("AUTHZ_URL", "")
	_, err = Load()
	assert.EqualError(t, err, "AUTHZ_URL is required")

	t.Setenv("AUTH_DISABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AuthDisabled)
}

func TestLoadSQLiteNeedsNoUser(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_TYPE", "SQLite-Pure")
	t.Setenv("DB_USER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsSQLite())
}

// unsetEnv removes key for the duration of the test. godotenv never
// overrides a variable that is present, even when empty.
func unsetEnv(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadEnvFile(t *testing.T) {
	setBaseEnv(t)
	unsetEnv(t, "DB_DATABASE")
	unsetEnv(t, "LOG_LEVEL")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DATABASE=fromfile\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("ENV_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fromfile", cfg.DBDatabase)
	assert.Equal(t, "debug", cfg.LogLevel)

	unsetEnv(t, "DB_DATABASE")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	assert.Equal(t, 9, getEnvAsInt("X_INT", 9))
	t.Setenv("X_BOOL", "false")
	assert.False(t, getEnvAsBool("X_BOOL", true))
}
