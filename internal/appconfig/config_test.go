package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("AUTH_DATA_ROOT", t.TempDir())
	return filepath.Join(xdg, appName)
}

func TestLoad_CreatesDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Blind)
	assert.True(t, cfg.Journal)
	assert.Equal(t, BackendRedis, cfg.Directory.Backend)
	assert.Equal(t, "127.0.0.1:6379", cfg.Directory.Redis.Addr)
	assert.Equal(t, []string{"server_id", "server_ip", "server_name"}, cfg.UI.PrintFields)
	assert.Equal(t, " | ", cfg.UI.FieldSeparator)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	content := strings.Join([]string{
		"blind: false",
		"ui:",
		"  colors: false",
		"directory:",
		"  backend: file",
		"  file:",
		"    path: /tmp/hosts.yaml",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	t.Setenv("AUTH_BLINDE", "да")
	t.Setenv("AUTH_COLORS", "yes")
	t.Setenv("AUTH_SPF", " server_id  project_name ")
	t.Setenv("AUTH_REDIS_IP", "10.1.1.1")
	t.Setenv("AUTH_REDIS_PORT", "6380")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Blind)
	assert.True(t, cfg.UI.Colors)
	assert.Equal(t, []string{"server_id", "project_name"}, cfg.UI.PrintFields)
	assert.Equal(t, BackendFile, cfg.Directory.Backend)
	assert.Equal(t, "/tmp/hosts.yaml", cfg.Directory.File.Path)
	assert.Equal(t, "10.1.1.1:6380", cfg.Directory.Redis.Addr)
}

func TestLoad_DotEnvBelowProcessEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	dotenv := "AUTH_WRAPPER=/usr/local/bin/ssh-wrap\nAUTH_SESSION=/tmp/from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	t.Setenv("AUTH_SESSION", "/tmp/from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/ssh-wrap", cfg.Wrapper)
	assert.Equal(t, "/tmp/from-env", cfg.SessionFile)
}

func TestLoad_RejectsBadRedisDB(t *testing.T) {
	isolate(t)
	t.Setenv("AUTH_REDIS_DB", "zero")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_REDIS_DB")
}
