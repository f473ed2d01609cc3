package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CARDS_DATA_DIR", "CARDS_SHARE_BASE_URL", "CARDS_THEME", "CARDS_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.DataDir, cfg.DataDir)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.FetchTimeout, "no fetch timeout unless configured")
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", FileName)

	cfg := Default()
	cfg.DataDir = "/tmp/cards-data"
	cfg.ShareBaseURL = "https://cards.example.com/"
	cfg.Theme = "neon"
	cfg.FetchTimeout = 15 * time.Second
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cards-data", loaded.DataDir)
	assert.Equal(t, "https://cards.example.com", loaded.ShareBaseURL, "trailing slash trimmed")
	assert.Equal(t, "neon", loaded.Theme)
	assert.Equal(t, 15*time.Second, loaded.FetchTimeout)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("theme: mono\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, Default().ShareBaseURL, cfg.ShareBaseURL)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("theme: [unclosed\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARDS_DATA_DIR", "/env/data")
	t.Setenv("CARDS_SHARE_BASE_URL", "https://env.example")
	t.Setenv("CARDS_THEME", "mono")
	t.Setenv("CARDS_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("theme: neon\ndata_dir: /file/data\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, "https://env.example", cfg.ShareBaseURL)
	assert.Equal(t, "mono", cfg.Theme)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join("/env/data", "cards.log"), cfg.LogPath())
}
