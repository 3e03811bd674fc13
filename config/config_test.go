package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestDefaultIsValid(t *testing.T) {
	isolate(t)
	require.NoError(t, Validate(Default()))
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 40, cfg.Feed.InitialSize)
	assert.Equal(t, 20, cfg.Feed.PageSize)
	assert.Equal(t, 0.1, cfg.Loader.Threshold)
	assert.Equal(t, "100px", cfg.Loader.RootMargin)
	assert.Equal(t, 3, cfg.Client.Retry.MaxRetries)
	assert.Equal(t, filepath.Join(dir, "ytclone", "data.json"), cfg.Storage.Path)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	yml := `
logging:
  level: debug
server:
  addr: ":9000"
  read_timeout: 5s
feed:
  page_size: 10
client:
  retry:
    max_retries: 1
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("YTCLONE_SERVER_ADDR", ":9100")
	t.Setenv("YTCLONE_LOADER_THRESHOLD", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, 10, cfg.Feed.PageSize)
	assert.Equal(t, 0.5, cfg.Loader.Threshold)
	assert.Equal(t, 1, cfg.Client.Retry.MaxRetries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		yml  string
	}{
		{"threshold above one", "loader:\n  threshold: 1.5\n"},
		{"bad margin", "loader:\n  root_margin: \"10em\"\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"page larger than limit", "feed:\n  page_size: 500\n"},
		{"backoff inverted", "client:\n  retry:\n    initial_backoff: 10s\n    max_backoff: 1s\n"},
		{"malformed yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yml), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Server.Addr = ":7000"
	cfg.Feed.FailureRate = 0.25
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", got.Server.Addr)
	assert.Equal(t, 0.25, got.Feed.FailureRate)
	assert.Equal(t, cfg.Auth.SessionTTL, got.Auth.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, got.Server.AllowedOrigins)
}

func TestLoaderOptions(t *testing.T) {
	opts := LoaderConfig{Threshold: 0.3, RootMargin: "20px"}.Options()
	assert.Len(t, opts, 2)
}

func TestProviderOptions(t *testing.T) {
	assert.Len(t, Default().Feed.ProviderOptions(), 4)

	// Zero limit and TTL keep the catalog defaults.
	opts := FeedConfig{Latency: time.Millisecond}.ProviderOptions()
	assert.Len(t, opts, 2)
}
