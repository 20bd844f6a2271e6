package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stashsync/internal/adapters/config"
	"go.trai.ch/stashsync/internal/core/domain"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, domain.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Full(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
pollIntervalMs: 60000
gcIntervalMs: 30000
persistence: file://.stashsync/cache.json
log:
  json: true
  level: DEBUG
upstream:
  latencyMs: 25
  staleReadMs: 5000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.GCInterval)
	assert.Equal(t, "file://"+filepath.Join(dir, ".stashsync/cache.json"), cfg.Persistence)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25*time.Millisecond, cfg.Upstream.Latency)
	assert.Equal(t, 5*time.Second, cfg.Upstream.StaleReadWindow)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "{}\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.PollInterval, "zero keeps the declared interval")
	assert.Equal(t, domain.DefaultGCInterval, cfg.GCInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Persistence)
}

func TestLoad_KeepsNonFileDSN(t *testing.T) {
	for _, dsn := range []string{"memory://", "postgres://user@localhost/stash?sslmode=disable", "file:///var/lib/stash.json"} {
		path := writeConfig(t, t.TempDir(), "persistence: "+dsn+"\n")
		cfg, err := config.Load(path)
		require.NoError(t, err)
		assert.Equal(t, dsn, cfg.Persistence)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "zero poll interval", content: "pollIntervalMs: 0", field: "pollIntervalMs"},
		{name: "poll interval above ten minutes", content: "pollIntervalMs: 600001", field: "pollIntervalMs"},
		{name: "negative gc interval", content: "gcIntervalMs: -1", field: "gcIntervalMs"},
		{name: "negative latency", content: "upstream:\n  latencyMs: -5", field: "upstream.latencyMs"},
		{name: "negative stale window", content: "upstream:\n  staleReadMs: -5", field: "upstream.staleReadMs"},
		{name: "unknown log level", content: "log:\n  level: loud", field: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := config.Load(path)
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrInvalidConfig.Error())
		})
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "pollIntervalMs: [")
	_, err := config.Load(path)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}

func TestFileConfigLoader_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "pollIntervalMs: 120000\n")
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o750))

	loader := config.NewLoader(nil)
	cfg, err := loader.Load(deep)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, domain.ConfigFileName), cfg.Path)
	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
}

func TestFileConfigLoader_NearestWins(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "pollIntervalMs: 120000\n")
	nested := filepath.Join(root, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	writeConfig(t, nested, "pollIntervalMs: 30000\n")

	cfg, err := config.NewLoader(nil).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestFind_NotFound(t *testing.T) {
	_, found, err := config.Find(t.TempDir(), "definitely-not-here-7b1e.yaml")
	require.NoError(t, err)
	assert.False(t, found)
}
