package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
environment: staging
relays:
  default_urls:
    - wss://relay.one
    - wss://relay.two
keystore:
  type: file
  directory: /var/lib/sage-connect/keys
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, []string{"wss://relay.one", "wss://relay.two"}, cfg.Relays.DefaultURLs)
	assert.Equal(t, "file", cfg.KeyStore.Type)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keystore:\n  type: memory\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ".sage-connect/keys", cfg.KeyStore.Directory)
}

func TestLoadFromFileMissingReturnsError(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := &Config{Environment: "production", Relays: &RelaysConfig{DefaultURLs: []string{"wss://a"}}}
	require.NoError(t, SaveToFile(cfg, path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "production", loaded.Environment)
	assert.Equal(t, []string{"wss://a"}, loaded.Relays.DefaultURLs)
}
