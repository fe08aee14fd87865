package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:4144", cfg.Server.ListenAddress)
	assert.Equal(t, 120, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, []string{"plain", "recurse_center"}, cfg.Server.AllowedLoginMethods)
	assert.Equal(t, 4*1024*1024, cfg.Server.MaxWatcherQueueBytes)
}

func TestDecodeIntoAppliesOverridesOnTopOfDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
[server]
listen_address = "0.0.0.0:4144"
read_timeout = 60

[oauth.recurse_center]
client_id = "abc123"
auth_url = "https://recurse.example/oauth/authorize"

[client]
server_address = "streamer.example:4144"
use_tls = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg := Default()
	require.NoError(t, decodeInto(path, &cfg))

	assert.Equal(t, "0.0.0.0:4144", cfg.Server.ListenAddress)
	assert.Equal(t, 60, cfg.Server.ReadTimeoutSeconds)
	// Untouched default fields survive the overlay.
	assert.Equal(t, []string{"plain", "recurse_center"}, cfg.Server.AllowedLoginMethods)

	require.Contains(t, cfg.OAuth, "recurse_center")
	assert.Equal(t, "abc123", cfg.OAuth["recurse_center"].ClientID)

	assert.Equal(t, "streamer.example:4144", cfg.Client.ServerAddress)
	assert.True(t, cfg.Client.UseTLS)
}

func TestDecodeIntoMissingFileIsNotAnError(t *testing.T) {
	cfg := Default()
	err := decodeInto(filepath.Join(t.TempDir(), "nope.toml"), &cfg)
	assert.NoError(t, err)
}
