package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/Apps/docsync", cfg.DropboxAppFolder)
	assert.Equal(t, "https://api.dropboxapi.com", cfg.DropboxAPIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.DropboxAppKey, "no app key by default")
}

func TestParseEnv_Overrides(t *testing.T) {
	t.Setenv("DOCSYNC_ADDR", ":9090")
	t.Setenv("DROPBOX_APP_KEY", "key123")
	t.Setenv("DOCSYNC_REQUEST_TIMEOUT", "45s")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "key123", cfg.DropboxAppKey)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "https://content.dropboxapi.com", cfg.DropboxContentURL, "untouched fields keep defaults")
}

func TestParseEnv_InvalidTimeoutIgnored(t *testing.T) {
	t.Setenv("DOCSYNC_REQUEST_TIMEOUT", "soon")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestParseFlags_Overrides(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"docsync", "-a", ":7070", "-d", "memory", "-t", "10"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFlags(cfg)

	require.Equal(t, ":7070", cfg.Addr)
	require.Equal(t, "memory", cfg.DatabaseDSN)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
}
