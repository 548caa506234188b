package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, "~/.eventphotos/state.db", c.StateDB)
	assert.Equal(t, 4, c.UploadConcurrency)
	assert.Equal(t, 60*time.Second, c.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "slog-text", c.LogBackend)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "https ok", mutate: func(c *Config) { c.ServerURL = "https://photos.example.com" }},
		{name: "no scheme", mutate: func(c *Config) { c.ServerURL = "127.0.0.1:8080" }, wantErr: "invalid server url"},
		{name: "ftp scheme", mutate: func(c *Config) { c.ServerURL = "ftp://host" }, wantErr: "invalid server url"},
		{name: "empty db", mutate: func(c *Config) { c.StateDB = "" }, wantErr: "state db"},
		{name: "zero concurrency", mutate: func(c *Config) { c.UploadConcurrency = 0 }, wantErr: "concurrency"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "timeout"},
		{name: "zero interval", mutate: func(c *Config) { c.OnlineCheckInterval = 0 }, wantErr: "interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	c, err := load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_url":         "http://json:1",
		"upload_concurrency": 2,
	})

	c, err := load([]string{"-c", path, "-a", "http://flag:2", "upload", "evt-1", "/tmp/photos"})
	require.NoError(t, err)

	assert.Equal(t, "http://flag:2", c.ServerURL)
	assert.Equal(t, 2, c.UploadConcurrency)
}

func TestLoad_InvalidFails(t *testing.T) {
	_, err := load([]string{"-n", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestParseFlags(t *testing.T) {
	c := &Config{}
	c.LoadDefaults()

	err := parseFlags(c, []string{"-a", "https://x", "-db", "/tmp/s.db", "-n", "9", "-timeout", "5", "-i", "7", "-log", "zap"})
	require.NoError(t, err)

	assert.Equal(t, Config{
		ServerURL:           "https://x",
		StateDB:             "/tmp/s.db",
		UploadConcurrency:   9,
		RequestTimeout:      5 * time.Second,
		OnlineCheckInterval: 7 * time.Second,
		LogBackend:          "zap",
	}, *c)

	require.Error(t, parseFlags(c, []string{"-n", "many"}))
}
