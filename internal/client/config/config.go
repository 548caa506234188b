package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

// Config holds runtime settings for the eventphotos CLI.
//
// Fields:
//   - ServerURL: base URL of the eventphotos API.
//   - StateDB: path of the local SQLite file that remembers finished uploads.
//   - UploadConcurrency: parallel presigned uploads during a bulk upload.
//   - RequestTimeout: per-request timeout for API and storage calls.
//   - OnlineCheckInterval: how often the REPL probes the server.
//   - LogBackend: logging backend (see logging.New).
type Config struct {
	ServerURL           string
	StateDB             string
	UploadConcurrency   int
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	LogBackend          string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.StateDB = "~/.eventphotos/state.db"
	c.UploadConcurrency = 4
	c.RequestTimeout = 60 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.LogBackend = logging.BackendSlogText
}

// Validate rejects settings the CLI cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.ServerURL)
	}
	if c.StateDB == "" {
		return errors.New("state db path is required")
	}
	if c.UploadConcurrency < 1 {
		return errors.New("upload concurrency must be at least 1")
	}
	if c.RequestTimeout <= 0 || c.OnlineCheckInterval <= 0 {
		return errors.New("request timeout and online check interval must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
