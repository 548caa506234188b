package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/eventphotos/internal/flagx"
	"github.com/dmitrijs2005/eventphotos/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// accept strings like "30s" as well as integer nanoseconds.
type JsonConfig struct {
	ServerURL         string         `json:"server_url"`
	StateDB           string         `json:"state_db"`
	UploadConcurrency int            `json:"upload_concurrency"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	OnlineCheck       timex.Duration `json:"online_check_interval"`
	LogBackend        string         `json:"log_backend"`
}

// parseJson overlays cfg with values from the JSON file named by -c/-config.
// Keys absent from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	jc := JsonConfig{
		ServerURL:         cfg.ServerURL,
		StateDB:           cfg.StateDB,
		UploadConcurrency: cfg.UploadConcurrency,
		RequestTimeout:    timex.Duration{Duration: cfg.RequestTimeout},
		OnlineCheck:       timex.Duration{Duration: cfg.OnlineCheckInterval},
		LogBackend:        cfg.LogBackend,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.StateDB = jc.StateDB
	cfg.UploadConcurrency = jc.UploadConcurrency
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.OnlineCheckInterval = jc.OnlineCheck.Duration
	cfg.LogBackend = jc.LogBackend
	return nil
}
