package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/eventphotos/internal/flagx"
	"github.com/dmitrijs2005/eventphotos/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "10m" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	Environment                  string         `json:"environment"`
	LogBackend                   string         `json:"log_backend"`

	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3PublicURL    string `json:"s3_public_url"`

	RedisAddr string `json:"redis_addr"`

	RateLimitAuthMax       int            `json:"rate_limit_auth_max"`
	RateLimitAuthWindow    timex.Duration `json:"rate_limit_auth_window"`
	RateLimitWriteMax      int            `json:"rate_limit_write_max"`
	RateLimitWriteWindow   timex.Duration `json:"rate_limit_write_window"`
	RateLimitSweepInterval timex.Duration `json:"rate_limit_sweep_interval"`

	OptimizerWorkers       int     `json:"optimizer_workers"`
	OptimizerQueueSize     int     `json:"optimizer_queue_size"`
	OptimizerRatePerSecond float64 `json:"optimizer_rate_per_second"`
	OptimizerMaxWidth      int     `json:"optimizer_max_width"`
	OptimizerQuality       int     `json:"optimizer_quality"`

	UIDir          string `json:"ui_dir"`
	UIPrefix       string `json:"ui_prefix"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                     c.HTTPAddr,
		GRPCAddr:                     c.GRPCAddr,
		DatabaseDSN:                  c.DatabaseDSN,
		SecretKey:                    c.SecretKey,
		AccessTokenValidityDuration:  timex.Duration{Duration: c.AccessTokenValidityDuration},
		RefreshTokenValidityDuration: timex.Duration{Duration: c.RefreshTokenValidityDuration},
		Environment:                  c.Environment,
		LogBackend:                   c.LogBackend,
		S3AccessKey:                  c.S3AccessKey,
		S3SecretKey:                  c.S3SecretKey,
		S3Bucket:                     c.S3Bucket,
		S3Region:                     c.S3Region,
		S3BaseEndpoint:               c.S3BaseEndpoint,
		S3PublicURL:                  c.S3PublicURL,
		RedisAddr:                    c.RedisAddr,
		RateLimitAuthMax:             c.RateLimitAuthMax,
		RateLimitAuthWindow:          timex.Duration{Duration: c.RateLimitAuthWindow},
		RateLimitWriteMax:            c.RateLimitWriteMax,
		RateLimitWriteWindow:         timex.Duration{Duration: c.RateLimitWriteWindow},
		RateLimitSweepInterval:       timex.Duration{Duration: c.RateLimitSweepInterval},
		OptimizerWorkers:             c.OptimizerWorkers,
		OptimizerQueueSize:           c.OptimizerQueueSize,
		OptimizerRatePerSecond:       c.OptimizerRatePerSecond,
		OptimizerMaxWidth:            c.OptimizerMaxWidth,
		OptimizerQuality:             c.OptimizerQuality,
		UIDir:                        c.UIDir,
		UIPrefix:                     c.UIPrefix,
		MaxUploadBytes:               c.MaxUploadBytes,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.GRPCAddr = j.GRPCAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.AccessTokenValidityDuration = j.AccessTokenValidityDuration.Duration
	c.RefreshTokenValidityDuration = j.RefreshTokenValidityDuration.Duration
	c.Environment = j.Environment
	c.LogBackend = j.LogBackend
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3PublicURL = j.S3PublicURL
	c.RedisAddr = j.RedisAddr
	c.RateLimitAuthMax = j.RateLimitAuthMax
	c.RateLimitAuthWindow = j.RateLimitAuthWindow.Duration
	c.RateLimitWriteMax = j.RateLimitWriteMax
	c.RateLimitWriteWindow = j.RateLimitWriteWindow.Duration
	c.RateLimitSweepInterval = j.RateLimitSweepInterval.Duration
	c.OptimizerWorkers = j.OptimizerWorkers
	c.OptimizerQueueSize = j.OptimizerQueueSize
	c.OptimizerRatePerSecond = j.OptimizerRatePerSecond
	c.OptimizerMaxWidth = j.OptimizerMaxWidth
	c.OptimizerQuality = j.OptimizerQuality
	c.UIDir = j.UIDir
	c.UIPrefix = j.UIPrefix
	c.MaxUploadBytes = j.MaxUploadBytes
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Keys absent from the file keep their current values. No flag means
// nothing to load.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.apply(config)
	return nil
}
