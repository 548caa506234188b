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

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, DevSecretKey, c.SecretKey)
	assert.Equal(t, 10*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 7*24*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, EnvDevelopment, c.Environment)
	assert.Equal(t, 5*time.Minute, c.RateLimitSweepInterval)
	assert.Equal(t, 1920, c.OptimizerMaxWidth)
	assert.Equal(t, "/dashboard", c.UIPrefix)
	assert.False(t, c.IsProduction())
	require.NoError(t, c.Validate())
}

func TestLoad_NoArgsUsesDefaults(t *testing.T) {
	c, err := load(nil)
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults ok", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key is required"},
		{name: "dev secret in production", mutate: func(c *Config) { c.Environment = "Production" }, wantErr: "development secret key"},
		{name: "production with real secret", mutate: func(c *Config) {
			c.Environment = EnvProduction
			c.SecretKey = "a-long-random-secret"
		}},
		{name: "missing bucket", mutate: func(c *Config) { c.S3Bucket = "" }, wantErr: "S3 bucket and public URL"},
		{name: "missing credentials", mutate: func(c *Config) { c.S3SecretKey = "" }, wantErr: "S3 credentials"},
		{name: "zero token ttl", mutate: func(c *Config) { c.AccessTokenValidityDuration = 0 }, wantErr: "token validity"},
		{name: "zero rate budget", mutate: func(c *Config) { c.RateLimitAuthMax = 0 }, wantErr: "rate limit budgets"},
		{name: "no workers", mutate: func(c *Config) { c.OptimizerWorkers = 0 }, wantErr: "optimizer workers"},
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

func TestLoad_InvalidConfigFails(t *testing.T) {
	_, err := load([]string{"-s", ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is required")
}
