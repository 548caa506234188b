package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/flagx"
)

var serverFlags = []string{
	"-a", "-grpc-addr", "-d", "-s", "-t", "-r", "-env", "-log",
	"-u", "-p", "-b", "-g", "-e", "-public-url", "-redis", "-ui-dir",
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string          HTTP bind address (e.g. ":8080")
//	-grpc-addr string  gRPC health bind address
//	-d string          PostgreSQL DSN
//	-s string          JWT HMAC secret key
//	-t int             access token validity, minutes
//	-r int             refresh token validity, minutes
//	-env string        environment ("development" or "production")
//	-log string        log backend ("slog", "slog-text", "zap")
//	-u / -p string     S3 access key / secret key
//	-b / -g string     S3 bucket / region
//	-e string          S3 base endpoint
//	-public-url string public base URL of the bucket
//	-redis string      Redis address for shared rate limiting
//	-ui-dir string     directory with the dashboard build
//
// Rate limit and optimizer tuning is only available through the JSON file.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP server")
	fs.StringVar(&config.GRPCAddr, "grpc-addr", config.GRPCAddr, "address and port to run the gRPC health server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.Environment, "env", config.Environment, "environment")
	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "log backend")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicURL, "public-url", config.S3PublicURL, "public base URL of the bucket")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for shared rate limiting")
	fs.StringVar(&config.UIDir, "ui-dir", config.UIDir, "dashboard static files")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
	return nil
}
