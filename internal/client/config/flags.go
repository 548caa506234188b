package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/flagx"
)

var clientFlags = []string{"-a", "-db", "-n", "-timeout", "-i", "-log"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string      base URL of the API server
//	-db string     path of the local upload state database
//	-n int         parallel uploads
//	-timeout int   request timeout in seconds
//	-i int         online status check interval in seconds
//	-log string    logging backend
//
// Only these flags are parsed; everything else on the command line is left
// to the command being run.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API server")
	fs.StringVar(&cfg.StateDB, "db", cfg.StateDB, "local upload state database")
	fs.IntVar(&cfg.UploadConcurrency, "n", cfg.UploadConcurrency, "parallel uploads")
	fs.StringVar(&cfg.LogBackend, "log", cfg.LogBackend, "logging backend: slog, slog-text or zap")
	timeout := fs.Int("timeout", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online status check interval (in seconds)")

	if err := fs.Parse(flagx.FilterArgs(args, clientFlags)); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
