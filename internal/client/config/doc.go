// Package config loads runtime configuration for the eventphotos CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string      base URL of the API server
//	-db string     local upload state database
//	-n int         parallel uploads
//	-timeout int   request timeout (seconds)
//	-i int         online status check interval (seconds)
//	-log string    logging backend (slog, slog-text, zap)
//
// # JSON schema
//
//	{
//	  "server_url": "https://photos.example.com",
//	  "state_db": "/home/me/.eventphotos.db",
//	  "upload_concurrency": 8,
//	  "request_timeout": "90s",
//	  "online_check_interval": "5s",
//	  "log_backend": "slog-text"
//	}
package config
