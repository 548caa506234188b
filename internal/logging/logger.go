// Package logging defines the structured-logging interface used across the
// project and its adapters for log/slog and zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.uber.org/zap"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key-value pairs, e.g.:
//
//	log.Info(ctx, "photo optimized", "photo_id", id, "bytes", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog     = "slog"
	BackendSlogText = "slog-text"
	BackendZap      = "zap"
)

// New builds a Logger for the named backend writing to w. Development mode
// lowers the level to debug. w is ignored by the zap backend, which always
// writes to stderr.
func New(backend string, w io.Writer, development bool) (Logger, error) {
	level := slog.LevelInfo
	if development {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch backend {
	case "", BackendSlog:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, opts))), nil
	case BackendSlogText:
		return NewSlogLogger(slog.New(slog.NewTextHandler(w, opts))), nil
	case BackendZap:
		var (
			z   *zap.Logger
			err error
		)
		if development {
			z, err = zap.NewDevelopment()
		} else {
			z, err = zap.NewProduction()
		}
		if err != nil {
			return nil, err
		}
		return NewZapLogger(z), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// Nop discards everything. Handy for tests.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
