// Package http exposes the JSON API, the public gallery endpoints, the
// Prometheus scrape endpoint and the guarded dashboard over gin.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// Server wraps a gin.Engine with graceful shutdown.
type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

func NewServer(address string, engine *gin.Engine, l logging.Logger) *Server {
	engine.HandleMethodNotAllowed = true
	return &Server{address: address, engine: engine, logger: l.With("module", "http_server")}
}

// Run serves until ctx is done, then shuts down and waits for in-flight
// requests for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info(ctx, "starting HTTP server", "addr", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info(shutdownCtx, "HTTP server stopped")
		return nil
	})

	return g.Wait()
}
