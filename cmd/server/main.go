package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server"
	"github.com/dmitrijs2005/eventphotos/internal/server/config"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogBackend, os.Stdout, !cfg.IsProduction())
	if err != nil {
		log.Printf("logger error: %v", err)
		os.Exit(1)
	}

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "server failed", "error", err)
		os.Exit(1)
	}

}
