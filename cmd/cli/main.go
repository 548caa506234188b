package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/eventphotos/internal/client/cli"
	"github.com/dmitrijs2005/eventphotos/internal/client/config"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("config error: %v", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogBackend, os.Stderr, false)
	if err != nil {
		log.Printf("logger error: %v", err)
		os.Exit(1)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
