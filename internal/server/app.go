// Package server wires configuration, storage backends, services and the
// HTTP and gRPC listeners into a runnable application with graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
	"github.com/dmitrijs2005/eventphotos/internal/server/config"
	"github.com/dmitrijs2005/eventphotos/internal/server/metrics"
	"github.com/dmitrijs2005/eventphotos/internal/server/optimizer"
	"github.com/dmitrijs2005/eventphotos/internal/server/ratelimit"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
	"github.com/dmitrijs2005/eventphotos/internal/server/storage"

	gs "github.com/dmitrijs2005/eventphotos/internal/server/grpc"
	hs "github.com/dmitrijs2005/eventphotos/internal/server/http"
)

const (
	maintenanceInterval = time.Hour
	recoverBatch        = 1000
	redisKeyPrefix     = "eventphotos:ratelimit:"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	storage     storage.Storage
	redis       redis.UniversalClient
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	queue       *optimizer.Queue

	userService  *services.UserService
	eventService *services.EventService
	photoService *services.PhotoService
}

// NewApp connects to the configured backends and builds the services.
// An empty DatabaseDSN selects the in-memory repositories.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger, metrics: metrics.New()}

	if err := app.initRepositories(ctx); err != nil {
		return nil, err
	}

	st, err := storage.NewS3Storage(ctx, storage.S3Options{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		PublicURL:    c.S3PublicURL,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	app.storage = st

	if err := app.initLimiter(ctx); err != nil {
		app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.close()
		return nil, err
	}

	return app, nil
}

func (app *App) initRepositories(ctx context.Context) error {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database configured, using in-memory repositories")
		app.repomanager = repomanager.NewInMemoryRepositoryManager()
		return nil
	}

	m, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return fmt.Errorf("migrations error: %w", err)
	}
	app.repomanager = m
	return nil
}

func (app *App) initLimiter(ctx context.Context) error {
	if app.config.RedisAddr == "" {
		app.limiter = ratelimit.New(ratelimit.NewMemoryStore())
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: app.config.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client
	app.limiter = ratelimit.New(ratelimit.NewRedisStore(client, redisKeyPrefix))
	return nil
}

func (app *App) initServices() error {
	c := app.config

	signer, err := auth.NewSigner([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return fmt.Errorf("signer init error: %w", err)
	}
	hasher, err := auth.NewPasswordHasher(common.BCryptCost)
	if err != nil {
		return fmt.Errorf("hasher init error: %w", err)
	}

	app.userService = services.NewUserService(app.repomanager, signer, hasher)
	app.eventService = services.NewEventService(app.repomanager, app.storage, app.logger)
	app.photoService = services.NewPhotoService(app.repomanager, app.storage,
		optimizer.New(c.OptimizerMaxWidth, c.OptimizerQuality), app.logger)

	app.queue = optimizer.NewQueue(optimizer.QueueOptions{
		Size:          c.OptimizerQueueSize,
		Workers:       c.OptimizerWorkers,
		RatePerSecond: c.OptimizerRatePerSecond,
	}, app.photoService.OptimizeJob, app.logger, app.metrics)
	app.photoService.SetQueue(app.queue)

	return nil
}

func (app *App) httpDeps() hs.Deps {
	c := app.config
	return hs.Deps{
		Users:          app.userService,
		Events:         app.eventService,
		Photos:         app.photoService,
		Limiter:        app.limiter,
		Metrics:        app.metrics,
		DB:             app.repomanager,
		Logger:         app.logger,
		AuthLimit:      hs.Limit{Max: c.RateLimitAuthMax, Window: c.RateLimitAuthWindow},
		WriteLimit:     hs.Limit{Max: c.RateLimitWriteMax, Window: c.RateLimitWriteWindow},
		SecureCookies:  c.IsProduction(),
		MaxUploadBytes: c.MaxUploadBytes,
		UIDir:          c.UIDir,
		UIPrefix:       c.UIPrefix,
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a signal arrives, ctx is cancelled or a component fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	httpServer := hs.NewServer(app.config.HTTPAddr, hs.NewRouter(app.httpDeps()), app.logger)
	grpcServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.repomanager)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return httpServer.Run(ctx) })
	g.Go(func() error { return grpcServer.Run(ctx) })
	g.Go(func() error { return app.queue.Run(ctx) })
	g.Go(func() error {
		app.limiter.RunSweeper(ctx, app.config.RateLimitSweepInterval, app.logger)
		return nil
	})
	g.Go(func() error {
		app.maintain(ctx)
		return nil
	})

	err := g.Wait()
	app.logger.Info(context.Background(), "App stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// maintain re-enqueues unoptimized photos at start. After that, every
// maintenanceInterval it drops expired refresh tokens and runs the recovery
// again, which picks up photos that found the queue full.
func (app *App) maintain(ctx context.Context) {
	app.recoverPending(ctx)

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeTokens(ctx)
			app.recoverPending(ctx)
		}
	}
}

func (app *App) purgeTokens(ctx context.Context) {
	n, err := app.userService.PurgeExpiredTokens(ctx)
	if err != nil {
		app.logger.Error(ctx, "refresh token purge failed", "error", err)
		return
	}
	if n > 0 {
		app.logger.Info(ctx, "purged expired refresh tokens", "count", n)
	}
}

func (app *App) recoverPending(ctx context.Context) {
	n, err := app.photoService.RecoverPending(ctx, recoverBatch)
	if err != nil {
		if ctx.Err() == nil {
			app.logger.Error(ctx, "optimizer recovery failed", "error", err)
		}
		return
	}
	if n > 0 {
		app.logger.Info(ctx, "re-enqueued unoptimized photos", "count", n)
	}
}

func (app *App) close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "redis close error", "error", err)
		}
	}
	if app.repomanager != nil {
		if err := app.repomanager.Close(); err != nil {
			app.logger.Warn(context.Background(), "db close error", "error", err)
		}
	}
}
