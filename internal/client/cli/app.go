package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/client/client"
	"github.com/dmitrijs2005/eventphotos/internal/client/config"
	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/client/repositories"
	"github.com/dmitrijs2005/eventphotos/internal/client/services"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// API is the part of the eventphotos client the CLI drives.
type API interface {
	Register(ctx context.Context, email string, password []byte, name string) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	LoggedIn() bool
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, e models.NewEvent) (*models.Event, error)
	ListPhotos(ctx context.Context, eventID string) ([]models.Photo, error)
	Ping(ctx context.Context) error
}

// Uploader sends a set of local files to an event.
type Uploader interface {
	BulkUpload(ctx context.Context, eventID string, paths []string, progress func(services.UploadResult)) (*services.UploadReport, error)
}

type App struct {
	config   *config.Config
	api      API
	uploader Uploader
	repos    *repositories.Repositories
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	mu       sync.Mutex
	userName string
	mode     Mode
}

// NewApp opens the local state database and builds the API client and the
// upload service.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := repositories.InitDatabase(ctx, c.StateDB)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	app := &App{
		config: c,
		repos:  repos,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	api, err := client.NewHTTPClient(c.ServerURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithSessionExpired(app.sessionExpired),
	)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}
	app.api = api
	app.uploader = services.NewUploadService(api, repos.Uploads, services.HTTPPut(api.HTTP()), c.UploadConcurrency)

	return app, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	a.userName = name
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) sessionExpired() {
	a.setUser("")
	fmt.Fprintln(a.out, "Session expired, please log in again.")
}

// Run starts the REPL and blocks until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if err := a.repos.Close(); err != nil {
			a.logger.Warn(context.Background(), "state db close error", "error", err)
		}
	}()

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	a.Root(ctx)
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connectivity mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
