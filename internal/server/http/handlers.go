package http

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/metrics"
	"github.com/dmitrijs2005/eventphotos/internal/server/ratelimit"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
)

// Limit is a fixed-window budget applied to one route class.
type Limit struct {
	Max    int
	Window time.Duration
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router needs.
type Deps struct {
	Users   *services.UserService
	Events  *services.EventService
	Photos  *services.PhotoService
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	DB      Pinger
	Logger  logging.Logger

	AuthLimit      Limit
	WriteLimit     Limit
	SecureCookies  bool
	MaxUploadBytes int64
	UIDir          string
	UIPrefix       string
}

// Handlers implements the API endpoints on top of the services.
type Handlers struct {
	users   *services.UserService
	events  *services.EventService
	photos  *services.PhotoService
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	db      Pinger
	logger  logging.Logger

	authLimit      Limit
	writeLimit     Limit
	secureCookies  bool
	maxUploadBytes int64
	now            func() time.Time
}

func NewHandlers(d Deps) *Handlers {
	l := d.Logger
	if l == nil {
		l = logging.Nop{}
	}
	return &Handlers{
		users:          d.Users,
		events:         d.Events,
		photos:         d.Photos,
		limiter:        d.Limiter,
		metrics:        d.Metrics,
		db:             d.DB,
		logger:         l.With("module", "http_handlers"),
		authLimit:      d.AuthLimit,
		writeLimit:     d.WriteLimit,
		secureCookies:  d.SecureCookies,
		maxUploadBytes: d.MaxUploadBytes,
		now:            time.Now,
	}
}

func (h *Handlers) recordAuth(event string, ok bool) {
	if h.metrics != nil {
		h.metrics.Auth(event, ok)
	}
}
