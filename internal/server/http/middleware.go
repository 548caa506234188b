package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
	"github.com/dmitrijs2005/eventphotos/internal/server/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

// Rate-limit route classes, used in keys and metrics.
const (
	classAuth  = "auth"
	classWrite = "write"
)

// RequestLogger assigns or propagates X-Request-ID and logs every request at
// a level chosen by its status.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			l.Error(ctx, "http_request", args...)
		case status >= 400:
			l.Warn(ctx, "http_request", args...)
		default:
			l.Info(ctx, "http_request", args...)
		}
	}
}

// Instrument records request counts and latency by matched route.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RouteGuard lets a request through when either session cookie is present
// and redirects to /login otherwise. Cookie contents are not verified here;
// the API calls made by the page are.
func RouteGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if hasCookie(c, common.AccessTokenCookieName) || hasCookie(c, common.RefreshTokenCookieName) {
			c.Next()
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, "/login")
		c.Abort()
	}
}

func hasCookie(c *gin.Context, name string) bool {
	v, err := c.Cookie(name)
	return err == nil && v != ""
}

// requireAuth verifies the bearer access token and stores its claims.
func (h *Handlers) requireAuth(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	if header == "" {
		abortError(c, http.StatusUnauthorized, msgUnauthenticated)
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		abortError(c, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	res := h.users.Authenticate(strings.TrimSpace(parts[1]))
	if !res.OK {
		h.logger.Debug(c.Request.Context(), "access token rejected", "reason", res.Reason)
		abortError(c, http.StatusUnauthorized, msgUnauthenticated)
		return
	}
	c.Set(claimsKey, res.Claims)
	c.Next()
}

// identity returns the caller set by requireAuth.
func identity(c *gin.Context) auth.Identity {
	v, ok := c.Get(claimsKey)
	if !ok {
		return auth.Identity{}
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return auth.Identity{}
	}
	return claims.Identity()
}

// rateLimit enforces limit on the key produced by keyFn. A limiter backend
// failure lets the request through and is logged.
func (h *Handlers) rateLimit(class string, limit Limit, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter == nil {
			c.Next()
			return
		}

		key := class + ":" + keyFn(c)
		res, err := h.limiter.Check(c.Request.Context(), key, limit.Max, limit.Window)
		if err != nil {
			h.logger.Warn(c.Request.Context(), "rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		hdr := c.Writer.Header()
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if res.Limited {
			retry := res.RetryAfter(h.now())
			hdr.Set("Retry-After", strconv.FormatInt(int64(retry/time.Second), 10))
			if h.metrics != nil {
				h.metrics.RateLimited.WithLabelValues(class).Inc()
			}
			h.writeServiceError(c, common.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func byClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

func byUser(c *gin.Context) string {
	return "user:" + identity(c).SubjectID
}
