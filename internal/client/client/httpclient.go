package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventphotos/internal/client/models"
	"github.com/dmitrijs2005/eventphotos/internal/common"
)

const maxErrorBody = 64 << 10

// Option tunes an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

// WithSessionExpired registers a callback run after a failed refresh drops
// the session.
func WithSessionExpired(fn func()) Option {
	return func(c *HTTPClient) { c.onExpired = fn }
}

// sessionJar is a cookie jar that can be emptied in place, so the
// http.Client holding it never changes while requests are in flight.
type sessionJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &sessionJar{jar: jar}, nil
}

func (j *sessionJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

// Reset drops every cookie.
func (j *sessionJar) Reset() {
	fresh, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.jar = fresh
	j.mu.Unlock()
}

type HTTPClient struct {
	base      *url.URL
	http      *http.Client
	jar       *sessionJar
	onExpired func()

	mu    sync.Mutex
	token string
	// gen changes whenever the session changes, so concurrent callers that
	// hit 401 with the same stale token share one refresh.
	gen       uint64
	refreshMu sync.Mutex
}

// NewHTTPClient returns a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{base: u, http: &http.Client{Jar: jar}, jar: jar}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// HTTP exposes the underlying client so uploads to storage share its
// transport and timeout. The client is never mutated after construction.
func (c *HTTPClient) HTTP() *http.Client {
	return c.http
}

// LoggedIn reports whether an access token is held.
func (c *HTTPClient) LoggedIn() bool {
	token, _ := c.session()
	return token != ""
}

func (c *HTTPClient) session() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.gen
}

func (c *HTTPClient) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.gen++
	c.mu.Unlock()
}

// clearSession forgets both tokens.
func (c *HTTPClient) clearSession() {
	c.jar.Reset()

	c.mu.Lock()
	c.token = ""
	c.gen++
	c.mu.Unlock()
}

// Register creates an account. It does not log in.
func (c *HTTPClient) Register(ctx context.Context, email string, password []byte, name string) (*models.User, error) {
	body := map[string]any{"email": email, "password": string(password)}
	if name != "" {
		body["name"] = name
	}
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/auth/register", body, &resp, false); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login opens a session. The refresh cookie lands in the jar and the access
// token is kept for bearer auth.
func (c *HTTPClient) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": string(password)}
	if err := c.call(ctx, http.MethodPost, "/api/login", body, &resp, false); err != nil {
		return nil, err
	}
	c.setToken(resp.Token)
	return &resp.User, nil
}

// Logout revokes the refresh token on the server. The local session is
// dropped even when the request fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/api/logout", nil, nil, false)
	c.clearSession()
	return err
}

// Refresh rotates the token pair.
func (c *HTTPClient) Refresh(ctx context.Context) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/refresh", nil, &resp, false); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("refresh returned no token")
	}
	c.setToken(resp.Token)
	return nil
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/me", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	var resp struct {
		Events []models.Event `json:"events"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/events", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *HTTPClient) CreateEvent(ctx context.Context, e models.NewEvent) (*models.Event, error) {
	var resp struct {
		Event models.Event `json:"event"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/events", e, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

func (c *HTTPClient) ListPhotos(ctx context.Context, eventID string) ([]models.Photo, error) {
	var resp struct {
		Photos []models.Photo `json:"photos"`
	}
	path := "/api/photos?eventId=" + url.QueryEscape(eventID)
	if err := c.call(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

// Presign asks for a PUT URL for a new object in the event.
func (c *HTTPClient) Presign(ctx context.Context, eventID, fileName string) (*models.PresignedUpload, error) {
	var resp models.PresignedUpload
	body := map[string]string{"eventId": eventID, "fileName": fileName}
	if err := c.call(ctx, http.MethodPost, "/api/uploads/presign", body, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePhoto registers an object uploaded through Presign.
func (c *HTTPClient) CreatePhoto(ctx context.Context, p models.NewPhoto) (*models.Photo, error) {
	var resp struct {
		Photo models.Photo `json:"photo"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/photos", p, &resp, true); err != nil {
		return nil, err
	}
	return &resp.Photo, nil
}

// Ping checks /healthz.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/healthz", nil, nil, false)
}

// call sends one API request. Authenticated calls get a single refresh and
// retry on 401.
func (c *HTTPClient) call(ctx context.Context, method, path string, in, out any, authed bool) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	token, gen := c.session()
	if authed && token == "" {
		return ErrUnauthorized
	}

	err := c.do(ctx, method, path, payload, token, out)
	if !authed || !errors.Is(err, ErrUnauthorized) {
		return err
	}

	token, err = c.refreshAfter(ctx, gen)
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, payload, token, out)
}

// refreshAfter rotates the session unless another caller already replaced
// the one observed at gen.
func (c *HTTPClient) refreshAfter(ctx context.Context, gen uint64) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if token, cur := c.session(); cur != gen {
		if token == "" {
			return "", ErrUnauthorized
		}
		return token, nil
	}

	if err := c.Refresh(ctx); err != nil {
		if errors.Is(err, ErrUnavailable) {
			return "", err
		}
		c.clearSession()
		if c.onExpired != nil {
			c.onExpired()
		}
		return "", ErrUnauthorized
	}
	token, _ := c.session()
	return token, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload []byte, token string, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(raw, apiErr)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
