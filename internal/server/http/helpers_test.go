package http

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/eventphotos/internal/logging"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
	"github.com/dmitrijs2005/eventphotos/internal/server/metrics"
	"github.com/dmitrijs2005/eventphotos/internal/server/optimizer"
	"github.com/dmitrijs2005/eventphotos/internal/server/ratelimit"
	"github.com/dmitrijs2005/eventphotos/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
	"github.com/dmitrijs2005/eventphotos/internal/server/storage"
)

const testPublicURL = "https://cdn.example.com/photos"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	store   *storage.MemoryStorage
	manager *repomanager.InMemoryRepositoryManager
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
}

type envOption func(*Deps)

func withAuthLimit(max int) envOption {
	return func(d *Deps) { d.AuthLimit = Limit{Max: max, Window: time.Minute} }
}

func withWriteLimit(max int) envOption {
	return func(d *Deps) { d.WriteLimit = Limit{Max: max, Window: time.Minute} }
}

func withUI(prefix, dir string) envOption {
	return func(d *Deps) { d.UIPrefix, d.UIDir = prefix, dir }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	signer, err := auth.NewSigner([]byte("test-secret"), 10*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	m := repomanager.NewInMemoryRepositoryManager()
	st := storage.NewMemoryStorage(testPublicURL)
	met := metrics.New()
	lim := ratelimit.New(ratelimit.NewMemoryStore())
	log := logging.Nop{}

	d := Deps{
		Users:          services.NewUserService(m, signer, hasher),
		Events:         services.NewEventService(m, st, log),
		Photos:         services.NewPhotoService(m, st, optimizer.New(1920, 80), log),
		Limiter:        lim,
		Metrics:        met,
		DB:             m,
		Logger:         log,
		AuthLimit:      Limit{Max: 100, Window: time.Minute},
		WriteLimit:     Limit{Max: 100, Window: time.Minute},
		MaxUploadBytes: 8 << 20,
	}
	for _, o := range opts {
		o(&d)
	}

	return &testEnv{router: NewRouter(d), store: st, manager: m, metrics: met, limiter: lim}
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
	header  map[string]string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// session registers and logs in a user, returning the access token and the
// login response's cookies.
func (e *testEnv) session(t *testing.T, email string) (string, []*http.Cookie) {
	t.Helper()
	w := e.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: gin.H{"email": email, "password": "secret123"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(t, request{method: http.MethodPost, path: "/api/login", body: gin.H{"email": email, "password": "secret123"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["token"].(string), w.Result().Cookies()
}

func (e *testEnv) createEvent(t *testing.T, token, title string) map[string]any {
	t.Helper()
	w := e.do(t, request{method: http.MethodPost, path: "/api/events", token: token, body: gin.H{"title": title, "date": "2026-06-01"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["event"].(map[string]any)
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
