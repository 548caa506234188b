package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/server/auth"
)

func TestSessionLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: gin.H{"email": "Ann@Example.com", "password": "secret123", "name": "Ann"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])

	w = e.do(t, request{method: http.MethodPost, path: "/api/login", body: gin.H{"email": "ann@example.com", "password": "secret123"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	token := body["token"].(string)
	require.NotEmpty(t, token)

	access := cookieNamed(w, common.AccessTokenCookieName)
	refresh := cookieNamed(w, common.RefreshTokenCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	for _, c := range []*http.Cookie{access, refresh} {
		assert.True(t, c.HttpOnly)
		assert.False(t, c.Secure)
		assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
		assert.Equal(t, "/", c.Path)
		assert.Zero(t, c.MaxAge)
	}
	assert.Equal(t, token, access.Value)

	w = e.do(t, request{method: http.MethodGet, path: "/api/me", token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ann@example.com", decode(t, w)["user"].(map[string]any)["email"])

	w = e.do(t, request{method: http.MethodGet, path: "/api/me"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decode(t, w)["error"])

	w = e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{refresh}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode(t, w)["token"].(string)
	assert.NotEqual(t, token, rotated)
	newRefresh := cookieNamed(w, common.RefreshTokenCookieName)
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, refresh.Value, newRefresh.Value)

	// A rotated-out refresh token cannot be replayed.
	w = e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{refresh}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodGet, path: "/api/me", token: rotated})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Validation(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{name: "short password", body: gin.H{"email": "a@b.co", "password": "123"}, field: "password"},
		{name: "bad email", body: gin.H{"email": "nope", "password": "secret123"}, field: "email"},
		{name: "missing email", body: gin.H{"password": "secret123"}, field: "email"},
		{name: "unknown field", body: gin.H{"email": "a@b.co", "password": "secret123", "admin": true}, field: "admin"},
		{name: "malformed json", body: `{"email":`, field: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: tt.body})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, "validation failed", body["error"])
			details := body["details"].([]any)
			require.NotEmpty(t, details)
			assert.Equal(t, tt.field, details[0].(map[string]any)["field"])
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newTestEnv(t)
	e.session(t, "dup@example.com")

	w := e.do(t, request{method: http.MethodPost, path: "/api/auth/register", body: gin.H{"email": "DUP@example.com", "password": "secret123"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email already in use", decode(t, w)["error"])
}

func TestLogin_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	e := newTestEnv(t)
	e.session(t, "known@example.com")

	unknown := e.do(t, request{method: http.MethodPost, path: "/api/login", body: gin.H{"email": "ghost@example.com", "password": "secret123"}})
	wrong := e.do(t, request{method: http.MethodPost, path: "/api/login", body: gin.H{"email": "known@example.com", "password": "nope-nope"}})

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Nil(t, cookieNamed(wrong, common.AccessTokenCookieName))
}

func TestRefresh_RequiresCookie(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, request{method: http.MethodPost, path: "/api/refresh"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{{Name: common.RefreshTokenCookieName, Value: "garbage"}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Same secret, but issued long enough ago that the 7-day token is over.
	signer, err := auth.NewSigner([]byte("test-secret"), 10*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	past := signer.WithClock(func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) })
	expired, _, err := past.Sign(auth.KindRefresh, auth.Identity{SubjectID: "u-1", Email: "old@example.com"})
	require.NoError(t, err)

	w = e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{{Name: common.RefreshTokenCookieName, Value: expired}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies(), "no new cookies for an expired refresh token")
}

func TestRefresh_RejectsAccessTokenInRefreshCookie(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.session(t, "kind@example.com")

	w := e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{{Name: common.RefreshTokenCookieName, Value: token}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	_, cookies := e.session(t, "bye@example.com")

	w := e.do(t, request{method: http.MethodPost, path: "/api/logout", cookies: cookies})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ok"])

	for _, name := range []string{common.AccessTokenCookieName, common.RefreshTokenCookieName} {
		c := cookieNamed(w, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
		assert.Contains(t, strings.Join(w.Header().Values("Set-Cookie"), ";"), "Max-Age=0")
	}

	// The presented refresh token was revoked.
	var refresh *http.Cookie
	for _, c := range cookies {
		if c.Name == common.RefreshTokenCookieName {
			refresh = c
		}
	}
	w = e.do(t, request{method: http.MethodPost, path: "/api/refresh", cookies: []*http.Cookie{refresh}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out without a session still succeeds.
	w = e.do(t, request{method: http.MethodPost, path: "/api/logout"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecureCookiesInProduction(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) { d.SecureCookies = true })
	_, cookies := e.session(t, "prod@example.com")

	require.NotEmpty(t, cookies)
	for _, c := range cookies {
		assert.True(t, c.Secure, c.Name)
	}
}

func TestBearerParsing(t *testing.T) {
	e := newTestEnv(t)
	token, _ := e.session(t, "bearer@example.com")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + token, want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + token, want: http.StatusOK},
		{name: "wrong scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "no token", header: "Bearer", want: http.StatusUnauthorized},
		{name: "tampered", header: "Bearer " + token + "x", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, request{method: http.MethodGet, path: "/api/me", header: map[string]string{"Authorization": tt.header}})
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, request{method: http.MethodGet, path: "/healthz"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
