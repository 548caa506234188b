package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/eventphotos/internal/common"
)

// setSessionCookies writes both token cookies. They carry no Max-Age, so
// they last for the browser session; the tokens inside expire on their own.
func (h *Handlers) setSessionCookies(c *gin.Context, access, refresh string) {
	http.SetCookie(c.Writer, h.cookie(common.AccessTokenCookieName, access, 0))
	http.SetCookie(c.Writer, h.cookie(common.RefreshTokenCookieName, refresh, 0))
}

func (h *Handlers) clearSessionCookies(c *gin.Context) {
	http.SetCookie(c.Writer, h.cookie(common.AccessTokenCookieName, "", -1))
	http.SetCookie(c.Writer, h.cookie(common.RefreshTokenCookieName, "", -1))
}

// cookie builds a session cookie. maxAge < 0 emits Max-Age=0.
func (h *Handlers) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
