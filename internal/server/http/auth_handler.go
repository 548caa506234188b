package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/eventphotos/internal/common"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
)

type registerRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Name     *string `json:"name" binding:"omitempty,max=200"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account. The response never includes the password hash.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	h.recordAuth("register", err == nil)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "user created", "user": user})
}

// Login sets both session cookies and returns the access token for bearer use.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	session, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	h.recordAuth("login", err == nil)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.setSessionCookies(c, session.Tokens.AccessToken, session.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": session.Tokens.AccessToken, "user": session.User})
}

// Refresh rotates the session using the refresh cookie.
func (h *Handlers) Refresh(c *gin.Context) {
	token, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || token == "" {
		h.recordAuth("refresh", false)
		abortError(c, http.StatusUnauthorized, msgUnauthenticated)
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), token)
	h.recordAuth("refresh", err == nil)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.setSessionCookies(c, pair.AccessToken, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": pair.AccessToken})
}

// Logout clears the cookies and revokes the presented refresh token. It
// always succeeds from the client's point of view.
func (h *Handlers) Logout(c *gin.Context) {
	if token, err := c.Cookie(common.RefreshTokenCookieName); err == nil && token != "" {
		if err := h.users.Logout(c.Request.Context(), token); err != nil {
			h.logger.Warn(c.Request.Context(), "refresh token revocation failed", "error", err)
		}
	}
	h.recordAuth("logout", true)
	h.clearSessionCookies(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the authenticated user.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), identity(c).SubjectID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Health pings the database.
func (h *Handlers) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			h.logger.Error(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
