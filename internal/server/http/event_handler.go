package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
)

// Accepted event date layouts.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

type createEventRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Date        string  `json:"date" binding:"required"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
}

type updateEventRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Date        *string `json:"date"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (h *Handlers) ListEvents(c *gin.Context) {
	events, err := h.events.List(c.Request.Context(), identity(c).SubjectID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if events == nil {
		events = []*models.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handlers) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		abortValidation(c, FieldError{Field: "date", Message: "must be a date (YYYY-MM-DD or RFC 3339)"})
		return
	}

	event, err := h.events.Create(c.Request.Context(), identity(c).SubjectID, services.EventInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Date:        date,
		Location:    req.Location,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h *Handlers) GetEvent(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), identity(c).SubjectID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *Handlers) UpdateEvent(c *gin.Context) {
	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	upd := models.EventUpdate{Title: req.Title, Description: req.Description, Location: req.Location}
	if req.Date != nil {
		date, ok := parseDate(*req.Date)
		if !ok {
			abortValidation(c, FieldError{Field: "date", Message: "must be a date (YYYY-MM-DD or RFC 3339)"})
			return
		}
		upd.Date = &date
	}

	event, err := h.events.Update(c.Request.Context(), identity(c).SubjectID, c.Param("id"), upd)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *Handlers) DeleteEvent(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), identity(c).SubjectID, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PublicEvent serves the gallery behind a share link without authentication.
func (h *Handlers) PublicEvent(c *gin.Context) {
	event, photos, err := h.events.GetPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if photos == nil {
		photos = []*models.Photo{}
	}
	c.JSON(http.StatusOK, gin.H{"event": event, "photos": photos})
}
