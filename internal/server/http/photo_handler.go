package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/eventphotos/internal/server/models"
	"github.com/dmitrijs2005/eventphotos/internal/server/services"
)

type createPhotoRequest struct {
	EventID      string  `json:"eventId" binding:"required"`
	URL          string  `json:"url" binding:"required,url"`
	ThumbnailURL *string `json:"thumbnailUrl" binding:"omitempty,url"`
	FileName     string  `json:"fileName" binding:"required,max=255"`
	FileSize     int64   `json:"fileSize" binding:"gte=0"`
	Width        *int    `json:"width" binding:"omitempty,gte=1"`
	Height       *int    `json:"height" binding:"omitempty,gte=1"`
}

type presignRequest struct {
	EventID  string `json:"eventId" binding:"required"`
	FileName string `json:"fileName" binding:"required,max=255"`
}

// Upload accepts multipart eventId, files[] and optional blurDataUrls[]
// aligned with files by position.
func (h *Handlers) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortValidation(c, FieldError{Field: "files", Message: fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)})
			return
		}
		abortValidation(c, FieldError{Field: "body", Message: "multipart form expected"})
		return
	}

	eventID := strings.TrimSpace(firstValue(form.Value["eventId"]))
	if eventID == "" {
		abortValidation(c, FieldError{Field: "eventId", Message: "is required"})
		return
	}
	headers := append(form.File["files"], form.File["files[]"]...)
	if len(headers) == 0 {
		abortValidation(c, FieldError{Field: "files", Message: "at least one file is required"})
		return
	}
	blurs := append(form.Value["blurDataUrls"], form.Value["blurDataUrls[]"]...)

	files := make([]services.UploadFile, 0, len(headers))
	for i, fh := range headers {
		var blur *string
		if i < len(blurs) && blurs[i] != "" {
			blur = &blurs[i]
		}
		f, err := readPart(fh, h.maxUploadBytes, blur)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		files = append(files, f)
	}

	photos, err := h.photos.Upload(c.Request.Context(), identity(c).SubjectID, eventID, files)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "photos": photos})
}

func readPart(fh *multipart.FileHeader, limit int64, blur *string) (services.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return services.UploadFile{}, fmt.Errorf("error opening %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return services.ReadUpload(path.Base(fh.Filename), f, limit, blur)
}

func firstValue(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Presign hands out a presigned PUT so large files bypass this server.
func (h *Handlers) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	up, err := h.photos.Presign(c.Request.Context(), identity(c).SubjectID, req.EventID, path.Base(req.FileName))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, up)
}

// CreatePhoto registers an object uploaded through a presigned URL.
func (h *Handlers) CreatePhoto(c *gin.Context) {
	var req createPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	p, err := h.photos.Create(c.Request.Context(), identity(c).SubjectID, services.PhotoInput{
		EventID:      req.EventID,
		URL:          req.URL,
		ThumbnailURL: req.ThumbnailURL,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		Width:        req.Width,
		Height:       req.Height,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photo": p})
}

func (h *Handlers) ListPhotos(c *gin.Context) {
	eventID := strings.TrimSpace(c.Query("eventId"))
	if eventID == "" {
		abortValidation(c, FieldError{Field: "eventId", Message: "is required"})
		return
	}
	photos, err := h.photos.List(c.Request.Context(), eventID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	if photos == nil {
		photos = []*models.Photo{}
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

func (h *Handlers) GetPhoto(c *gin.Context) {
	p, err := h.photos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": p})
}

func (h *Handlers) DeletePhoto(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), identity(c).SubjectID, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) CountDownload(c *gin.Context) {
	n, err := h.photos.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "downloadCount": n})
}

func (h *Handlers) OptimizePhoto(c *gin.Context) {
	p, err := h.photos.OptimizeOwned(c.Request.Context(), identity(c).SubjectID, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": p})
}

// ProxyImage streams an object from our bucket. URLs outside the public
// bucket base are refused with 403.
func (h *Handlers) ProxyImage(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("url"))
	if raw == "" {
		abortValidation(c, FieldError{Field: "url", Message: "is required"})
		return
	}

	obj, err := h.photos.Open(c.Request.Context(), raw)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extra := map[string]string{"Cache-Control": "public, max-age=3600"}
	if c.Query("download") == "true" {
		name := path.Base(strings.SplitN(raw, "?", 2)[0])
		extra["Content-Disposition"] = fmt.Sprintf("attachment; filename=%q", name)
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, extra)
}
