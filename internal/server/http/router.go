package http

import (
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var configureBinding sync.Once

// setupBinding makes request decoding strict and reports JSON field names in
// validation errors.
func setupBinding() {
	configureBinding.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})
}

// NewRouter wires gin routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	setupBinding()

	h := NewHandlers(d)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(h.logger))
	if d.Metrics != nil {
		r.Use(Instrument(d.Metrics))
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.GET("/healthz", h.Health)

	authLimited := h.rateLimit(classAuth, h.authLimit, byClientIP)
	writeLimited := h.rateLimit(classWrite, h.writeLimit, byUser)

	api := r.Group("/api")
	{
		api.POST("/auth/register", authLimited, h.Register)
		api.POST("/login", authLimited, h.Login)
		api.POST("/refresh", h.Refresh)
		api.POST("/logout", h.Logout)

		api.GET("/public/events/:slug", h.PublicEvent)
		api.GET("/photos", h.ListPhotos)
		api.GET("/photos/:id", h.GetPhoto)
		api.POST("/photos/:id/download", h.CountDownload)
		api.GET("/proxy-image", h.ProxyImage)
	}

	protected := api.Group("", h.requireAuth)
	{
		protected.GET("/me", h.Me)

		protected.GET("/events", h.ListEvents)
		protected.POST("/events", writeLimited, h.CreateEvent)
		protected.GET("/events/:id", h.GetEvent)
		protected.PATCH("/events/:id", writeLimited, h.UpdateEvent)
		protected.DELETE("/events/:id", writeLimited, h.DeleteEvent)

		protected.POST("/upload", writeLimited, h.Upload)
		protected.POST("/uploads/presign", writeLimited, h.Presign)
		protected.POST("/photos", writeLimited, h.CreatePhoto)
		protected.DELETE("/photos/:id", writeLimited, h.DeletePhoto)
		protected.POST("/photos/:id/optimize", writeLimited, h.OptimizePhoto)
	}

	if d.UIPrefix != "" {
		attachUIRoutes(r, d.UIPrefix, d.UIDir)
	}

	return r
}

// attachUIRoutes serves the dashboard's static files under prefix behind the
// route guard. Unknown paths fall back to index.html for client-side routing.
func attachUIRoutes(r *gin.Engine, prefix, distDir string) {
	prefix = "/" + strings.Trim(prefix, "/")
	indexPath := filepath.Join(distDir, "index.html")

	serve := func(c *gin.Context) {
		if filePath, ok := safeJoin(distDir, c.Param("filepath")); ok {
			if info, err := os.Stat(filePath); err == nil && !info.IsDir() {
				c.File(filePath)
				return
			}
		}
		if _, err := os.Stat(indexPath); err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(indexPath)
	}

	ui := r.Group(prefix, RouteGuard())
	ui.GET("", serve)
	ui.GET("/*filepath", serve)
}

func safeJoin(baseDir, requestPath string) (string, bool) {
	trimmed := strings.TrimPrefix(requestPath, "/")
	cleaned := filepath.Clean(trimmed)
	if cleaned == "." {
		return filepath.Join(baseDir, cleaned), true
	}
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", false
	}
	return filepath.Join(baseDir, cleaned), true
}
