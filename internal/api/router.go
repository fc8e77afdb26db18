package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"speshway/internal/api/middleware"
	"speshway/internal/config"
	"speshway/internal/metrics"
)

// NewRouter builds the Gin engine with the shared middleware chain,
// operational endpoints and static file serving. API routes are added
// separately by RegisterRoutes.
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		middleware.CORSMiddleware(cfg.CORS.Origins()),
		metrics.GinMiddleware(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Resume documents live on local disk and may be cached for a month.
	uploads := router.Group("/uploads", func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=2592000")
	})
	uploads.Static("/", cfg.API.UploadDir)

	registerFrontend(router, cfg.API.FrontendDir)

	return router
}

// registerFrontend serves the built single-page app. HTML is never
// cached so deploys take effect immediately; fingerprinted assets are
// immutable for a year. Unknown paths fall back to index.html so
// client-side routing works on deep links.
func registerFrontend(router *gin.Engine, dir string) {
	if dir == "" {
		return
	}
	indexPath := filepath.Join(dir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		return
	}

	assets := router.Group("/assets", func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
	})
	assets.Static("/", filepath.Join(dir, "assets"))

	serveIndex := func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.File(indexPath)
	}
	router.GET("/", serveIndex)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			NotFound(c, "route not found")
			return
		}
		if c.Request.Method != http.MethodGet {
			NotFound(c, "route not found")
			return
		}
		// Real files (favicon, robots.txt) are served as-is.
		candidate := filepath.Join(dir, filepath.Clean("/"+c.Request.URL.Path))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			c.File(candidate)
			return
		}
		serveIndex(c)
	})
}
