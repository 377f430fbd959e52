package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pinscout/api/handler"
	"github.com/use-agent/pinscout/api/middleware"
	"github.com/use-agent/pinscout/config"
	"github.com/use-agent/pinscout/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit (if enabled)
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
// Background middleware work stops when ctx is done.
func NewRouter(ctx context.Context, sc *scraper.Scraper, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	return newEngine(ctx, sc, sc, cfg, startTime)
}

func newEngine(ctx context.Context, ps handler.ProductScraper, sessions handler.SessionCounter, cfg *config.Config, startTime time.Time) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	protected := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		protected = append(protected, middleware.Auth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Enabled {
		protected = append(protected, middleware.RateLimit(ctx, cfg.RateLimit))
	}

	getProducts := handler.GetProducts(ps)

	// Original path kept for existing clients.
	legacy := r.Group("/api", protected...)
	legacy.GET("/get-products", getProducts)

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(sessions, startTime))
	v1.Group("", protected...).GET("/products", getProducts)

	if cfg.Server.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.Server.StaticDir))))
	}

	return r
}
