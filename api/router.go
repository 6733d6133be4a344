package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidinfo/api/handler"
	"github.com/use-agent/vidinfo/api/middleware"
	"github.com/use-agent/vidinfo/cache"
	"github.com/use-agent/vidinfo/config"
	"github.com/use-agent/vidinfo/engine"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger → CORS
//	Extract: Auth (if enabled) → RateLimit
//
// Every route is served at the root and again under /api/v1.
//
// Async extractions run on bg; the caller shuts it down after the server.
func NewRouter(ex handler.Extractor, bg *handler.Background, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.CORS.Origin))
	r.NoRoute(handler.NotFound())

	probes := cache.New[engine.ProbeResult](1, cfg.Health.ProbeCacheTTL)
	slots := handler.NewSlots(cfg.Extractor.MaxConcurrent, cfg.Extractor.QueueTimeout)

	protect := []gin.HandlerFunc{}
	if cfg.Auth.Enabled {
		protect = append(protect, middleware.Auth(cfg.Auth.APIKeys))
	}
	protect = append(protect, middleware.RateLimit(cfg.RateLimit))

	health := handler.Health(ex, probes, slots, startTime)
	extract := append(protect, handler.Extract(ex, slots, bg))

	r.GET("/", handler.Root())
	for _, g := range []*gin.RouterGroup{&r.RouterGroup, r.Group("/api/v1")} {
		g.GET("/health", health)
		g.POST("/extract", extract...)
	}

	return r
}
