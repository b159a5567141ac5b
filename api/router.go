package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/bookingwatch/api/handler"
	"github.com/use-agent/bookingwatch/api/middleware"
	"github.com/use-agent/bookingwatch/cache"
	"github.com/use-agent/bookingwatch/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work. pool may be
// nil when no browser is running.
func NewRouter(runner handler.Runner, pool handler.PoolStatser, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(pool, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	runs := handler.NewRuns(runner, cc, cfg.Targets)
	protected.POST("/runs", runs.Post())
	protected.GET("/results", runs.Results())

	return r
}
