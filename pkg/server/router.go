package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/extlabs/ext/pkg/auth"
	"github.com/extlabs/ext/pkg/config"
	"github.com/extlabs/ext/pkg/middleware/cache"
	"github.com/extlabs/ext/pkg/middleware/logging"
	metricsmw "github.com/extlabs/ext/pkg/middleware/metrics"
	"github.com/extlabs/ext/pkg/middleware/ratelimit"
	"github.com/extlabs/ext/pkg/middleware/requestid"
	"github.com/extlabs/ext/pkg/observability/logger"
	"github.com/extlabs/ext/pkg/observability/metrics"
)

// Deps carries the assembled components the router wires into the
// middleware chain. Nil fields disable the corresponding middleware.
type Deps struct {
	Logger     logger.Logger
	Metrics    *metrics.Registry
	Limiter    ratelimit.Limiter
	CacheStore cache.Store
	Validator  auth.Validator
	DBPing     func() error
}

// NewEngine assembles the gin engine with the full middleware chain and the
// system routes.
func NewEngine(cfg *config.Config, deps Deps) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestid.Middleware())
	engine.Use(logging.WithConfig(deps.Logger, logging.Config{
		ExcludedPathPrefixes: []string{"/health"},
	}))
	engine.Use(AllowedHosts(cfg.Server.AllowedHosts))

	if deps.Metrics != nil {
		engine.Use(metricsmw.Middleware(deps.Metrics))
	}
	if cfg.RateLimit.Enabled && deps.Limiter != nil {
		engine.Use(ratelimit.Middleware(deps.Limiter))
	}
	if cfg.Cache.Enabled && deps.CacheStore != nil {
		var recorder cache.Recorder
		if deps.Metrics != nil {
			recorder = deps.Metrics
		}
		engine.Use(cache.Middleware(cache.Config{
			Enabled:  true,
			Store:    deps.CacheStore,
			TTL:      cfg.Cache.DefaultTimeout,
			Recorder: recorder,
		}))
	}

	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        cfg.API.Title,
			"version":     cfg.API.Version,
			"description": cfg.API.Description,
		})
	})

	engine.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		payload := gin.H{"status": "ok"}
		if deps.DBPing != nil {
			if err := deps.DBPing(); err != nil {
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["database"] = err.Error()
			} else {
				payload["database"] = "ok"
			}
		}
		c.JSON(status, payload)
	})

	if deps.Validator != nil {
		engine.GET("/me", auth.RequireAuth(deps.Validator), func(c *gin.Context) {
			claims := auth.ClaimsFromGin(c)
			c.JSON(http.StatusOK, gin.H{
				"user":  claims.Subject,
				"roles": claims.Roles,
			})
		})
	}

	return engine
}
