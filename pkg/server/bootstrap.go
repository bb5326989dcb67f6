package server

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/extlabs/ext/pkg/auth"
	"github.com/extlabs/ext/pkg/config"
	"github.com/extlabs/ext/pkg/db"
	"github.com/extlabs/ext/pkg/middleware/cache"
	"github.com/extlabs/ext/pkg/middleware/ratelimit"
	"github.com/extlabs/ext/pkg/observability/logger"
	"github.com/extlabs/ext/pkg/observability/metrics"
)

// App bundles the running service: the public server, the metrics listener
// and the shared backend connections.
type App struct {
	cfg     *config.Config
	log     logger.Logger
	public  *Server
	metrics *metrics.Server
	pool    *db.Pool
	store   cache.Store
	limiter ratelimit.Limiter
}

// Bootstrap assembles every component from the typed configuration. Redis
// backed components degrade to in-process fallbacks when Redis is
// unreachable so a cache outage never prevents startup; the database is
// optional for the same reason and surfaces through the health endpoint.
func Bootstrap(cfg *config.Config, log logger.Logger) (*App, error) {
	registry := metrics.NewRegistry()

	manager, err := auth.NewManager(auth.Config{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		Expiration: cfg.JWT.Expiration,
	})
	if err != nil {
		return nil, err
	}

	app := &App{cfg: cfg, log: log}

	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.NewRedisLimiter(cfg.Redis.URL, cfg.RateLimit.RequestsPerMinute, cfg.Redis.PoolSize, log)
		if err != nil {
			log.Warn("falling back to in-process rate limiter", "error", err)
			app.limiter = ratelimit.NewTokenBucketLimiter(cfg.RateLimit.RequestsPerMinute)
		} else {
			app.limiter = limiter
		}
	}

	if cfg.Cache.Enabled {
		store, err := cache.NewRedisStore(cfg.Redis.URL, cfg.Redis.PoolSize)
		if err != nil {
			log.Warn("falling back to in-memory response cache", "error", err)
			app.store = cache.NewInMemoryStore()
		} else {
			app.store = store
		}
	}

	pool, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Warn("starting without database connection", "error", err)
	} else {
		app.pool = pool
	}

	deps := Deps{
		Logger:     log,
		Metrics:    registry,
		Limiter:    app.limiter,
		CacheStore: app.store,
		Validator:  manager,
	}
	if app.pool != nil {
		deps.DBPing = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return app.pool.Ping(ctx)
		}
	}

	app.public = New(cfg.Server, NewEngine(cfg, deps), log)
	app.metrics = metrics.NewServer(cfg.Server.Host, cfg.Metrics.Port, registry, log)
	return app, nil
}

// Run starts the public and metrics listeners and blocks until the context
// is cancelled or either listener fails.
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.public.Start(ctx)
	})
	group.Go(func() error {
		errChan := make(chan error, 1)
		go func() { errChan <- a.metrics.Start() }()
		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return a.metrics.Shutdown(shutdownCtx)
		}
	})

	err := group.Wait()
	a.closeBackends()
	return err
}

func (a *App) closeBackends() {
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.log.Error("failed to close database pool", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("failed to close cache store", "error", err)
		}
	}
	if closer, ok := a.limiter.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Error("failed to close rate limiter", "error", err)
		}
	}
}
