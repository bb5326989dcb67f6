// Package db provides SQL database connectivity with connection pooling
// configured from the service configuration.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver

	"github.com/extlabs/ext/pkg/config"
	"github.com/extlabs/ext/pkg/observability/logger"
)

// Pool wraps a *sql.DB with health checking and graceful shutdown.
type Pool struct {
	db  *sql.DB
	log logger.Logger
}

// Open connects to the database described by cfg and configures the
// connection pool. The stale timeout bounds how long idle connections are
// kept before being recycled.
func Open(cfg config.DatabaseConfig, log logger.Logger) (*Pool, error) {
	driver, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxIdleTime(cfg.StaleTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		"type", cfg.Type,
		"host", cfg.Host,
		"database", cfg.Name,
		"max_connections", cfg.MaxConnections,
		"stale_timeout", cfg.StaleTimeout,
	)

	return &Pool{db: db, log: log}, nil
}

// buildDSN derives the driver name and connection string for the configured
// database type.
func buildDSN(cfg config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Type {
	case config.DatabaseTypePostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:   "/" + cfg.Name,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return "postgres", u.String(), nil
	case config.DatabaseTypeMySQL:
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name), nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// DB returns the underlying *sql.DB for direct access.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// Ping verifies the database connection is alive.
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// HealthCheck verifies the connection is healthy within a short timeout.
func (p *Pool) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := p.db.PingContext(ctx); err != nil {
		p.log.Error("database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close gracefully closes the connection pool.
func (p *Pool) Close() error {
	p.log.Info("closing database connection")
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

// WithTransaction executes fn within a transaction, rolling back on error
// or panic and committing otherwise.
func (p *Pool) WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				p.log.Error("failed to rollback transaction after panic", "panic", r, "rollback_error", rbErr)
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.log.Error("failed to rollback transaction", "original_error", err, "rollback_error", rbErr)
			return fmt.Errorf("failed to rollback transaction: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// newPoolFromDB wraps an existing handle, used by tests.
func newPoolFromDB(db *sql.DB, log logger.Logger) *Pool {
	return &Pool{db: db, log: log}
}
