package config

import (
	"fmt"
	"strings"
	"time"
)

// Database type constants
const (
	// DatabaseTypePostgres represents PostgreSQL
	DatabaseTypePostgres = "postgres"
	// DatabaseTypeMySQL represents MySQL
	DatabaseTypeMySQL = "mysql"
	// DatabaseTypeSQLite represents embedded SQLite, used for development
	DatabaseTypeSQLite = "sqlite"
)

// Config is the typed view of a ResolvedConfig, grouped by concern. It is
// built once at startup and handed to components explicitly; nothing reads
// configuration through ambient globals.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Metrics   MetricsConfig
	Sentry    SentryConfig
	API       APIConfig
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Host         string
	Port         int
	Debug        bool
	SecretKey    string `redact:"true"`
	AllowedHosts []string
}

// DatabaseConfig configures the relational database pool.
type DatabaseConfig struct {
	Type           string
	Name           string
	User           string
	Password       string `redact:"true"`
	Host           string
	Port           int
	MaxConnections int
	StaleTimeout   time.Duration
}

// RedisConfig configures the shared Redis connection used by the rate
// limiter and the response cache.
type RedisConfig struct {
	URL      string
	PoolSize int
}

// JWTConfig configures HMAC token issuance and verification.
type JWTConfig struct {
	Secret     string `redact:"true"`
	Algorithm  string
	Expiration time.Duration
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// RateLimitConfig configures the request rate limiter.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// CacheConfig configures the HTTP response cache.
type CacheConfig struct {
	Enabled        bool
	DefaultTimeout time.Duration
}

// MetricsConfig configures the Prometheus metrics listener.
type MetricsConfig struct {
	Port int
}

// SentryConfig carries error-reporting settings for deployments that run a
// Sentry relay alongside the service.
type SentryConfig struct {
	DSN              string `redact:"true"`
	Environment      string
	TracesSampleRate float64
}

// APIConfig carries API identity metadata served on the root route.
type APIConfig struct {
	Title       string
	Version     string
	Description string
}

// FromResolved builds the typed view from a resolved snapshot. The JWT
// secret falls back to SECRET_KEY when unset, matching the service's
// historical behavior.
func FromResolved(rc *ResolvedConfig) *Config {
	jwtSecret := rc.String("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = rc.String("SECRET_KEY")
	}

	return &Config{
		Server: ServerConfig{
			Host:         rc.String("HOST"),
			Port:         rc.Int("PORT"),
			Debug:        rc.Bool("DEBUG"),
			SecretKey:    rc.String("SECRET_KEY"),
			AllowedHosts: splitHosts(rc.String("ALLOWED_HOSTS")),
		},
		Database: DatabaseConfig{
			Type:           rc.String("DB_TYPE"),
			Name:           rc.String("DB_NAME"),
			User:           rc.String("DB_USER"),
			Password:       rc.String("DB_PASSWORD"),
			Host:           rc.String("DB_HOST"),
			Port:           rc.Int("DB_PORT"),
			MaxConnections: rc.Int("DB_MAX_CONNECTIONS"),
			StaleTimeout:   time.Duration(rc.Int("DB_STALE_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			URL:      rc.String("REDIS_URL"),
			PoolSize: rc.Int("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			Secret:     jwtSecret,
			Algorithm:  rc.String("JWT_ALGORITHM"),
			Expiration: time.Duration(rc.Int("JWT_EXPIRATION")) * time.Second,
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(rc.String("LOG_LEVEL")),
			Format: strings.ToLower(rc.String("LOG_FORMAT")),
			File:   rc.String("LOG_FILE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           rc.Bool("RATE_LIMIT_ENABLED"),
			RequestsPerMinute: rc.Int("RATE_LIMIT_DEFAULT"),
		},
		Cache: CacheConfig{
			Enabled:        rc.Bool("CACHE_ENABLED"),
			DefaultTimeout: time.Duration(rc.Int("CACHE_DEFAULT_TIMEOUT")) * time.Second,
		},
		Metrics: MetricsConfig{
			Port: rc.Int("METRICS_PORT"),
		},
		Sentry: SentryConfig{
			DSN:              rc.String("SENTRY_DSN"),
			Environment:      rc.String("SENTRY_ENVIRONMENT"),
			TracesSampleRate: rc.Float("SENTRY_TRACES_SAMPLE_RATE"),
		},
		API: APIConfig{
			Title:       rc.String("API_TITLE"),
			Version:     rc.String("API_VERSION"),
			Description: rc.String("API_DESCRIPTION"),
		},
	}
}

// Load resolves the manifest at path against the live environment and
// returns the validated typed view. This is the single entry point the
// startup path uses.
func Load(path string, strict bool) (*Config, *ResolvedConfig, error) {
	resolved, err := NewResolver().WithStrict(strict).Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	cfg := FromResolved(resolved)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, resolved, nil
}

// Validate applies cross-field checks the flat manifest cannot express.
// All problems are collected into one ConfigurationError.
func (c *Config) Validate() error {
	agg := &ConfigurationError{}

	validDBTypes := []string{DatabaseTypePostgres, DatabaseTypeMySQL, DatabaseTypeSQLite}
	if !contains(validDBTypes, strings.ToLower(c.Database.Type)) {
		agg.append(fmt.Errorf("config: invalid DB_TYPE %q (must be one of: %v)", c.Database.Type, validDBTypes))
	}

	validAlgorithms := []string{"HS256", "HS384", "HS512"}
	if !contains(validAlgorithms, strings.ToUpper(c.JWT.Algorithm)) {
		agg.append(fmt.Errorf("config: invalid JWT_ALGORITHM %q (must be one of: %v)", c.JWT.Algorithm, validAlgorithms))
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !contains(validLevels, c.Logging.Level) {
		agg.append(fmt.Errorf("config: invalid LOG_LEVEL %q (must be one of: %v)", c.Logging.Level, validLevels))
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		agg.append(fmt.Errorf("config: invalid LOG_FORMAT %q (must be json or text)", c.Logging.Format))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		agg.append(fmt.Errorf("config: PORT %d out of range", c.Server.Port))
	}
	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		agg.append(fmt.Errorf("config: METRICS_PORT %d out of range", c.Metrics.Port))
	}
	if c.Metrics.Port == c.Server.Port {
		agg.append(fmt.Errorf("config: METRICS_PORT must differ from PORT (both %d)", c.Server.Port))
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		agg.append(fmt.Errorf("config: RATE_LIMIT_DEFAULT must be positive when rate limiting is enabled"))
	}
	if c.Cache.Enabled && c.Cache.DefaultTimeout <= 0 {
		agg.append(fmt.Errorf("config: CACHE_DEFAULT_TIMEOUT must be positive when caching is enabled"))
	}

	if c.Database.MaxConnections <= 0 {
		agg.append(fmt.Errorf("config: DB_MAX_CONNECTIONS must be positive"))
	}
	if c.Redis.PoolSize <= 0 {
		agg.append(fmt.Errorf("config: REDIS_POOL_SIZE must be positive"))
	}

	if c.Sentry.TracesSampleRate < 0 || c.Sentry.TracesSampleRate > 1 {
		agg.append(fmt.Errorf("config: SENTRY_TRACES_SAMPLE_RATE %g out of range [0,1]", c.Sentry.TracesSampleRate))
	}

	return agg.orNil()
}

func splitHosts(raw string) []string {
	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		if host := strings.TrimSpace(part); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
