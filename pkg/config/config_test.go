package config

import (
	"strings"
	"testing"
	"time"
)

func resolvedForView(t *testing.T, env map[string]string) *ResolvedConfig {
	t.Helper()
	resolved, err := resolveTestManifest(t, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resolved
}

func TestFromResolvedTypedView(t *testing.T) {
	resolved := resolvedForView(t, map[string]string{
		"SECRET_KEY":    "super-secret",
		"ALLOWED_HOSTS": "api.example.com, admin.example.com",
	})
	cfg := FromResolved(resolved)

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if len(cfg.Server.AllowedHosts) != 2 || cfg.Server.AllowedHosts[0] != "api.example.com" {
		t.Errorf("expected trimmed host list, got %v", cfg.Server.AllowedHosts)
	}
	if cfg.Database.StaleTimeout != 300*time.Second {
		t.Errorf("expected stale timeout 300s, got %v", cfg.Database.StaleTimeout)
	}
	if cfg.JWT.Expiration != time.Hour {
		t.Errorf("expected JWT expiration 1h, got %v", cfg.JWT.Expiration)
	}
	if cfg.RateLimit.RequestsPerMinute != 60 {
		t.Errorf("expected 60 requests per minute, got %d", cfg.RateLimit.RequestsPerMinute)
	}
	if cfg.Cache.DefaultTimeout != 5*time.Minute {
		t.Errorf("expected cache timeout 5m, got %v", cfg.Cache.DefaultTimeout)
	}
	if cfg.Metrics.Port != 8001 {
		t.Errorf("expected metrics port 8001, got %d", cfg.Metrics.Port)
	}
}

func TestJWTSecretFallsBackToSecretKey(t *testing.T) {
	resolved := resolvedForView(t, map[string]string{"SECRET_KEY": "super-secret"})
	cfg := FromResolved(resolved)
	if cfg.JWT.Secret != "super-secret" {
		t.Errorf("expected JWT secret fallback to SECRET_KEY, got %q", cfg.JWT.Secret)
	}

	resolved = resolvedForView(t, map[string]string{
		"SECRET_KEY": "super-secret",
		"JWT_SECRET": "token-secret",
	})
	cfg = FromResolved(resolved)
	if cfg.JWT.Secret != "token-secret" {
		t.Errorf("expected explicit JWT secret, got %q", cfg.JWT.Secret)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		return FromResolved(resolvedForView(t, map[string]string{"SECRET_KEY": "super-secret"}))
	}

	if err := valid(t).Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad db type", func(c *Config) { c.Database.Type = "oracle" }, "DB_TYPE"},
		{"bad jwt algorithm", func(c *Config) { c.JWT.Algorithm = "RS256" }, "JWT_ALGORITHM"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "PORT"},
		{"port collision", func(c *Config) { c.Metrics.Port = c.Server.Port }, "METRICS_PORT"},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "RATE_LIMIT_DEFAULT"},
		{"sample rate out of range", func(c *Config) { c.Sentry.TracesSampleRate = 1.5 }, "SENTRY_TRACES_SAMPLE_RATE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateCollectsAll(t *testing.T) {
	cfg := FromResolved(resolvedForView(t, map[string]string{"SECRET_KEY": "super-secret"}))
	cfg.Database.Type = "oracle"
	cfg.JWT.Algorithm = "none"
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	cfgErr, ok := err.(*ConfigurationError)
	if !ok {
		t.Fatalf("expected ConfigurationError, got %T", err)
	}
	if len(cfgErr.Errors) != 3 {
		t.Errorf("expected 3 collected errors, got %d", len(cfgErr.Errors))
	}
}

func TestRedactedMasksSecrets(t *testing.T) {
	cfg := FromResolved(resolvedForView(t, map[string]string{
		"SECRET_KEY": "super-secret",
		"SENTRY_DSN": "https://key@sentry.example.com/1",
	}))

	redacted := cfg.Redacted()
	for _, secret := range []string{"super-secret", "https://key@sentry.example.com/1"} {
		if strings.Contains(redacted, secret) {
			t.Errorf("redacted output leaks %q", secret)
		}
	}
	if !strings.Contains(redacted, "***") {
		t.Error("expected masked markers in redacted output")
	}

	// Plain String keeps values for explicit debugging paths.
	if !strings.Contains(cfg.String(), "super-secret") {
		t.Error("String() should include raw values")
	}
}
