package config

// Kind enumerates the value types a manifest field can coerce to.
type Kind int

// Field kind constants
const (
	// KindString passes values through unchanged, including empty strings
	KindString Kind = iota
	// KindInt parses values as base-10 integers
	KindInt
	// KindFloat parses values as floating point numbers
	KindFloat
	// KindBool accepts true/false/1/0, case-insensitive
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// FieldSpec declares one expected configuration key: its type, whether the
// service can boot without it, and the fallback applied when the manifest
// omits the key or it resolves to empty. Required fields never fall back.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Required bool
	Default  string
	// Secret marks values masked by Config.Redacted and `config show`.
	Secret bool
}

// ServiceFields returns the closed field set of the service manifest.
// Defaults mirror the development values the service historically shipped
// with; production deployments override them through the manifest and
// environment.
func ServiceFields() []FieldSpec {
	return []FieldSpec{
		{Name: "HOST", Kind: KindString, Default: "0.0.0.0"},
		{Name: "PORT", Kind: KindInt, Default: "8000"},
		{Name: "DEBUG", Kind: KindBool, Default: "false"},
		{Name: "SECRET_KEY", Kind: KindString, Required: true, Secret: true},
		{Name: "ALLOWED_HOSTS", Kind: KindString, Default: "*"},

		{Name: "DB_TYPE", Kind: KindString, Default: "postgres"},
		{Name: "DB_NAME", Kind: KindString, Default: "ext_service"},
		{Name: "DB_USER", Kind: KindString, Default: "postgres"},
		{Name: "DB_PASSWORD", Kind: KindString, Default: "postgres", Secret: true},
		{Name: "DB_HOST", Kind: KindString, Default: "localhost"},
		{Name: "DB_PORT", Kind: KindInt, Default: "5432"},
		{Name: "DB_MAX_CONNECTIONS", Kind: KindInt, Default: "10"},
		{Name: "DB_STALE_TIMEOUT", Kind: KindInt, Default: "300"},

		{Name: "REDIS_URL", Kind: KindString, Default: "redis://localhost:6379/0"},
		{Name: "REDIS_POOL_SIZE", Kind: KindInt, Default: "10"},

		{Name: "JWT_SECRET", Kind: KindString, Secret: true},
		{Name: "JWT_ALGORITHM", Kind: KindString, Default: "HS256"},
		{Name: "JWT_EXPIRATION", Kind: KindInt, Default: "3600"},

		{Name: "LOG_LEVEL", Kind: KindString, Default: "info"},
		{Name: "LOG_FORMAT", Kind: KindString, Default: "json"},
		{Name: "LOG_FILE", Kind: KindString},

		{Name: "RATE_LIMIT_ENABLED", Kind: KindBool, Default: "true"},
		{Name: "RATE_LIMIT_DEFAULT", Kind: KindInt, Default: "100"},

		{Name: "CACHE_ENABLED", Kind: KindBool, Default: "true"},
		{Name: "CACHE_DEFAULT_TIMEOUT", Kind: KindInt, Default: "300"},

		{Name: "METRICS_PORT", Kind: KindInt, Default: "8001"},

		{Name: "SENTRY_DSN", Kind: KindString, Secret: true},
		{Name: "SENTRY_ENVIRONMENT", Kind: KindString, Default: "production"},
		{Name: "SENTRY_TRACES_SAMPLE_RATE", Kind: KindFloat, Default: "0.1"},

		{Name: "API_TITLE", Kind: KindString, Default: "Sample API"},
		{Name: "API_VERSION", Kind: KindString, Default: "1.0.0"},
		{Name: "API_DESCRIPTION", Kind: KindString},
	}
}
