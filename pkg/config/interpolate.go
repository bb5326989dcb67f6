package config

import (
	"os"
	"regexp"
	"sort"
	"strings"
)

// Environment is a point-in-time view of the process environment. Lookups
// must distinguish unset variables from variables set to the empty string,
// although interpolation treats both as absent.
type Environment func(name string) (string, bool)

// OSEnvironment returns the live process environment.
func OSEnvironment() Environment {
	return os.LookupEnv
}

// MapEnvironment returns an Environment backed by a fixed map, useful for
// tests and for resolving against a captured snapshot.
func MapEnvironment(vars map[string]string) Environment {
	return func(name string) (string, bool) {
		value, ok := vars[name]
		return value, ok
	}
}

// expressionPattern matches a whole-value interpolation expression:
// ${NAME} or ${NAME:-default}. Values that merely contain an expression are
// not substituted; the manifest format quotes expressions as full values.
var expressionPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}$`)

// InterpolationError indicates a malformed expression in strict mode. In
// normal mode malformed expressions pass through verbatim.
type InterpolationError struct {
	Key   string
	Value string
}

func (e *InterpolationError) Error() string {
	return "config: key " + e.Key + ": malformed interpolation expression " + e.Value
}

// InterpolationReport collects the non-value outcomes of one interpolation
// pass: unset references without defaults and malformed expressions.
type InterpolationReport struct {
	Warnings  []InterpolationWarning
	Malformed []*InterpolationError
}

// Interpolate substitutes every ${NAME} / ${NAME:-default} value in the
// manifest against the given environment. A set, non-empty variable wins;
// otherwise the literal default applies; otherwise the value becomes the
// empty string and a warning is recorded. Values that are not expressions
// pass through unchanged, which also makes the pass idempotent. The input
// manifest is not modified.
func Interpolate(manifest RawManifest, env Environment) (RawManifest, InterpolationReport) {
	out := make(RawManifest, len(manifest))
	var report InterpolationReport

	keys := make([]string, 0, len(manifest))
	for key := range manifest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := manifest[key]
		resolved, warning, malformed := interpolateValue(key, value, env)
		out[key] = resolved
		if warning != nil {
			report.Warnings = append(report.Warnings, *warning)
		}
		if malformed != nil {
			report.Malformed = append(report.Malformed, malformed)
		}
	}
	return out, report
}

func interpolateValue(key, value string, env Environment) (string, *InterpolationWarning, *InterpolationError) {
	if !looksLikeExpression(value) {
		return value, nil, nil
	}

	match := expressionPattern.FindStringSubmatch(value)
	if match == nil || strings.Contains(match[3], ":-") {
		// Preserved verbatim; strict mode turns this into a fatal error.
		return value, nil, &InterpolationError{Key: key, Value: value}
	}

	name := match[1]
	hasDefault := match[2] != ""

	if envValue, ok := env(name); ok && envValue != "" {
		return envValue, nil, nil
	}
	if hasDefault {
		return match[3], nil, nil
	}
	return "", &InterpolationWarning{Key: key, Variable: name}, nil
}

// looksLikeExpression is intentionally loose: anything starting with "${"
// is treated as an attempted expression so that unterminated ones are
// caught in strict mode instead of silently shipping as literal values.
func looksLikeExpression(value string) bool {
	return strings.HasPrefix(value, "${")
}
