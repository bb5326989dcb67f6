package config

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

type typedValue struct {
	kind Kind
	str  string
	num  int
	flt  float64
	b    bool
}

// ResolvedConfig is the immutable, fully-typed configuration snapshot
// produced by one resolution pass. It is constructed once on the startup
// path and safe to share across goroutines without synchronization.
type ResolvedConfig struct {
	values   map[string]typedValue
	warnings []InterpolationWarning
}

// String returns the string value for key, or "" when the key is absent or
// holds a different kind.
func (c *ResolvedConfig) String(key string) string {
	if v, ok := c.values[key]; ok && v.kind == KindString {
		return v.str
	}
	return ""
}

// Int returns the integer value for key, or 0 when absent or mistyped.
func (c *ResolvedConfig) Int(key string) int {
	if v, ok := c.values[key]; ok && v.kind == KindInt {
		return v.num
	}
	return 0
}

// Float returns the float value for key, or 0 when absent or mistyped.
func (c *ResolvedConfig) Float(key string) float64 {
	if v, ok := c.values[key]; ok && v.kind == KindFloat {
		return v.flt
	}
	return 0
}

// Bool returns the boolean value for key, or false when absent or mistyped.
func (c *ResolvedConfig) Bool(key string) bool {
	if v, ok := c.values[key]; ok && v.kind == KindBool {
		return v.b
	}
	return false
}

// Has reports whether key is present in the snapshot.
func (c *ResolvedConfig) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns the sorted key set of the snapshot.
func (c *ResolvedConfig) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Warnings returns the interpolation warnings recorded while resolving.
func (c *ResolvedConfig) Warnings() []InterpolationWarning {
	out := make([]InterpolationWarning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Equal reports field-wise equality of two snapshots. Two resolutions of
// identical inputs always compare equal.
func (c *ResolvedConfig) Equal(other *ResolvedConfig) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.values) != len(other.values) {
		return false
	}
	for key, v := range c.values {
		if o, ok := other.values[key]; !ok || o != v {
			return false
		}
	}
	return true
}

// Coerce converts an interpolated manifest into a typed snapshot according
// to the field specs. All problems across all fields are collected so a
// single failing load reports everything at once. Manifest keys outside the
// spec table are carried through as strings, matching the historical
// behavior of overlaying extra manifest keys onto the settings object.
func Coerce(manifest RawManifest, specs []FieldSpec) (*ResolvedConfig, error) {
	agg := &ConfigurationError{}
	values := make(map[string]typedValue, len(specs))
	known := make(map[string]struct{}, len(specs))

	for _, spec := range specs {
		known[spec.Name] = struct{}{}

		value := manifest[spec.Name]
		if value == "" && !spec.Required {
			value = spec.Default
		}
		if value == "" {
			if spec.Required {
				agg.append(&MissingRequiredFieldError{Key: spec.Name})
				continue
			}
			values[spec.Name] = zeroValue(spec.Kind)
			continue
		}

		typed, err := coerceValue(spec, value)
		if err != nil {
			agg.append(err)
			continue
		}
		values[spec.Name] = typed
	}

	extras := make([]string, 0)
	for key := range manifest {
		if _, ok := known[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	for _, key := range extras {
		values[key] = typedValue{kind: KindString, str: manifest[key]}
	}

	if err := agg.orNil(); err != nil {
		return nil, err
	}
	return &ResolvedConfig{values: values}, nil
}

func coerceValue(spec FieldSpec, value string) (typedValue, error) {
	switch spec.Kind {
	case KindString:
		return typedValue{kind: KindString, str: value}, nil
	case KindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return typedValue{}, &CoercionError{Key: spec.Name, Kind: spec.Kind, Value: value, Err: err}
		}
		return typedValue{kind: KindInt, num: n}, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return typedValue{}, &CoercionError{Key: spec.Name, Kind: spec.Kind, Value: value, Err: err}
		}
		return typedValue{kind: KindFloat, flt: f}, nil
	case KindBool:
		b, err := parseBool(value)
		if err != nil {
			return typedValue{}, &CoercionError{Key: spec.Name, Kind: spec.Kind, Value: value, Err: err}
		}
		return typedValue{kind: KindBool, b: b}, nil
	default:
		return typedValue{}, &CoercionError{Key: spec.Name, Kind: spec.Kind, Value: value, Err: strconv.ErrSyntax}
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, strconv.ErrSyntax
	}
}

func zeroValue(kind Kind) typedValue {
	return typedValue{kind: kind}
}

// Resolver composes manifest loading, interpolation, and coercion into one
// startup-path pipeline. It runs exactly once per process start; its output
// is frozen afterwards.
type Resolver struct {
	specs  []FieldSpec
	env    Environment
	strict bool
}

// NewResolver creates a Resolver over the service field set and the live
// process environment.
func NewResolver() *Resolver {
	return &Resolver{
		specs: ServiceFields(),
		env:   OSEnvironment(),
	}
}

// WithEnvironment substitutes the environment snapshot used for
// interpolation.
func (r *Resolver) WithEnvironment(env Environment) *Resolver {
	r.env = env
	return r
}

// WithSpecs substitutes the field spec table.
func (r *Resolver) WithSpecs(specs []FieldSpec) *Resolver {
	r.specs = specs
	return r
}

// WithStrict toggles strict interpolation: malformed expressions become
// fatal instead of passing through verbatim.
func (r *Resolver) WithStrict(strict bool) *Resolver {
	r.strict = strict
	return r
}

// Resolve loads, interpolates, and coerces the manifest at path. On failure
// it returns a ConfigurationError aggregating every problem found.
func (r *Resolver) Resolve(path string) (*ResolvedConfig, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return nil, &ConfigurationError{Errors: []error{err}}
	}
	return r.ResolveManifest(manifest)
}

// ResolveBytes resolves an in-memory yaml manifest.
func (r *Resolver) ResolveBytes(data []byte) (*ResolvedConfig, error) {
	manifest, err := LoadManifestBytes(data)
	if err != nil {
		return nil, &ConfigurationError{Errors: []error{err}}
	}
	return r.ResolveManifest(manifest)
}

// ResolveManifest interpolates and coerces an already-parsed manifest.
func (r *Resolver) ResolveManifest(manifest RawManifest) (*ResolvedConfig, error) {
	interpolated, report := Interpolate(manifest, r.env)

	agg := &ConfigurationError{}
	if r.strict {
		for _, malformed := range report.Malformed {
			agg.append(malformed)
		}
	}

	resolved, err := Coerce(interpolated, r.specs)
	if err != nil {
		var coerceErr *ConfigurationError
		if errors.As(err, &coerceErr) {
			agg.append(coerceErr.Errors...)
		} else {
			agg.append(err)
		}
	}

	if err := agg.orNil(); err != nil {
		return nil, err
	}
	resolved.warnings = report.Warnings
	return resolved, nil
}
