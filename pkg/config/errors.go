package config

import (
	"fmt"
	"strings"
)

// ParseError indicates the manifest document itself could not be read or is
// not a flat key/value document. It is always fatal.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("config: failed to parse manifest %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("config: failed to parse manifest: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CoercionError indicates a resolved value could not be converted to the
// type declared by its FieldSpec.
type CoercionError struct {
	Key   string
	Kind  Kind
	Value string
	Err   error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("config: key %s: cannot coerce %q to %s: %v", e.Key, e.Value, e.Kind, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// MissingRequiredFieldError indicates a required key resolved to an empty
// value with no default to fall back on.
type MissingRequiredFieldError struct {
	Key string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("config: required key %s is missing or empty", e.Key)
}

// InterpolationWarning records an expression that referenced an unset (or
// empty) environment variable without a default. It is not fatal on its own:
// the value resolves to the empty string and required-field validation
// catches the cases that matter. Strict mode escalates warnings to errors.
type InterpolationWarning struct {
	Key      string
	Variable string
}

func (w InterpolationWarning) String() string {
	return fmt.Sprintf("key %s references unset variable %s with no default", w.Key, w.Variable)
}

// ConfigurationError aggregates every problem found during one resolution
// pass. The process must not continue past startup while it is non-empty.
type ConfigurationError struct {
	Errors []error
}

func (e *ConfigurationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "config: %d problems found:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is / errors.As.
func (e *ConfigurationError) Unwrap() []error { return e.Errors }

func (e *ConfigurationError) append(errs ...error) {
	e.Errors = append(e.Errors, errs...)
}

func (e *ConfigurationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
