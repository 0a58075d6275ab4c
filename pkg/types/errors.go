package types

import (
	"errors"
	"fmt"
	"strings"
)

// Store operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
	ErrInvalidName = errors.New("invalid name")
	ErrDuplicate   = errors.New("duplicate name")
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Metadata and binding errors.
var (
	ErrInvalidKind       = errors.New("invalid field kind")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrReadOnly          = errors.New("field is read-only")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNoCurrentEntity   = errors.New("no current entity")
	ErrSaveVetoed        = errors.New("save vetoed")
)

// Error classes surfaced by the builder and the save cycle. Callers branch on
// these with errors.Is.
var (
	ErrConfiguration           = errors.New("screen configuration error")
	ErrDataProviderUnavailable = errors.New("data provider unavailable")
	ErrValidation              = errors.New("validation failed")
	ErrConcurrencyConflict     = errors.New("entity was changed by someone else")
	ErrUnexpected              = errors.New("unexpected failure")
)

// ConfigurationError reports a defect in a screen definition. It never
// invalidates sections that were already built.
type ConfigurationError struct {
	Screen   string // Screen name, when known.
	Section  string // Enclosing section name, empty when there is none.
	Order    int    // Line order, 0 when not tied to a line.
	Property string // Offending property path.
	Reason   string
	Err      error // Optional underlying cause.
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Screen != "" {
		fmt.Fprintf(&b, " in screen %q", e.Screen)
	}
	if e.Section != "" {
		fmt.Fprintf(&b, " section %q", e.Section)
	}
	if e.Order > 0 {
		fmt.Fprintf(&b, " line %d", e.Order)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, " property %q", e.Property)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrConfiguration and the underlying cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// FieldError is one rejected widget value.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError collects the field errors that aborted a flush.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Path+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
