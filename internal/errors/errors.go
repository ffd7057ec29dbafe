// Package errors defines the typed failures that halt certificate generation.
// Everything else is reported, not raised.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// GenerationError is a failure that stops generation of one document.
type GenerationError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	Keys       []string  `json:"keys,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	Timestamp  time.Time `json:"timestamp"`

	cause error
}

// ErrorType classifies generation failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeMissingCanonicalKeys
	ErrorTypeUnresolvedCategories
	ErrorTypeGeometryFailure
	ErrorTypeDocument
	ErrorTypeInvalidInput
	ErrorTypeSecurityRestriction
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeMissingCanonicalKeys:
		return "MISSING_CANONICAL_KEYS"
	case ErrorTypeUnresolvedCategories:
		return "UNRESOLVED_CATEGORIES"
	case ErrorTypeGeometryFailure:
		return "GEOMETRY_FAILURE"
	case ErrorTypeDocument:
		return "DOCUMENT"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeSecurityRestriction:
		return "SECURITY_RESTRICTION"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (et ErrorType) MarshalText() ([]byte, error) { return []byte(et.String()), nil }

// Error implements the error interface
func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, ": %s", e.Context)
	}
	if len(e.Keys) > 0 {
		fmt.Fprintf(&b, " (keys: %s)", strings.Join(e.Keys, ", "))
	}
	if len(e.Categories) > 0 {
		fmt.Fprintf(&b, " (categories: %s)", strings.Join(e.Categories, ", "))
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the wrapped cause, if any.
func (e *GenerationError) Unwrap() error { return e.cause }

// Is matches any GenerationError of the same type, so callers can test with
// errors.Is(err, errors.New(errors.ErrorTypeGeometryFailure, "")).
func (e *GenerationError) Is(target error) bool {
	t, ok := target.(*GenerationError)
	return ok && t.Type == e.Type
}

// New creates a GenerationError
func New(errorType ErrorType, message string) *GenerationError {
	return &GenerationError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps err as a GenerationError of the given type
func Wrap(errorType ErrorType, message string, err error) *GenerationError {
	e := New(errorType, message)
	e.cause = err
	return e
}

// MissingKeys reports required canonical keys with no field.
func MissingKeys(keys []string) *GenerationError {
	e := New(ErrorTypeMissingCanonicalKeys, "required canonical keys are not mapped")
	e.Keys = keys
	return e
}

// UnresolvedCategories reports categories with no control and no geometry.
func UnresolvedCategories(categories []string) *GenerationError {
	e := New(ErrorTypeUnresolvedCategories, "crossout categories cannot be resolved")
	e.Categories = categories
	return e
}

// WithContext adds context to an existing GenerationError
func (e *GenerationError) WithContext(context string) *GenerationError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing GenerationError
func (e *GenerationError) WithFile(filePath string) *GenerationError {
	e.FilePath = filePath
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrMissingKeys          = New(ErrorTypeMissingCanonicalKeys, "missing canonical keys")
	ErrUnresolvedCategories = New(ErrorTypeUnresolvedCategories, "unresolved categories")
	ErrGeometry             = New(ErrorTypeGeometryFailure, "geometry failure")
	ErrDocument             = New(ErrorTypeDocument, "document error")
	ErrInvalidInput         = New(ErrorTypeInvalidInput, "invalid input")
	ErrSecurity             = New(ErrorTypeSecurityRestriction, "security restriction")
)

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	for err != nil {
		if ge, ok := err.(*GenerationError); ok {
			return ge.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrorTypeUnknown
}
