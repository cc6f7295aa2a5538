// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	ErrBrowserNotFound = errors.New("chrome browser not found")
	ErrTimeout         = errors.New("request timeout")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrPoolClosed      = errors.New("browser pool is closed")
	ErrEmptyName       = errors.New("name is required")
	ErrOutOfRange      = errors.New("value out of range")
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeTimeout       ErrorCode = "TIMEOUT"
	ErrCodeFetch         ErrorCode = "FETCH_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodePersistence   ErrorCode = "PERSISTENCE"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION"
	ErrCodeParseError    ErrorCode = "PARSE_ERROR"
)

// EngineError wraps errors with additional context
type EngineError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewEngineError creates a new EngineError
func NewEngineError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *EngineError) WithRetry() *EngineError {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	e.Details[key] = value
	return e
}

// FetchError is a transport, timeout or HTTP-layer failure for one URL.
// It is recorded per URL and never aborts a run.
func FetchError(url string, err error) *EngineError {
	return NewEngineError(ErrCodeFetch, "fetch failed", err).
		WithRetry().
		WithDetail("url", url)
}

// ValidationError is a permanent schema rejection of an extracted record,
// naming the offending field.
func ValidationError(field string, err error) *EngineError {
	return NewEngineError(ErrCodeValidation, field, err)
}

// PersistenceError is a sink failure. It propagates to the caller of a run.
func PersistenceError(message string, err error) *EngineError {
	return NewEngineError(ErrCodePersistence, message, err)
}

// ConfigurationError is a malformed invocation, raised before any network activity.
func ConfigurationError(message string) *EngineError {
	return NewEngineError(ErrCodeConfiguration, message, nil)
}

// NotFoundError reports that a named input such as a checkpoint or export
// file does not exist.
func NotFoundError(what string, err error) *EngineError {
	return NewEngineError(ErrCodeNotFound, what+" not found", err)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, &EngineError{Code: ErrCodeNotFound})
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, &EngineError{Code: ErrCodeConfiguration})
}

// IsPersistence reports whether err is a persistence error.
func IsPersistence(err error) bool {
	return errors.Is(err, &EngineError{Code: ErrCodePersistence})
}
