package internal

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of cache error
type ErrorType int

const (
	// ErrorTypeConnection indicates a Redis connection error
	ErrorTypeConnection ErrorType = iota
	// ErrorTypeKeyInvalid indicates an invalid cache key
	ErrorTypeKeyInvalid
	// ErrorTypeNotFound indicates a cache miss or key not found
	ErrorTypeNotFound
	// ErrorTypeSerialization indicates JSON marshaling/unmarshaling error
	ErrorTypeSerialization
	// ErrorTypeTimeout indicates a timeout during a cache or store operation
	ErrorTypeTimeout
	// ErrorTypeCapacity indicates capacity or memory issues
	ErrorTypeCapacity
	// ErrorTypeValidation indicates input validation failure
	ErrorTypeValidation
	// ErrorTypeEngineInit indicates the render engine could not be loaded or initialized
	ErrorTypeEngineInit
	// ErrorTypeRender indicates the render engine rejected a diagram source
	ErrorTypeRender
	// ErrorTypeTypeMismatch indicates a cached value does not have the requested type
	ErrorTypeTypeMismatch
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeConnection:
		return "CONNECTION"
	case ErrorTypeKeyInvalid:
		return "KEY_INVALID"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeSerialization:
		return "SERIALIZATION"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeCapacity:
		return "CAPACITY"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeEngineInit:
		return "ENGINE_INIT"
	case ErrorTypeRender:
		return "RENDER"
	case ErrorTypeTypeMismatch:
		return "TYPE_MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// CacheError represents a cache-specific error with context
type CacheError struct {
	Type    ErrorType
	Key     string
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CacheError) Error() string {
	msg := fmt.Sprintf("cache error [%s]: %s", e.Type.String(), e.Message)
	if e.Key != "" {
		msg = fmt.Sprintf("cache error [%s] for key '%s': %s", e.Type.String(), e.Key, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *CacheError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error type
func (e *CacheError) Is(target error) bool {
	if t, ok := target.(*CacheError); ok {
		return e.Type == t.Type
	}
	return false
}

// NewCacheError creates a new CacheError
func NewCacheError(errType ErrorType, key, message string, cause error) *CacheError {
	return &CacheError{
		Type:    errType,
		Key:     key,
		Message: message,
		Cause:   cause,
	}
}

// NewConnectionError creates a connection-specific cache error
func NewConnectionError(message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeConnection, "", message, cause)
}

// NewKeyInvalidError creates a key validation error
func NewKeyInvalidError(key, message string) *CacheError {
	return NewCacheError(ErrorTypeKeyInvalid, key, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(key string) *CacheError {
	return NewCacheError(ErrorTypeNotFound, key, "key not found in cache", nil)
}

// NewSerializationError creates a serialization error
func NewSerializationError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeSerialization, key, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeTimeout, key, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeValidation, "", message, cause)
}

// NewEngineInitError creates an engine initialization error for the bootstrap key
func NewEngineInitError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeEngineInit, key, message, cause)
}

// NewRenderError creates a render error for an artifact key
func NewRenderError(key, message string, cause error) *CacheError {
	return NewCacheError(ErrorTypeRender, key, message, cause)
}

// NewTypeMismatchError creates an error for a cached value of an unexpected type
func NewTypeMismatchError(key, want string, got any) *CacheError {
	return NewCacheError(ErrorTypeTypeMismatch, key, fmt.Sprintf("cached value has type %T, want %s", got, want), nil)
}

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return hasType(err, ErrorTypeConnection)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsEngineInitError checks if the error is an engine initialization error
func IsEngineInitError(err error) bool {
	return hasType(err, ErrorTypeEngineInit)
}

// IsRenderError checks if the error is a render error
func IsRenderError(err error) bool {
	return hasType(err, ErrorTypeRender)
}

// hasType walks the error chain, so joined and wrapped errors are classified too.
func hasType(err error, errType ErrorType) bool {
	return errors.Is(err, &CacheError{Type: errType})
}
