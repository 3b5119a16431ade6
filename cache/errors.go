package cache

import "github.com/kengibson1111/go-diagram-render-cache/internal"

// CacheError is the typed error returned by every package in this module.
type CacheError = internal.CacheError

// CacheErrorType classifies a CacheError.
type CacheErrorType = internal.ErrorType

const (
	CacheErrorTypeConnection    = internal.ErrorTypeConnection
	CacheErrorTypeKeyInvalid    = internal.ErrorTypeKeyInvalid
	CacheErrorTypeNotFound      = internal.ErrorTypeNotFound
	CacheErrorTypeSerialization = internal.ErrorTypeSerialization
	CacheErrorTypeTimeout       = internal.ErrorTypeTimeout
	CacheErrorTypeCapacity      = internal.ErrorTypeCapacity
	CacheErrorTypeValidation    = internal.ErrorTypeValidation
	CacheErrorTypeEngineInit    = internal.ErrorTypeEngineInit
	CacheErrorTypeRender        = internal.ErrorTypeRender
	CacheErrorTypeTypeMismatch  = internal.ErrorTypeTypeMismatch
)

// IsConnectionError checks if the error is a connection error
func IsConnectionError(err error) bool {
	return internal.IsConnectionError(err)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return internal.IsNotFoundError(err)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return internal.IsValidationError(err)
}

// IsEngineInitError checks if the error is an engine initialization failure
func IsEngineInitError(err error) bool {
	return internal.IsEngineInitError(err)
}

// IsRenderError checks if the error is a render failure
func IsRenderError(err error) bool {
	return internal.IsRenderError(err)
}
