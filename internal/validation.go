package internal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// InputValidator validates names, sources and identities handed to the store and the renderer.
// Diagram syntax is never inspected.
type InputValidator struct {
	maxNameLength   int
	maxSourceLength int
	maxTargetIDLen  int
	targetIDPattern *regexp.Regexp
	maxTTL          time.Duration
}

// NewInputValidator creates a new input validator with default settings
func NewInputValidator() *InputValidator {
	return &InputValidator{
		maxNameLength:   100,
		maxSourceLength: 1024 * 1024, // 1MB
		maxTargetIDLen:  128,
		targetIDPattern: regexp.MustCompile(`^[A-Za-z][\w\-:.]*$`),
		maxTTL:          365 * 24 * time.Hour,
	}
}

// ValidateName validates a diagram name and returns it trimmed.
// Encoding for key use is left to the KeyGenerator.
func (v *InputValidator) ValidateName(name, fieldName string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError(fmt.Sprintf("%s cannot be empty", fieldName), nil)
	}

	if len(name) > v.maxNameLength {
		return "", NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d characters", fieldName, v.maxNameLength), nil)
	}

	if !utf8.ValidString(name) {
		return "", NewValidationError(fmt.Sprintf("%s contains invalid UTF-8 characters", fieldName), nil)
	}

	for i, r := range name {
		if unicode.IsControl(r) {
			return "", NewValidationError(fmt.Sprintf("%s contains control character at position %d", fieldName, i), nil)
		}
	}

	if strings.Contains(name, "..") {
		return "", NewValidationError(fmt.Sprintf("%s contains path traversal sequence", fieldName), nil)
	}

	return name, nil
}

// ValidateSource validates diagram source text before it is stored.
// Line structure, including literal "\n" escapes, is preserved.
func (v *InputValidator) ValidateSource(source, fieldName string) error {
	if strings.TrimSpace(source) == "" {
		return NewValidationError(fmt.Sprintf("%s cannot be empty", fieldName), nil)
	}

	if len(source) > v.maxSourceLength {
		return NewValidationError(fmt.Sprintf("%s exceeds maximum length of %d bytes", fieldName, v.maxSourceLength), nil)
	}

	if !utf8.ValidString(source) {
		return NewValidationError(fmt.Sprintf("%s contains invalid UTF-8 characters", fieldName), nil)
	}

	if strings.ContainsRune(source, 0) {
		return NewValidationError(fmt.Sprintf("%s contains null bytes", fieldName), nil)
	}

	return nil
}

// ValidateTargetID validates a DOM mount identity handed to the render engine
func (v *InputValidator) ValidateTargetID(id string) error {
	if id == "" {
		return NewValidationError("target id cannot be empty", nil)
	}

	if len(id) > v.maxTargetIDLen {
		return NewValidationError(fmt.Sprintf("target id exceeds maximum length of %d characters", v.maxTargetIDLen), nil)
	}

	if !v.targetIDPattern.MatchString(id) {
		return NewValidationError(fmt.Sprintf("target id %q is not a valid element id", id), nil)
	}

	return nil
}

// ValidateContext validates context for timeout and cancellation
func (v *InputValidator) ValidateContext(ctx context.Context) error {
	if ctx == nil {
		return NewValidationError("context cannot be nil", nil)
	}

	select {
	case <-ctx.Done():
		return NewValidationError("context is already cancelled", ctx.Err())
	default:
		return nil
	}
}

// ValidateTTL validates time-to-live duration
func (v *InputValidator) ValidateTTL(ttl time.Duration) error {
	if ttl < 0 {
		return NewValidationError("TTL cannot be negative", nil)
	}

	if ttl > v.maxTTL {
		return NewValidationError(fmt.Sprintf("TTL exceeds maximum allowed duration of %v", v.maxTTL), nil)
	}

	return nil
}
