package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	diagramPrefix  = "/diagrams/mermaid/"
	enginePrefix   = "/engine/"
	artifactPrefix = "/artifacts/"

	maxKeyLength = 250
)

var invalidKeyChars = regexp.MustCompile(`[^\w\-_/.%]`)

// KeyGenerator defines the interface for generating and validating cache keys
type KeyGenerator interface {
	DiagramKey(name string) string
	EngineKey(engineName string) string
	ArtifactKey(source, theme, view string) string
	ValidateKey(key string) error
}

// DefaultKeyGenerator implements the KeyGenerator interface
type DefaultKeyGenerator struct{}

// NewKeyGenerator creates a new DefaultKeyGenerator instance
func NewKeyGenerator() KeyGenerator {
	return &DefaultKeyGenerator{}
}

// DiagramKey generates a store key for a named diagram source
// Format: /diagrams/mermaid/<diagram_name>
func (kg *DefaultKeyGenerator) DiagramKey(name string) string {
	return diagramPrefix + kg.sanitizeName(name)
}

// EngineKey generates the sentinel key under which the render engine itself is memoized
// Format: /engine/<engine_name>
func (kg *DefaultKeyGenerator) EngineKey(engineName string) string {
	return enginePrefix + kg.sanitizeName(engineName)
}

// ArtifactKey generates the key for one rendered artifact.
// Format: /artifacts/<theme>/<view>/<sha256(source)>
//
// The digest covers the raw source text, so two requests map to the same key
// exactly when source, theme and view are all equal.
func (kg *DefaultKeyGenerator) ArtifactKey(source, theme, view string) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s%s/%s/%s", artifactPrefix, kg.sanitizeName(theme), kg.sanitizeName(view), hex.EncodeToString(sum[:]))
}

// ValidateKey validates that a cache key follows the expected format and constraints
func (kg *DefaultKeyGenerator) ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	if !strings.HasPrefix(key, "/") {
		return fmt.Errorf("key must start with '/'")
	}

	for i, r := range key {
		if r < 32 || r == 127 {
			return fmt.Errorf("key contains control character at position %d: %s", i, key)
		}
	}

	// Encoded traversal (%2E%2E) is fine, the raw form is not.
	if strings.Contains(key, "../") || strings.Contains(key, "..\\") || key == ".." || strings.HasSuffix(key, "/..") {
		return fmt.Errorf("key contains path traversal sequence: %s", key)
	}

	if invalidKeyChars.MatchString(key) {
		return fmt.Errorf("key contains invalid characters: %s", key)
	}

	if strings.Contains(key, "//") {
		return fmt.Errorf("key contains double slashes: %s", key)
	}

	if len(key) > maxKeyLength {
		return fmt.Errorf("key exceeds maximum length of %d characters", maxKeyLength)
	}

	switch {
	case strings.HasPrefix(key, diagramPrefix):
		return kg.validateSegments(key, 4, "diagram")
	case strings.HasPrefix(key, enginePrefix):
		return kg.validateSegments(key, 3, "engine")
	case strings.HasPrefix(key, artifactPrefix):
		return kg.validateArtifactKey(key)
	default:
		return fmt.Errorf("key does not match any expected pattern: %s", key)
	}
}

// sanitizeName sanitizes a name for use in cache keys by URL encoding special characters
func (kg *DefaultKeyGenerator) sanitizeName(name string) string {
	if name == "" {
		return ""
	}

	encoded := url.QueryEscape(name)

	encoded = strings.ReplaceAll(encoded, "+", "_")
	encoded = strings.ReplaceAll(encoded, "%20", "_")
	encoded = strings.ReplaceAll(encoded, "%2F", "-")
	encoded = strings.ReplaceAll(encoded, "%5C", "-")

	return encoded
}

// validateSegments checks a fixed-depth key whose last segment is a name
func (kg *DefaultKeyGenerator) validateSegments(key string, want int, kind string) error {
	parts := strings.Split(key, "/")
	if len(parts) != want || parts[0] != "" {
		return fmt.Errorf("invalid %s key format: %s", kind, key)
	}

	if parts[want-1] == "" {
		return fmt.Errorf("%s name cannot be empty in key: %s", kind, key)
	}

	return nil
}

// validateArtifactKey validates /artifacts/<theme>/<view>/<digest>
func (kg *DefaultKeyGenerator) validateArtifactKey(key string) error {
	parts := strings.Split(key, "/")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "artifacts" {
		return fmt.Errorf("invalid artifact key format: %s", key)
	}

	if parts[2] == "" {
		return fmt.Errorf("theme cannot be empty in key: %s", key)
	}

	if parts[3] == "" {
		return fmt.Errorf("view cannot be empty in key: %s", key)
	}

	if len(parts[4]) != sha256.Size*2 {
		return fmt.Errorf("invalid source digest in key: %s", key)
	}

	return nil
}
