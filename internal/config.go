package internal

import (
	"fmt"
	"regexp"
)

// Config holds the render engine options applied before every render
type Config struct {
	// Engine identity
	EngineName string `json:"engine_name" yaml:"engine_name" koanf:"engine_name"` // Name used for the engine bootstrap key
	IDPrefix   string `json:"id_prefix" yaml:"id_prefix" koanf:"id_prefix"`       // Prefix for generated target identities

	// Global engine options
	StartOnLoad   bool   `json:"start_on_load" yaml:"start_on_load" koanf:"start_on_load"`    // Let the engine scan the page on load
	SecurityLevel string `json:"security_level" yaml:"security_level" koanf:"security_level"` // strict, loose, antiscript or sandbox
	FontFamily    string `json:"font_family" yaml:"font_family" koanf:"font_family"`          // Font used inside rendered diagrams
	ThemeCSS      string `json:"theme_css" yaml:"theme_css" koanf:"theme_css"`                // Cosmetic style override

	// Engine theme names for the two display themes
	DarkTheme  string `json:"dark_theme" yaml:"dark_theme" koanf:"dark_theme"`
	LightTheme string `json:"light_theme" yaml:"light_theme" koanf:"light_theme"`

	// Mermaid CLI settings
	MermaidCLIPath string `json:"mermaid_cli_path" yaml:"mermaid_cli_path" koanf:"mermaid_cli_path"` // mmdc executable name or path
}

var (
	validSecurityLevels = map[string]bool{
		"strict":     true,
		"loose":      true,
		"antiscript": true,
		"sandbox":    true,
	}

	idPrefixPattern = regexp.MustCompile(`^[A-Za-z][\w-]*$`)
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		EngineName:     "mermaid",
		IDPrefix:       "mermaid",
		StartOnLoad:    false,
		SecurityLevel:  "loose",
		FontFamily:     "inherit",
		ThemeCSS:       "margin: 1.5rem auto 0;",
		DarkTheme:      "dark",
		LightTheme:     "default",
		MermaidCLIPath: "mmdc",
	}
}

// ValidateConfig validates the render configuration parameters
func ValidateConfig(config *Config) error {
	if config == nil {
		return NewValidationError("config cannot be nil", nil)
	}

	if config.EngineName == "" {
		return NewValidationError("engine name cannot be empty", nil)
	}

	if !idPrefixPattern.MatchString(config.IDPrefix) {
		return NewValidationError(fmt.Sprintf("id prefix %q must start with a letter and contain only letters, digits, '-' or '_'", config.IDPrefix), nil)
	}

	if !validSecurityLevels[config.SecurityLevel] {
		return NewValidationError(fmt.Sprintf("invalid security level %q: must be one of strict, loose, antiscript, sandbox", config.SecurityLevel), nil)
	}

	if config.DarkTheme == "" || config.LightTheme == "" {
		return NewValidationError("engine theme names cannot be empty", nil)
	}

	return nil
}
