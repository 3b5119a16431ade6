package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "mermaid", config.EngineName)
	assert.Equal(t, "mermaid", config.IDPrefix)
	assert.False(t, config.StartOnLoad)
	assert.Equal(t, "loose", config.SecurityLevel)
	assert.Equal(t, "inherit", config.FontFamily)
	assert.Equal(t, "margin: 1.5rem auto 0;", config.ThemeCSS)
	assert.Equal(t, "dark", config.DarkTheme)
	assert.Equal(t, "default", config.LightTheme)
	assert.Equal(t, "mmdc", config.MermaidCLIPath)
	assert.NoError(t, ValidateConfig(config))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"strict security", func(c *Config) { c.SecurityLevel = "strict" }, false},
		{"prefix with dash", func(c *Config) { c.IDPrefix = "doc-diagram" }, false},
		{"empty engine name", func(c *Config) { c.EngineName = "" }, true},
		{"empty prefix", func(c *Config) { c.IDPrefix = "" }, true},
		{"prefix starting with digit", func(c *Config) { c.IDPrefix = "1diagram" }, true},
		{"prefix with space", func(c *Config) { c.IDPrefix = "my diagram" }, true},
		{"unknown security level", func(c *Config) { c.SecurityLevel = "none" }, true},
		{"empty dark theme", func(c *Config) { c.DarkTheme = "" }, true},
		{"empty light theme", func(c *Config) { c.LightTheme = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := ValidateConfig(config)
			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("nil config", func(t *testing.T) {
		assert.True(t, IsValidationError(ValidateConfig(nil)))
	})
}
