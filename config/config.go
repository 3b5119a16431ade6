// Package config loads the render and source-store configuration from a YAML
// file. Values missing from the file keep their defaults.
package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/kengibson1111/go-diagram-render-cache/internal"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
)

// File is the top-level configuration file.
type File struct {
	// Theme is the display theme used when no runtime signal is available.
	Theme  string                `yaml:"theme" koanf:"theme"`
	Render *internal.Config      `yaml:"render" koanf:"render"`
	Redis  *internal.RedisConfig `yaml:"redis" koanf:"redis"`
}

// Default returns a File holding every default value.
func Default() *File {
	return &File{
		Theme:  string(theme.Light),
		Render: internal.DefaultConfig(),
		Redis:  internal.DefaultRedisConfig(),
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*File, error) {
	k := koanf.New(".")
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to path as YAML.
func (f *File) Save(path string) error {
	data, err := yamlv3.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks both sections.
func (f *File) Validate() error {
	if err := internal.ValidateConfig(f.Render); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if f.Redis == nil {
		return internal.NewValidationError("redis section cannot be null", nil)
	}
	if err := internal.ValidateRedisConfig(f.Redis); err != nil {
		return internal.NewValidationError("redis", err)
	}

	return nil
}

// DisplayTheme returns the configured fallback theme.
func (f *File) DisplayTheme() theme.Theme {
	return theme.Parse(f.Theme)
}

// Signal returns a theme.Signal that always reports the configured theme.
func (f *File) Signal() theme.Signal {
	return theme.Static(f.Theme)
}
