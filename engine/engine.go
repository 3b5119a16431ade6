// Package engine adapts an external diagram rendering capability to a stable
// contract: load it lazily once, re-apply global options before every render,
// and wrap each render result in an Artifact that can be shared by reference.
package engine

import (
	"context"
	"strings"

	"github.com/kengibson1111/go-diagram-render-cache/internal"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
)

// Options are the global engine options applied before every render.
type Options struct {
	StartOnLoad   bool   `json:"startOnLoad"`
	SecurityLevel string `json:"securityLevel"`
	FontFamily    string `json:"fontFamily"`
	ThemeCSS      string `json:"themeCSS"`
	Theme         string `json:"theme"`
}

// Container is a live mount point that rendered markup is attached to.
type Container interface {
	SetMarkup(markup string)
}

// BindFunc wires interactive behavior into a container. It must only be
// called after the artifact's markup has been attached to that container.
type BindFunc func(Container)

// Result is what an Engine produces for one render.
type Result struct {
	SVG  string
	Bind BindFunc
}

// Artifact is one memoized render. It is shared by pointer with every caller
// that resolves the same key and is never modified after it is published.
type Artifact struct {
	TargetID string
	Theme    theme.Theme
	Markup   string
	Bind     BindFunc
}

// Engine is the external rendering capability.
type Engine interface {
	// Initialize sets global options. It is called before every render and
	// must be idempotent.
	Initialize(opts Options) error

	// Render turns source into markup bound to targetID.
	Render(ctx context.Context, targetID, source string) (*Result, error)
}

// Loader loads and returns the engine. The adapter calls it at most once.
type Loader func(ctx context.Context) (Engine, error)

// Config holds the render configuration.
type Config = internal.Config

// DefaultConfig returns the default render configuration.
func DefaultConfig() *Config {
	return internal.DefaultConfig()
}

// NormalizeSource replaces every literal backslash-n sequence with a newline.
func NormalizeSource(source string) string {
	return strings.ReplaceAll(source, `\n`, "\n")
}
