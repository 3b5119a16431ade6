// Package mermaidcli implements engine.Engine on top of the mermaid-cli
// (mmdc) executable. Each render runs the tool once in a scratch directory
// and returns the SVG it writes.
package mermaidcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kengibson1111/go-diagram-render-cache/engine"
)

// DefaultBinary is the executable name looked up on PATH.
const DefaultBinary = "mmdc"

// Engine renders diagrams by invoking mmdc.
type Engine struct {
	binary string
	logger *slog.Logger

	mu   sync.Mutex
	opts engine.Options
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine that runs the executable at binary. No lookup is
// performed; use Load to resolve the binary lazily.
func New(binary string, opts ...Option) *Engine {
	e := &Engine{
		binary: binary,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load returns an engine.Loader that resolves binary on PATH the first time
// the adapter asks for the engine. An empty binary means DefaultBinary.
func Load(binary string, opts ...Option) engine.Loader {
	if binary == "" {
		binary = DefaultBinary
	}

	return func(ctx context.Context) (engine.Engine, error) {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("mermaid-cli executable %q not found: %w", binary, err)
		}
		return New(path, opts...), nil
	}
}

// Initialize stores the global options applied to every following render.
func (e *Engine) Initialize(opts engine.Options) error {
	if opts.Theme == "" {
		return fmt.Errorf("engine options must name a theme")
	}

	e.mu.Lock()
	e.opts = opts
	e.mu.Unlock()
	return nil
}

// Render runs mmdc for source and returns the SVG it produced. The SVG root
// element carries targetID as its id.
func (e *Engine) Render(ctx context.Context, targetID, source string) (*engine.Result, error) {
	e.mu.Lock()
	opts := e.opts
	e.mu.Unlock()

	dir, err := os.MkdirTemp("", "mmdc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "diagram.mmd")
	output := filepath.Join(dir, "diagram.svg")
	configPath := filepath.Join(dir, "config.json")

	if err := os.WriteFile(input, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write diagram source: %w", err)
	}

	config, err := configJSON(opts)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, config, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write mermaid config: %w", err)
	}

	args := []string{
		"-i", input,
		"-o", output,
		"-t", opts.Theme,
		"-c", configPath,
		"-I", targetID,
		"-q",
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stderr = &stderr

	e.logger.Debug("running mermaid-cli", "binary", e.binary, "target", targetID, "theme", opts.Theme)

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("mermaid-cli failed: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("mermaid-cli failed: %w", err)
	}

	svg, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered svg: %w", err)
	}

	return &engine.Result{SVG: string(svg)}, nil
}

// configJSON builds the mermaid configuration file passed with -c.
func configJSON(opts engine.Options) ([]byte, error) {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode mermaid config: %w", err)
	}
	return data, nil
}
