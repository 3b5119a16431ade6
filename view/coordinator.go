// Package view coordinates the two presentations of one diagram: the inline
// view and the on-demand fullscreen view. Each Coordinator owns two stable
// target identities and a collapsed/expanded flag; artifacts come from the
// engine adapter's memoized store.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kengibson1111/go-diagram-render-cache/cache"
	"github.com/kengibson1111/go-diagram-render-cache/engine"
	"github.com/kengibson1111/go-diagram-render-cache/internal"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
)

// Context selects which presentation an artifact is rendered for.
type Context int

const (
	Inline Context = iota
	Fullscreen
)

// String implements fmt.Stringer.
func (c Context) String() string {
	switch c {
	case Inline:
		return "inline"
	case Fullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Views holds the artifacts for both presentations of one (source, theme) pair.
type Views struct {
	Inline     *engine.Artifact
	Fullscreen *engine.Artifact
}

// Coordinator is one diagram instance.
type Coordinator struct {
	adapter      *engine.Adapter
	inlineID     string
	fullscreenID string
	logger       *slog.Logger

	toggle toggle
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithIDs overrides the generated target identities.
func WithIDs(inlineID, fullscreenID string) Option {
	return func(c *Coordinator) {
		c.inlineID = inlineID
		c.fullscreenID = fullscreenID
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked after every fullscreen state
// transition. Calls are serialized and arrive in transition order.
func WithOnChange(fn func(State)) Option {
	return func(c *Coordinator) {
		c.toggle.onChange = fn
	}
}

// New creates a Coordinator with two fresh target identities, initially collapsed.
func New(adapter *engine.Adapter, opts ...Option) (*Coordinator, error) {
	if adapter == nil {
		return nil, internal.NewValidationError("engine adapter cannot be nil", nil)
	}

	prefix := adapter.Config().IDPrefix
	c := &Coordinator{
		adapter:      adapter,
		inlineID:     newTargetID(prefix),
		fullscreenID: newTargetID(prefix),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	validator := internal.NewInputValidator()
	for _, id := range []string{c.inlineID, c.fullscreenID} {
		if err := validator.ValidateTargetID(id); err != nil {
			return nil, err
		}
	}
	if c.inlineID == c.fullscreenID {
		return nil, internal.NewValidationError(fmt.Sprintf("inline and fullscreen target ids must differ, both are %q", c.inlineID), nil)
	}

	return c, nil
}

func newTargetID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// TargetID returns the stable target identity used for view.
func (c *Coordinator) TargetID(view Context) string {
	if view == Fullscreen {
		return c.fullscreenID
	}
	return c.inlineID
}

// Lookup starts or joins both artifact computations for (source, t) without
// waiting for them. The engine is resolved first; if it fails to load, no
// artifact entry is registered.
func (c *Coordinator) Lookup(ctx context.Context, source string, t theme.Theme) (inline, fullscreen *cache.Future[*engine.Artifact], err error) {
	e, err := c.adapter.Engine(ctx)
	if err != nil {
		return nil, nil, err
	}

	inline, err = c.adapter.Artifact(ctx, e, source, t, Inline.String(), c.inlineID)
	if err != nil {
		return nil, nil, err
	}

	fullscreen, err = c.adapter.Artifact(ctx, e, source, t, Fullscreen.String(), c.fullscreenID)
	if err != nil {
		return nil, nil, err
	}

	return inline, fullscreen, nil
}

// Render resolves both artifacts for (source, t). Any failure is returned
// as is; there is no fallback markup.
func (c *Coordinator) Render(ctx context.Context, source string, t theme.Theme) (*Views, error) {
	inline, fullscreen, err := c.Lookup(ctx, source, t)
	if err != nil {
		c.logger.Error("diagram lookup failed", "target", c.inlineID, "error", err)
		return nil, err
	}

	inlineArtifact, inlineErr := inline.Wait(ctx)
	fullscreenArtifact, fullscreenErr := fullscreen.Wait(ctx)
	if err := errors.Join(inlineErr, fullscreenErr); err != nil {
		c.logger.Error("diagram render failed", "target", c.inlineID, "theme", t.String(), "error", err)
		return nil, err
	}

	return &Views{
		Inline:     inlineArtifact,
		Fullscreen: fullscreenArtifact,
	}, nil
}

// RenderSignal reads the current theme from sig and renders for it.
func (c *Coordinator) RenderSignal(ctx context.Context, source string, sig theme.Signal) (*Views, error) {
	return c.Render(ctx, source, theme.Current(ctx, sig))
}

// Open requests the fullscreen view.
func (c *Coordinator) Open() {
	c.toggle.set(Expanded)
}

// Close hides the fullscreen view. Closing a collapsed view is a no-op.
func (c *Coordinator) Close() {
	c.toggle.set(Collapsed)
}

// Dismiss handles the overlay's own dismiss signal; it behaves like Close.
func (c *Coordinator) Dismiss() {
	c.Close()
}

// SetExpanded follows an overlay open-change notification.
func (c *Coordinator) SetExpanded(expanded bool) {
	if expanded {
		c.Open()
		return
	}
	c.Close()
}

// State returns the current fullscreen state.
func (c *Coordinator) State() State {
	return c.toggle.get()
}

// Expanded reports whether the fullscreen view is requested.
func (c *Coordinator) Expanded() bool {
	return c.State() == Expanded
}
