package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kengibson1111/go-diagram-render-cache/cache"
	"github.com/kengibson1111/go-diagram-render-cache/internal"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
)

// Adapter memoizes the engine and its renders through a cache.Store.
type Adapter struct {
	store     cache.Store
	load      Loader
	keyGen    internal.KeyGenerator
	validator *internal.InputValidator
	config    *internal.Config
	logger    *slog.Logger

	// Options are global engine state, so configure and render run as one unit.
	mu sync.Mutex
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter creates an Adapter that loads its engine through load and
// memoizes into store.
func NewAdapter(store cache.Store, load Loader, config *Config, opts ...AdapterOption) (*Adapter, error) {
	if store == nil {
		return nil, internal.NewValidationError("cache store cannot be nil", nil)
	}

	if load == nil {
		return nil, internal.NewValidationError("engine loader cannot be nil", nil)
	}

	if config == nil {
		config = internal.DefaultConfig()
	}

	if err := internal.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid render configuration: %w", err)
	}

	a := NewAdapterWithDependencies(store, load, internal.NewKeyGenerator(), config)
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NewAdapterWithDependencies creates an Adapter with injected dependencies for testing
func NewAdapterWithDependencies(store cache.Store, load Loader, keyGen internal.KeyGenerator, config *internal.Config) *Adapter {
	return &Adapter{
		store:     store,
		load:      load,
		keyGen:    keyGen,
		validator: internal.NewInputValidator(),
		config:    config,
		logger:    slog.Default(),
	}
}

// Config returns the render configuration.
func (a *Adapter) Config() *Config {
	return a.config
}

// Store returns the cache store shared by every lookup of this adapter.
func (a *Adapter) Store() cache.Store {
	return a.store
}

// Engine returns the engine, loading it on first use. The load is memoized
// under the engine sentinel key; a failed load is cached and returned to
// every later caller.
func (a *Adapter) Engine(ctx context.Context) (Engine, error) {
	key := a.keyGen.EngineKey(a.config.EngineName)
	if err := a.keyGen.ValidateKey(key); err != nil {
		return nil, internal.NewKeyInvalidError(key, fmt.Sprintf("invalid key generated: %v", err))
	}

	return cache.Resolve(ctx, a.store, cache.Key(key), func(ctx context.Context) (Engine, error) {
		a.logger.Info("loading render engine", "engine", a.config.EngineName)

		e, err := a.load(ctx)
		if err != nil {
			return nil, internal.NewEngineInitError(key, "failed to load render engine", err)
		}
		if e == nil {
			return nil, internal.NewEngineInitError(key, "engine loader returned no engine", nil)
		}
		return e, nil
	}).Wait(ctx)
}

// Options returns the global engine options for t.
func (a *Adapter) Options(t theme.Theme) Options {
	t = normalizeTheme(t)
	name := a.config.LightTheme
	if t.IsDark() {
		name = a.config.DarkTheme
	}

	return Options{
		StartOnLoad:   a.config.StartOnLoad,
		SecurityLevel: a.config.SecurityLevel,
		FontFamily:    a.config.FontFamily,
		ThemeCSS:      a.config.ThemeCSS,
		Theme:         name,
	}
}

// Configure applies the global options for t to e.
func (a *Adapter) Configure(e Engine, t theme.Theme) error {
	return e.Initialize(a.Options(t))
}

// Render configures e for t and renders source into targetID without
// consulting the cache. Engine failures are returned, never recovered.
func (a *Adapter) Render(ctx context.Context, e Engine, t theme.Theme, source, targetID string) (*Artifact, error) {
	return a.render(ctx, "", e, t, source, targetID)
}

// Artifact resolves the artifact for (source, t, view) through the store,
// rendering into targetID only when no entry exists yet. t is normalized
// first, so every non-dark value shares the light entry. The returned error
// covers key problems only; render failures surface from the future.
func (a *Adapter) Artifact(ctx context.Context, e Engine, source string, t theme.Theme, view, targetID string) (*cache.Future[*Artifact], error) {
	t = normalizeTheme(t)
	key := a.keyGen.ArtifactKey(source, t.String(), view)
	if err := a.keyGen.ValidateKey(key); err != nil {
		return nil, internal.NewKeyInvalidError(key, fmt.Sprintf("invalid key generated: %v", err))
	}

	return cache.Resolve(ctx, a.store, cache.Key(key), func(ctx context.Context) (*Artifact, error) {
		return a.render(ctx, key, e, t, source, targetID)
	}), nil
}

func (a *Adapter) render(ctx context.Context, key string, e Engine, t theme.Theme, source, targetID string) (*Artifact, error) {
	if err := a.validator.ValidateTargetID(targetID); err != nil {
		return nil, err
	}

	t = normalizeTheme(t)
	normalized := NormalizeSource(source)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.Configure(e, t); err != nil {
		return nil, internal.NewRenderError(key, "failed to configure render engine", err)
	}

	a.logger.Debug("rendering diagram", "key", key, "target", targetID, "theme", t.String())

	res, err := e.Render(ctx, targetID, normalized)
	if err != nil {
		return nil, internal.NewRenderError(key, fmt.Sprintf("failed to render diagram into %q", targetID), err)
	}
	if res == nil {
		return nil, internal.NewRenderError(key, fmt.Sprintf("engine returned no result for %q", targetID), nil)
	}

	return &Artifact{
		TargetID: targetID,
		Theme:    t,
		Markup:   res.SVG,
		Bind:     res.Bind,
	}, nil
}

// normalizeTheme folds any Theme value, including "" and signal names such as
// "system", onto Dark or Light.
func normalizeTheme(t theme.Theme) theme.Theme {
	return theme.Parse(string(t))
}
