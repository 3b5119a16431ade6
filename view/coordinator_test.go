package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kengibson1111/go-diagram-render-cache/cache"
	"github.com/kengibson1111/go-diagram-render-cache/engine"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// renderRecorder counts engine renders per target id.
type renderRecorder struct {
	mu      sync.Mutex
	targets map[string]int
	fail    error
	gate    chan struct{}
}

func newRenderRecorder() *renderRecorder {
	return &renderRecorder{targets: make(map[string]int)}
}

func (r *renderRecorder) render(ctx context.Context, targetID, source string) (*engine.Result, error) {
	if r.gate != nil {
		<-r.gate
	}

	r.mu.Lock()
	r.targets[targetID]++
	r.mu.Unlock()

	if r.fail != nil {
		return nil, r.fail
	}
	return &engine.Result{SVG: fmt.Sprintf(`<svg id=%q>%s</svg>`, targetID, source)}, nil
}

func (r *renderRecorder) count(targetID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targets[targetID]
}

func (r *renderRecorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.targets {
		n += c
	}
	return n
}

func setupCoordinator(t *testing.T, rec *renderRecorder, opts ...Option) (*Coordinator, *engine.MockEngine) {
	t.Helper()

	mockEngine := engine.NewMockEngine()
	mockEngine.On("Initialize", mock.Anything).Return(nil)
	mockEngine.On("Render", mock.Anything, mock.Anything, mock.Anything).Return(rec.render)

	adapter, err := engine.NewAdapter(
		cache.NewMemo(cache.WithLogger(discard)),
		func(context.Context) (engine.Engine, error) { return mockEngine, nil },
		engine.DefaultConfig(),
		engine.WithLogger(discard),
	)
	require.NoError(t, err)

	c, err := New(adapter, append([]Option{WithLogger(discard)}, opts...)...)
	require.NoError(t, err)
	return c, mockEngine
}

func TestCoordinator_FirstRenderProducesBothViews(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	inlineID := c.TargetID(Inline)
	fullscreenID := c.TargetID(Fullscreen)
	assert.NotEqual(t, inlineID, fullscreenID)
	assert.True(t, strings.HasPrefix(inlineID, "mermaid-"))
	assert.True(t, strings.HasPrefix(fullscreenID, "mermaid-"))

	views, err := c.Render(ctx, "graph TD; A-->B", theme.Light)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count(inlineID))
	assert.Equal(t, 1, rec.count(fullscreenID))
	assert.Equal(t, inlineID, views.Inline.TargetID)
	assert.Equal(t, fullscreenID, views.Fullscreen.TargetID)
	assert.Contains(t, views.Inline.Markup, inlineID)
	assert.Contains(t, views.Fullscreen.Markup, fullscreenID)

	again, err := c.Render(ctx, "graph TD; A-->B", theme.Light)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.total())
	assert.Same(t, views.Inline, again.Inline)
	assert.Same(t, views.Fullscreen, again.Fullscreen)
}

func TestCoordinator_ConcurrentRequestsRenderOnce(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	rec.gate = make(chan struct{})
	c, _ := setupCoordinator(t, rec)

	const callers = 8
	results := make([]*Views, callers)
	errs := make([]error, callers)

	// every caller joins the entries while the first render is still blocked
	var looked, wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		looked.Add(1)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inline, fullscreen, err := c.Lookup(ctx, "graph LR; X-->Y", theme.Dark)
			looked.Done()
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = &Views{}
			results[i].Inline, errs[i] = inline.Wait(ctx)
			if errs[i] == nil {
				results[i].Fullscreen, errs[i] = fullscreen.Wait(ctx)
			}
		}(i)
	}
	looked.Wait()

	assert.Equal(t, 3, c.adapter.Store().Len())
	assert.Equal(t, 0, rec.total())

	close(rec.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0].Inline, results[i].Inline)
		assert.Same(t, results[0].Fullscreen, results[i].Fullscreen)
	}
	assert.Equal(t, 1, rec.count(c.TargetID(Inline)))
	assert.Equal(t, 1, rec.count(c.TargetID(Fullscreen)))
}

func TestCoordinator_NonDarkThemesShareLightArtifacts(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	light, err := c.Render(ctx, "graph TD; A-->B", theme.Light)
	require.NoError(t, err)

	tests := []struct {
		name  string
		theme theme.Theme
	}{
		{"zero value", theme.Theme("")},
		{"system", theme.Theme("system")},
		{"upper case", theme.Theme("LIGHT")},
		{"light", theme.Light},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := c.Render(ctx, "graph TD; A-->B", tt.theme)
			require.NoError(t, err)
			assert.Same(t, light.Inline, views.Inline)
			assert.Same(t, light.Fullscreen, views.Fullscreen)
			assert.Equal(t, theme.Light, views.Inline.Theme)
		})
	}

	assert.Equal(t, 1, rec.count(c.TargetID(Inline)))
	assert.Equal(t, 1, rec.count(c.TargetID(Fullscreen)))
	assert.Equal(t, 3, c.adapter.Store().Len())
}

func TestCoordinator_ThemeChangeRendersAgain(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, mockEngine := setupCoordinator(t, rec)

	light, err := c.Render(ctx, "graph TD; A-->B", theme.Light)
	require.NoError(t, err)
	dark, err := c.Render(ctx, "graph TD; A-->B", theme.Dark)
	require.NoError(t, err)

	assert.Equal(t, 4, rec.total())
	assert.NotSame(t, light.Inline, dark.Inline)
	assert.Equal(t, theme.Dark, dark.Inline.Theme)
	assert.Equal(t, theme.Dark, dark.Fullscreen.Theme)

	// every render is preceded by a configure call for its own theme
	mockEngine.AssertNumberOfCalls(t, "Initialize", 4)
	mockEngine.AssertCalled(t, "Initialize", mock.MatchedBy(func(o engine.Options) bool { return o.Theme == "dark" }))
	mockEngine.AssertCalled(t, "Initialize", mock.MatchedBy(func(o engine.Options) bool { return o.Theme == "default" }))

	back, err := c.Render(ctx, "graph TD; A-->B", theme.Light)
	require.NoError(t, err)
	assert.Same(t, light.Inline, back.Inline)
	assert.Equal(t, 4, rec.total())
}

func TestCoordinator_TargetIDsAreUniquePerInstance(t *testing.T) {
	rec := newRenderRecorder()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		c, _ := setupCoordinator(t, rec)
		for _, id := range []string{c.TargetID(Inline), c.TargetID(Fullscreen)} {
			assert.False(t, seen[id], "duplicate target id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 20)
}

func TestCoordinator_TargetIDsAreStable(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	inlineID := c.TargetID(Inline)
	_, err := c.Render(ctx, "graph TD", theme.Dark)
	require.NoError(t, err)
	_, err = c.Render(ctx, "graph LR", theme.Light)
	require.NoError(t, err)

	assert.Equal(t, inlineID, c.TargetID(Inline))
	assert.Equal(t, 2, rec.count(inlineID))
}

func TestCoordinator_RenderFailureIsCached(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	rec.fail = errors.New("Parse error on line 1")
	c, _ := setupCoordinator(t, rec)

	_, err := c.Render(ctx, "graph ???", theme.Light)
	require.Error(t, err)
	assert.True(t, cache.IsRenderError(err))
	assert.ErrorIs(t, err, rec.fail)

	_, err = c.Render(ctx, "graph ???", theme.Light)
	require.Error(t, err)
	assert.Equal(t, 2, rec.total())
}

func TestCoordinator_EngineLoadFailureRegistersNoArtifacts(t *testing.T) {
	ctx := context.Background()
	memo := cache.NewMemo(cache.WithLogger(discard))

	var loads atomic.Int32
	loadErr := errors.New("engine bundle missing")
	adapter, err := engine.NewAdapter(memo, func(context.Context) (engine.Engine, error) {
		loads.Add(1)
		return nil, loadErr
	}, nil, engine.WithLogger(discard))
	require.NoError(t, err)

	c, err := New(adapter, WithLogger(discard))
	require.NoError(t, err)

	_, err = c.Render(ctx, "graph TD", theme.Light)
	require.Error(t, err)
	assert.True(t, cache.IsEngineInitError(err))
	assert.ErrorIs(t, err, loadErr)

	_, err = c.Render(ctx, "graph TD", theme.Dark)
	require.Error(t, err)

	assert.Equal(t, int32(1), loads.Load())
	assert.Equal(t, 1, memo.Len())
}

func TestCoordinator_RenderSignal(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	views, err := c.RenderSignal(ctx, "graph TD", theme.Static("dark"))
	require.NoError(t, err)
	assert.Equal(t, theme.Dark, views.Inline.Theme)

	views, err = c.RenderSignal(ctx, "graph TD", theme.Static("system"))
	require.NoError(t, err)
	assert.Equal(t, theme.Light, views.Inline.Theme)

	views, err = c.RenderSignal(ctx, "graph TD", nil)
	require.NoError(t, err)
	assert.Equal(t, theme.Light, views.Inline.Theme)
}

func TestNew(t *testing.T) {
	rec := newRenderRecorder()
	base, _ := setupCoordinator(t, rec)

	tests := []struct {
		name        string
		opts        []Option
		expectError bool
	}{
		{"generated ids", nil, false},
		{"explicit ids", []Option{WithIDs("diagram-a", "diagram-b")}, false},
		{"identical ids", []Option{WithIDs("diagram-a", "diagram-a")}, true},
		{"empty inline id", []Option{WithIDs("", "diagram-b")}, true},
		{"id with space", []Option{WithIDs("diagram a", "diagram-b")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(base.adapter, tt.opts...)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, cache.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Collapsed, c.State())
		})
	}

	_, err := New(nil)
	require.Error(t, err)
	assert.True(t, cache.IsValidationError(err))
}

func TestCoordinator_FullscreenToggle(t *testing.T) {
	rec := newRenderRecorder()

	var changes []State
	c, _ := setupCoordinator(t, rec, WithOnChange(func(s State) {
		changes = append(changes, s)
	}))

	assert.Equal(t, Collapsed, c.State())
	assert.False(t, c.Expanded())

	c.Close()
	assert.Equal(t, Collapsed, c.State())

	c.Open()
	assert.True(t, c.Expanded())
	c.Open()
	assert.True(t, c.Expanded())

	c.Dismiss()
	assert.Equal(t, Collapsed, c.State())

	c.SetExpanded(true)
	assert.Equal(t, Expanded, c.State())
	c.SetExpanded(false)
	assert.Equal(t, Collapsed, c.State())

	assert.Equal(t, []State{Expanded, Collapsed, Expanded, Collapsed}, changes)
}

func TestCoordinator_ConcurrentTogglesDeliverInOrder(t *testing.T) {
	rec := newRenderRecorder()

	var mu sync.Mutex
	var changes []State
	c, _ := setupCoordinator(t, rec, WithOnChange(func(s State) {
		mu.Lock()
		changes = append(changes, s)
		mu.Unlock()
	}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Open()
		}()
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(changes) == 0 {
		assert.Equal(t, Collapsed, c.State())
		return
	}
	assert.Equal(t, Expanded, changes[0])
	for i := 1; i < len(changes); i++ {
		assert.NotEqual(t, changes[i-1], changes[i], "transition %d repeats a state", i)
	}
	assert.Equal(t, c.State(), changes[len(changes)-1])
}

func TestCoordinator_OnChangeMayToggle(t *testing.T) {
	rec := newRenderRecorder()

	var c *Coordinator
	var changes []State
	c, _ = setupCoordinator(t, rec, WithOnChange(func(s State) {
		changes = append(changes, s)
		if s == Expanded {
			c.Dismiss()
		}
	}))

	c.Open()
	assert.Equal(t, []State{Expanded, Collapsed}, changes)
	assert.Equal(t, Collapsed, c.State())
}

func TestCoordinator_ToggleDoesNotRender(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	_, err := c.Render(ctx, "graph TD", theme.Light)
	require.NoError(t, err)

	c.Open()
	_, err = c.Render(ctx, "graph TD", theme.Light)
	require.NoError(t, err)
	c.Close()

	assert.Equal(t, 2, rec.total())
}

func TestCoordinator_Mount(t *testing.T) {
	ctx := context.Background()
	rec := newRenderRecorder()
	c, _ := setupCoordinator(t, rec)

	views, err := c.Render(ctx, "graph TD", theme.Light)
	require.NoError(t, err)

	inline := &engine.MockContainer{}
	inline.On("SetMarkup", views.Inline.Markup).Return()
	fullscreen := &engine.MockContainer{}

	c.Mount(views, inline, fullscreen)
	inline.AssertExpectations(t)
	fullscreen.AssertNotCalled(t, "SetMarkup", mock.Anything)

	c.Open()
	fullscreen.On("SetMarkup", views.Fullscreen.Markup).Return()
	inline2 := &engine.MockContainer{}
	inline2.On("SetMarkup", views.Inline.Markup).Return()

	c.Mount(views, inline2, fullscreen)
	fullscreen.AssertExpectations(t)
	inline2.AssertExpectations(t)
}

func TestAttach_BindsAfterMarkup(t *testing.T) {
	var order []string

	container := &engine.MockContainer{}
	container.On("SetMarkup", "<svg/>").Run(func(mock.Arguments) {
		order = append(order, "markup")
	}).Return()

	artifact := &engine.Artifact{
		TargetID: "m1",
		Markup:   "<svg/>",
		Bind: func(got engine.Container) {
			assert.Same(t, container, got)
			order = append(order, "bind")
		},
	}

	Attach(container, artifact)
	assert.Equal(t, []string{"markup", "bind"}, order)

	assert.NotPanics(t, func() {
		Attach(nil, artifact)
		Attach(container, nil)
	})
}

func TestContextAndStateStrings(t *testing.T) {
	assert.Equal(t, "inline", Inline.String())
	assert.Equal(t, "fullscreen", Fullscreen.String())
	assert.Equal(t, "unknown", Context(9).String())
	assert.Equal(t, "collapsed", Collapsed.String())
	assert.Equal(t, "expanded", Expanded.String())
	assert.Equal(t, "unknown", State(9).String())
}
