// Package diagramcache renders mermaid diagrams for two presentation contexts
// at once, an inline view and an on-demand fullscreen view, and never renders
// the same (source, theme, view) triple twice in one process.
//
// This module is organised as a set of small packages:
//   - cache: process-lifetime memoization of asynchronous computations
//   - engine: lazy engine loading, per-render option application and artifacts
//   - engine/mermaidcli: an engine backed by the mermaid-cli (mmdc) executable
//   - view: the dual-view coordinator with its fullscreen toggle
//   - theme: normalisation of the runtime display theme
//   - markdown: a goldmark extension that turns mermaid fences into diagrams
//   - sourcestore: named diagram sources kept in Redis
//   - config: YAML configuration loading
//
// # Architecture
//
// Every memoized value lives under a hierarchical key:
//   - Render engine: /engine/<engine_name>
//   - Rendered artifacts: /artifacts/<theme>/<view>/<sha256(source)>
//   - Stored diagram sources (Redis): /diagrams/mermaid/<diagram_name>
//
// The engine is loaded once, under its own key, before any artifact entry is
// registered. Each artifact entry is registered before its render starts, so
// concurrent requests for the same key share one render and one result.
//
// # Basic Usage
//
// Create an adapter around a cache and an engine loader, then one coordinator
// per diagram:
//
//	memo := cache.NewMemo()
//	adapter, err := engine.NewAdapter(memo, mermaidcli.Load("mmdc"), engine.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	diagram, err := view.New(adapter)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	views, err := diagram.Render(ctx, "graph TD; A-->B", theme.Parse(signal))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	diagram.Mount(views, inlineContainer, fullscreenContainer)
//
// Rendering the same source for the same theme again returns the same
// artifacts without calling the engine. A theme change produces new keys and
// new renders; the old artifacts stay cached.
//
// # Fullscreen
//
// A coordinator starts collapsed. Open, Close and Dismiss move it between
// Collapsed and Expanded; Mount attaches the fullscreen artifact only while
// expanded. Toggling never renders.
//
// # Error Handling
//
// Every package returns *internal.CacheError values, re-exported as
// cache.CacheError, with helpers to classify them:
//
//	views, err := diagram.Render(ctx, source, theme.Dark)
//	if err != nil {
//	    switch {
//	    case cache.IsEngineInitError(err):
//	        // the engine could not be loaded; every later render fails the same way
//	    case cache.IsRenderError(err):
//	        // the engine rejected this source for this theme
//	    }
//	}
//
// Failures are cached like successes: a source that failed to render is not
// retried for the lifetime of the cache.
//
// # Documents
//
// The markdown package wires the coordinator into goldmark:
//
//	md := markdown.New(adapter, theme.Static("dark"))
//	err := markdown.Convert(ctx, md, page, w)
//
// # Source Store
//
// sourcestore keeps diagram text in Redis with TTL support and retry with
// exponential backoff. It never stores rendered artifacts.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Engine configuration and
// rendering run under one lock per adapter, so renders for different themes
// never interleave.
//
// # Examples
//
// See the examples directory for complete usage examples:
//   - examples/diagram_cache_example/ - Redis source, mermaid-cli render, cache hits
//   - examples/error_handling_example/ - Engine and render failure caching
//   - examples/markdown_example/ - Rendering a markdown page with a diagram
//
// # Testing
//
// Run tests with:
//
//	go test ./...                         # Unit tests
//	go test ./test/integration -v         # Integration tests (requires Redis)
//
// # Dependencies
//
// The module depends on:
//   - github.com/redis/go-redis/v9 - Redis client library
//   - github.com/yuin/goldmark - Markdown rendering
//   - github.com/knadh/koanf/v2 - Configuration loading
//   - github.com/google/uuid - Target identities
package diagramcache
