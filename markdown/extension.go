package markdown

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/kengibson1111/go-diagram-render-cache/engine"
	"github.com/kengibson1111/go-diagram-render-cache/theme"
	"github.com/kengibson1111/go-diagram-render-cache/view"
)

// DefaultLanguage is the fence info string that marks a diagram.
const DefaultLanguage = "mermaid"

// DefaultHighlightStyle is the chroma style used for other fenced code.
const DefaultHighlightStyle = "github"

const dialogTitle = "Mermaid Diagram"

var contextKey = parser.NewContextKey()

// Diagrams is a goldmark extension that renders diagram fences through the
// render cache.
type Diagrams struct {
	adapter        *engine.Adapter
	signal         theme.Signal
	language       string
	highlightStyle string
	expanded       bool
	logger         *slog.Logger
}

// Option configures Diagrams.
type Option func(*Diagrams)

// WithLanguage changes the fence language treated as a diagram.
func WithLanguage(language string) Option {
	return func(d *Diagrams) {
		if language != "" {
			d.language = language
		}
	}
}

// WithHighlightStyle sets the chroma style New uses for non-diagram fences.
func WithHighlightStyle(style string) Option {
	return func(d *Diagrams) {
		if style != "" {
			d.highlightStyle = style
		}
	}
}

// WithExpanded renders every diagram with its fullscreen view open.
func WithExpanded() Option {
	return func(d *Diagrams) {
		d.expanded = true
	}
}

// WithLogger sets the logger passed to each coordinator.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Diagrams) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDiagrams creates the extension. signal is read once per conversion; a
// nil signal renders with the light theme.
//
// Artifacts are cached by source and theme, not by target id. Identical fences
// therefore share the first diagram's markup, and the SVG ids inside it belong
// to that first diagram; a page with repeated fences contains duplicate ids.
func NewDiagrams(adapter *engine.Adapter, signal theme.Signal, opts ...Option) *Diagrams {
	d := &Diagrams{
		adapter:        adapter,
		signal:         signal,
		language:       DefaultLanguage,
		highlightStyle: DefaultHighlightStyle,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// New returns a goldmark instance with GFM, syntax highlighting and diagrams.
func New(adapter *engine.Adapter, signal theme.Signal, opts ...Option) goldmark.Markdown {
	d := NewDiagrams(adapter, signal, opts...)

	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(d.highlightStyle),
			),
			d,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

// Convert converts source to HTML, making ctx available to diagram rendering.
func Convert(ctx context.Context, md goldmark.Markdown, source []byte, w io.Writer) error {
	pc := parser.NewContext()
	pc.Set(contextKey, ctx)
	return md.Convert(source, w, parser.WithContext(pc))
}

// Extend implements goldmark.Extender.
func (d *Diagrams) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithASTTransformers(
			util.Prioritized(d, 100),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(d, 100),
		),
	)
}

// Transform implements parser.ASTTransformer. Diagram fences are replaced by
// Diagram nodes whose views are resolved here, while the parser context is
// still available.
func (d *Diagrams) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	ctx, _ := pc.Get(contextKey).(context.Context)
	if ctx == nil {
		ctx = context.Background()
	}

	var blocks []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if block, ok := n.(*ast.FencedCodeBlock); ok && fenceLanguage(block, reader) == d.language {
			blocks = append(blocks, block)
		}
		return ast.WalkContinue, nil
	})
	if len(blocks) == 0 {
		return
	}

	t := theme.Current(ctx, d.signal)
	for _, block := range blocks {
		node := &Diagram{Source: blockText(block, reader.Source())}
		node.Coordinator, node.Err = view.New(d.adapter, view.WithLogger(d.logger))
		if node.Err == nil {
			if d.expanded {
				node.Coordinator.Open()
			}
			node.Views, node.Err = node.Coordinator.Render(ctx, node.Source, t)
		}

		parent := block.Parent()
		parent.ReplaceChild(parent, block, node)
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (d *Diagrams) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDiagram, d.renderDiagram)
}

type markupContainer struct {
	markup string
}

func (c *markupContainer) SetMarkup(markup string) {
	c.markup = markup
}

func (d *Diagrams) renderDiagram(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	node := n.(*Diagram)
	if node.Err != nil {
		return ast.WalkStop, fmt.Errorf("rendering diagram: %w", node.Err)
	}

	c := node.Coordinator
	inline := &markupContainer{}
	fullscreen := &markupContainer{}
	c.Mount(node.Views, inline, fullscreen)

	inlineID := c.TargetID(view.Inline)
	fullscreenID := c.TargetID(view.Fullscreen)

	open := ""
	if c.Expanded() {
		open = " open"
	}

	_, _ = w.WriteString("<div class=\"diagram\">\n")
	_, _ = fmt.Fprintf(w, "<div class=\"diagram-inline\" id=\"%s-container\">%s</div>\n", inlineID, inline.markup)
	_, _ = fmt.Fprintf(w, "<button type=\"button\" class=\"diagram-expand\" aria-label=\"View fullscreen\" aria-controls=\"%s-dialog\">Expand</button>\n", fullscreenID)
	_, _ = fmt.Fprintf(w, "<dialog class=\"diagram-dialog\" id=\"%s-dialog\"%s>\n", fullscreenID, open)
	_, _ = fmt.Fprintf(w, "<h2 class=\"sr-only\">%s</h2>\n", dialogTitle)
	_, _ = fmt.Fprintf(w, "<div class=\"diagram-fullscreen\" id=\"%s-container\">%s</div>\n", fullscreenID, fullscreen.markup)
	_, _ = w.WriteString("</dialog>\n</div>\n")

	return ast.WalkContinue, nil
}
