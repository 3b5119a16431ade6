// Package markdown renders documents whose ```mermaid fences become diagrams.
// Each fence is replaced by a Diagram node that carries its own
// view.Coordinator, so the inline and fullscreen artifacts come from the
// shared render cache.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/kengibson1111/go-diagram-render-cache/view"
)

// KindDiagram is the NodeKind of Diagram.
var KindDiagram = ast.NewNodeKind("Diagram")

// Diagram is a block node holding one diagram and its resolved views.
type Diagram struct {
	ast.BaseBlock

	Source      string
	Coordinator *view.Coordinator
	Views       *view.Views
	Err         error
}

// Kind implements ast.Node.
func (n *Diagram) Kind() ast.NodeKind {
	return KindDiagram
}

// IsRaw implements ast.Node.
func (n *Diagram) IsRaw() bool {
	return true
}

// Dump implements ast.Node.
func (n *Diagram) Dump(source []byte, level int) {
	kv := map[string]string{"Source": n.Source}
	if n.Coordinator != nil {
		kv["Inline"] = n.Coordinator.TargetID(view.Inline)
		kv["Fullscreen"] = n.Coordinator.TargetID(view.Fullscreen)
	}
	ast.DumpHelper(n, source, level, kv, nil)
}

func blockText(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func fenceLanguage(block *ast.FencedCodeBlock, reader text.Reader) string {
	return string(block.Language(reader.Source()))
}
