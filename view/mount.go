package view

import "github.com/kengibson1111/go-diagram-render-cache/engine"

// Attach sets the artifact markup on container and then runs its binding
// callback against the same container.
func Attach(container engine.Container, artifact *engine.Artifact) {
	if container == nil || artifact == nil {
		return
	}

	container.SetMarkup(artifact.Markup)
	if artifact.Bind != nil {
		artifact.Bind(container)
	}
}

// Mount attaches the inline artifact, and the fullscreen artifact only while
// the fullscreen view is expanded.
func (c *Coordinator) Mount(views *Views, inline, fullscreen engine.Container) {
	if views == nil {
		return
	}

	Attach(inline, views.Inline)
	if c.Expanded() {
		Attach(fullscreen, views.Fullscreen)
	}
}
