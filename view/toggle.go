package view

import "sync"

// State is the fullscreen visibility of a diagram.
type State int

const (
	Collapsed State = iota
	Expanded
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Collapsed:
		return "collapsed"
	case Expanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// toggle holds the single "fullscreen requested" flag. Transitions are
// delivered to onChange one at a time, in the order they were applied, so the
// last delivered state is always the current one. onChange may call back into
// the toggle; such transitions are queued behind the current delivery.
type toggle struct {
	mu         sync.Mutex
	state      State
	onChange   func(State)
	pending    []State
	delivering bool
}

func (t *toggle) set(next State) {
	t.mu.Lock()
	if t.state == next {
		t.mu.Unlock()
		return
	}
	t.state = next
	if t.onChange == nil {
		t.mu.Unlock()
		return
	}

	t.pending = append(t.pending, next)
	if t.delivering {
		t.mu.Unlock()
		return
	}
	t.delivering = true

	for len(t.pending) > 0 {
		s := t.pending[0]
		t.pending = t.pending[1:]
		onChange := t.onChange
		t.mu.Unlock()

		onChange(s)

		t.mu.Lock()
	}
	t.delivering = false
	t.mu.Unlock()
}

func (t *toggle) get() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
