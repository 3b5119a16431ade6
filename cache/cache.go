package cache

import (
	"context"
	"fmt"
)

// Key identifies one memoized computation. Keys are produced by the engine
// adapter's key generator and compared by exact string equality.
type Key string

// Store defines the memoization contract: at most one computation per key,
// inserted before it settles and never replaced afterwards.
//
// Memo is the unbounded implementation. A bounded variant can satisfy the same
// interface without changing any caller of Resolve.
type Store interface {
	// Start returns the entry for key, calling compute only when no entry exists yet.
	Start(ctx context.Context, key Key, compute func(context.Context) (any, error)) *Entry

	// Len returns the number of entries, pending or settled.
	Len() int
}

// Entry is a pending-or-settled computation registered under a key.
type Entry struct {
	key   Key
	done  chan struct{}
	value any
	err   error
}

// Go starts compute on its own goroutine and returns the entry tracking it.
// Store implementations call it at most once per key, under the same lock that
// guards lookups, and publish the entry before releasing that lock.
func Go(ctx context.Context, key Key, compute func(context.Context) (any, error)) *Entry {
	e := &Entry{key: key, done: make(chan struct{})}
	go e.run(ctx, compute)
	return e
}

func (e *Entry) run(ctx context.Context, compute func(context.Context) (any, error)) {
	defer close(e.done)
	defer func() {
		if r := recover(); r != nil {
			e.value = nil
			e.err = fmt.Errorf("computation for key %q panicked: %v", e.key, r)
		}
	}()

	// Waiters may give up; the computation itself is never cancelled.
	e.value, e.err = compute(context.WithoutCancel(ctx))
}

// Key returns the key the entry is registered under.
func (e *Entry) Key() Key {
	return e.key
}

// Done is closed once the computation has settled.
func (e *Entry) Done() <-chan struct{} {
	return e.done
}

// Settled reports whether the computation has finished.
func (e *Entry) Settled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Result blocks until the entry settles and returns its value and error.
func (e *Entry) Result() (any, error) {
	<-e.done
	return e.value, e.err
}
