package cache

import (
	"context"
	"reflect"

	"github.com/kengibson1111/go-diagram-render-cache/internal"
)

// Future is a typed handle on a memoized computation. Every Future resolved
// for the same key shares one Entry and observes the same value and error.
type Future[T any] struct {
	entry *Entry
}

// Resolve returns a Future for key. When key is absent from s, compute is
// started exactly once and its pending entry is stored before it settles;
// when present, compute is ignored.
func Resolve[T any](ctx context.Context, s Store, key Key, compute func(context.Context) (T, error)) *Future[T] {
	e := s.Start(ctx, key, func(ctx context.Context) (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	return &Future[T]{entry: e}
}

// Wait blocks until the computation settles or ctx is done. A done ctx only
// stops this waiter; the computation keeps running and stays cached.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	var zero T

	select {
	case <-f.entry.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	if f.entry.err != nil {
		return zero, f.entry.err
	}

	if f.entry.value == nil {
		return zero, nil
	}

	v, ok := f.entry.value.(T)
	if !ok {
		return zero, internal.NewTypeMismatchError(string(f.entry.key), reflect.TypeOf((*T)(nil)).Elem().String(), f.entry.value)
	}
	return v, nil
}

// Key returns the key the future was resolved under.
func (f *Future[T]) Key() Key {
	return f.entry.key
}

// Done is closed once the computation has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.entry.done
}

// Settled reports whether the computation has finished.
func (f *Future[T]) Settled() bool {
	return f.entry.Settled()
}

// Entry exposes the shared entry, mainly so callers can check that two
// futures observe the same computation.
func (f *Future[T]) Entry() *Entry {
	return f.entry
}
