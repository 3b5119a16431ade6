package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Memo is a process-lifetime, append-only memoization store. Entries are
// never evicted, overwritten or retried, including failed ones.
//
// Growth is unbounded: a page with an unbounded number of distinct diagrams
// needs a size-bounded Store instead.
type Memo struct {
	mu      sync.Mutex
	entries map[Key]*Entry

	hits   atomic.Int64
	misses atomic.Int64

	logger *slog.Logger
}

// Stats is a snapshot of memo usage.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Option configures a Memo.
type Option func(*Memo)

// WithLogger sets the logger used for miss and settlement events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memo) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMemo creates an empty Memo.
func NewMemo(opts ...Option) *Memo {
	m := &Memo{
		entries: make(map[Key]*Entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start implements Store.
func (m *Memo) Start(ctx context.Context, key Key, compute func(context.Context) (any, error)) *Entry {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok {
		m.mu.Unlock()
		m.hits.Add(1)
		return e
	}

	e := Go(ctx, key, m.observe(key, compute))
	m.entries[key] = e
	m.mu.Unlock()

	m.misses.Add(1)
	m.logger.Debug("memo miss, computation started", "key", string(key))
	return e
}

func (m *Memo) observe(key Key, compute func(context.Context) (any, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		v, err := compute(ctx)
		if err != nil {
			m.logger.Warn("memoized computation failed", "key", string(key), "error", err)
		} else {
			m.logger.Debug("memoized computation settled", "key", string(key))
		}
		return v, err
	}
}

// Lookup returns the entry for key without starting anything.
func (m *Memo) Lookup(key Key) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// Len implements Store.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns current hit, miss and entry counts.
func (m *Memo) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.Len(),
	}
}
