package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemo() *Memo {
	return NewMemo(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

type artifact struct {
	markup string
}

func TestResolve_ComputesOncePerKey(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	var calls atomic.Int32
	compute := func(context.Context) (*artifact, error) {
		calls.Add(1)
		return &artifact{markup: "<svg/>"}, nil
	}

	first := Resolve(ctx, memo, "/artifacts/light/inline/a", compute)
	second := Resolve(ctx, memo, "/artifacts/light/inline/a", compute)

	a, err := first.Wait(ctx)
	require.NoError(t, err)
	b, err := second.Wait(ctx)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, first.Entry(), second.Entry())
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, memo.Len())
}

func TestResolve_ConcurrentRequestsShareOneComputation(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	release := make(chan struct{})
	var calls atomic.Int32
	compute := func(context.Context) (*artifact, error) {
		calls.Add(1)
		<-release
		return &artifact{markup: "<svg/>"}, nil
	}

	const requesters = 16
	futures := make([]*Future[*artifact], requesters)

	var wg sync.WaitGroup
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			futures[i] = Resolve(ctx, memo, "shared", compute)
		}(i)
	}
	wg.Wait()

	for _, f := range futures {
		assert.False(t, f.Settled())
	}
	close(release)

	first, err := futures[0].Wait(ctx)
	require.NoError(t, err)
	for _, f := range futures[1:] {
		got, err := f.Wait(ctx)
		require.NoError(t, err)
		assert.Same(t, first, got)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_EntryStoredBeforeSettling(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	release := make(chan struct{})
	f := Resolve(ctx, memo, "pending", func(context.Context) (string, error) {
		<-release
		return "done", nil
	})

	entry, ok := memo.Lookup("pending")
	require.True(t, ok)
	assert.Same(t, f.Entry(), entry)
	assert.False(t, entry.Settled())

	close(release)
	v, err := f.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.True(t, entry.Settled())
}

func TestResolve_FailureIsCached(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	renderErr := errors.New("parse error on line 1")
	var calls atomic.Int32
	compute := func(context.Context) (*artifact, error) {
		calls.Add(1)
		return nil, renderErr
	}

	_, err := Resolve(ctx, memo, "broken", compute).Wait(ctx)
	require.Error(t, err)
	assert.Same(t, renderErr, err)

	_, err = Resolve(ctx, memo, "broken", compute).Wait(ctx)
	require.Error(t, err)
	assert.Same(t, renderErr, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestResolve_PanicBecomesCachedFailure(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	_, err := Resolve(ctx, memo, "panics", func(context.Context) (int, error) {
		panic("engine exploded")
	}).Wait(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine exploded")

	entry, ok := memo.Lookup("panics")
	require.True(t, ok)
	_, cached := entry.Result()
	assert.Equal(t, err, cached)
}

func TestResolve_DistinctKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	var calls atomic.Int32
	compute := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) {
			calls.Add(1)
			return v, nil
		}
	}

	dark, err := Resolve(ctx, memo, "/artifacts/dark/inline/x", compute("dark")).Wait(ctx)
	require.NoError(t, err)
	light, err := Resolve(ctx, memo, "/artifacts/light/inline/x", compute("light")).Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, "dark", dark)
	assert.Equal(t, "light", light)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, memo.Len())
}

func TestFuture_WaitStopsObservingWithoutCancelling(t *testing.T) {
	memo := newTestMemo()

	release := make(chan struct{})
	var computeCancelled atomic.Bool
	var calls atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	f := Resolve(ctx, memo, "slow", func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		computeCancelled.Store(ctx.Err() != nil)
		return "svg", nil
	})

	cancel()
	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)

	v, err := Resolve(context.Background(), memo, "slow", func(context.Context) (string, error) {
		calls.Add(1)
		return "other", nil
	}).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "svg", v)
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, computeCancelled.Load())
}

func TestFuture_WaitTimesOutButEntryRemains(t *testing.T) {
	memo := newTestMemo()

	release := make(chan struct{})
	defer close(release)

	f := Resolve(context.Background(), memo, "stuck", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, memo.Len())
}

func TestFuture_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	_, err := Resolve(ctx, memo, "typed", func(context.Context) (string, error) {
		return "text", nil
	}).Wait(ctx)
	require.NoError(t, err)

	_, err = Resolve(ctx, memo, "typed", func(context.Context) (int, error) {
		return 0, nil
	}).Wait(ctx)
	require.Error(t, err)

	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, CacheErrorTypeTypeMismatch, cacheErr.Type)
	assert.Equal(t, "typed", cacheErr.Key)
}

func TestResolve_ReentrantLookupOfAnotherKey(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	outer := Resolve(ctx, memo, "outer", func(ctx context.Context) (string, error) {
		inner, err := Resolve(ctx, memo, "inner", func(context.Context) (string, error) {
			return "engine", nil
		}).Wait(ctx)
		if err != nil {
			return "", err
		}
		return inner + "+artifact", nil
	})

	v, err := outer.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "engine+artifact", v)
	assert.Equal(t, 2, memo.Len())
}

func TestMemo_Stats(t *testing.T) {
	ctx := context.Background()
	memo := newTestMemo()

	compute := func(context.Context) (int, error) { return 42, nil }

	for i := 0; i < 3; i++ {
		_, err := Resolve(ctx, memo, "answer", compute).Wait(ctx)
		require.NoError(t, err)
	}
	_, err := Resolve(ctx, memo, "other", compute).Wait(ctx)
	require.NoError(t, err)

	stats := memo.Stats()
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, 2, stats.Entries)
}

func TestMemo_ImplementsStore(t *testing.T) {
	var _ Store = NewMemo()
}
