package indexcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/model"
	"github.com/hupe1980/cascade/resource"
	"github.com/hupe1980/cascade/testutil"
)

func testBuilder(t *testing.T, calls *atomic.Int64, delay time.Duration) BuildFunc {
	t.Helper()

	const dim = 8
	h, err := hasher.New(hasher.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, h.Init(dim))

	rng := testutil.NewRNG(1)
	m, err := descriptor.NewMatrix(rng.UniformDescriptors(16, dim), dim)
	require.NoError(t, err)

	return func(ctx context.Context, id model.ImageID) (*hasher.Index, error) {
		calls.Add(1)
		time.Sleep(delay)
		return h.BuildIndex(m, make([]float32, dim))
	}
}

func TestCache_GetOrBuild(t *testing.T) {
	var calls atomic.Int64
	rc := resource.NewController(resource.Config{})
	c := New(testBuilder(t, &calls, 0), rc)

	x1, err := c.GetOrBuild(t.Context(), 1)
	require.NoError(t, err)
	x2, err := c.GetOrBuild(t.Context(), 1)
	require.NoError(t, err)

	assert.Same(t, x1, x2)
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, x1.SizeBytes(), c.Bytes())
	assert.Equal(t, c.Bytes(), rc.MemoryUsage())

	got, ok := c.Get(1)
	assert.True(t, ok)
	assert.Same(t, x1, got)

	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestCache_ConcurrentSingleBuild(t *testing.T) {
	var calls atomic.Int64
	c := New(testBuilder(t, &calls, 10*time.Millisecond), nil)

	const workers = 32
	results := make([]*hasher.Index, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			x, err := c.GetOrBuild(context.Background(), model.ImageID(i%4))
			assert.NoError(t, err)
			results[i] = x
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(4), calls.Load())
	assert.Equal(t, int64(4), c.Builds())
	assert.Equal(t, 4, c.Len())
	for i := range workers {
		assert.Same(t, results[i%4], results[i])
	}
}

func TestCache_BuildErrorNotCached(t *testing.T) {
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)

	var calls atomic.Int64
	ok := testBuilder(t, &calls, 0)
	c := New(func(ctx context.Context, id model.ImageID) (*hasher.Index, error) {
		if fail.Load() {
			return nil, boom
		}
		return ok(ctx, id)
	}, nil)

	_, err := c.GetOrBuild(t.Context(), 7)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	fail.Store(false)
	_, err = c.GetOrBuild(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestCache_MemoryLimit(t *testing.T) {
	var calls atomic.Int64
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	c := New(testBuilder(t, &calls, 0), rc)

	_, err := c.GetOrBuild(t.Context(), 1)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, c.Len())
	assert.Zero(t, rc.MemoryUsage())
}

func TestCache_Close(t *testing.T) {
	var calls atomic.Int64
	rc := resource.NewController(resource.Config{})
	c := New(testBuilder(t, &calls, 0), rc)

	for id := range model.ImageID(5) {
		_, err := c.GetOrBuild(t.Context(), id)
		require.NoError(t, err)
	}
	assert.Positive(t, rc.MemoryUsage())

	require.NoError(t, c.Close())
	assert.Zero(t, rc.MemoryUsage())
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Bytes())
	require.NoError(t, c.Close())

	_, err := c.GetOrBuild(t.Context(), 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCache_CanceledContext(t *testing.T) {
	var calls atomic.Int64
	c := New(testBuilder(t, &calls, 0), nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.GetOrBuild(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}
