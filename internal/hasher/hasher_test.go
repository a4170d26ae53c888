package hasher

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/internal/zeromean"
	"github.com/hupe1980/cascade/testutil"
)

func smallConfig() Config {
	return Config{
		Groups:        2,
		BitsPerGroup:  4,
		CodeBits:      32,
		TopCandidates: 4,
		Seed:          DefaultSeed,
	}
}

func mustMatrix[T descriptor.Element](t *testing.T, data []T, dim int) *descriptor.Matrix[T] {
	t.Helper()
	m, err := descriptor.NewMatrix(data, dim)
	require.NoError(t, err)
	return m
}

func mustHasher(t *testing.T, cfg Config, dim int) *Hasher {
	t.Helper()
	h, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, h.Init(dim))
	return h
}

func mustZeroMean(t *testing.T, dim int, views ...descriptor.View) []float32 {
	t.Helper()
	zm, err := zeromean.Estimate(views, dim)
	require.NoError(t, err)
	return zm
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero groups", func(c *Config) { c.Groups = 0 }},
		{"too many groups", func(c *Config) { c.Groups = 33 }},
		{"zero bits", func(c *Config) { c.BitsPerGroup = 0 }},
		{"too many bits", func(c *Config) { c.BitsPerGroup = 17 }},
		{"zero code bits", func(c *Config) { c.CodeBits = 0 }},
		{"single candidate", func(c *Config) { c.TopCandidates = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfig_Layout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1024, cfg.NumBuckets())
	assert.Equal(t, 2, cfg.CodeWords())
	assert.Equal(t, 6*10+128, cfg.projections())

	cfg.CodeBits = 65
	assert.Equal(t, 2, cfg.CodeWords())
}

func TestHasher_Lifecycle(t *testing.T) {
	h, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, h.Initialized())

	m := mustMatrix(t, []float32{1, 2, 3, 4}, 2)
	_, err = h.BuildIndex(m, []float32{0, 0})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = h.Match(&Index{}, m, &Index{}, m)
	assert.ErrorIs(t, err, ErrNotInitialized)

	assert.Error(t, h.Init(0))
	require.NoError(t, h.Init(2))
	assert.True(t, h.Initialized())
	assert.Equal(t, 2, h.Dim())
	assert.ErrorIs(t, h.Init(2), ErrAlreadyInitialized)
}

func TestHasher_BuildIndexDimensionMismatch(t *testing.T) {
	h := mustHasher(t, DefaultConfig(), 4)

	m := mustMatrix(t, []float32{1, 2, 3, 4}, 2)
	_, err := h.BuildIndex(m, []float32{0, 0, 0, 0})
	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)

	_, err = h.BuildIndex(m, []float32{0, 0})
	assert.ErrorAs(t, err, &dimErr)
}

func TestHasher_Deterministic(t *testing.T) {
	rng := testutil.NewRNG(42)
	data := rng.UniformDescriptors(64, 16)
	m := mustMatrix(t, data, 16)
	zm := mustZeroMean(t, 16, m)

	x1, err := mustHasher(t, DefaultConfig(), 16).BuildIndex(m, zm)
	require.NoError(t, err)
	x2, err := mustHasher(t, DefaultConfig(), 16).BuildIndex(m, zm)
	require.NoError(t, err)

	assert.Equal(t, x1.codes, x2.codes)
	assert.Equal(t, x1.bucketIDs, x2.bucketIDs)

	other := DefaultConfig()
	other.Seed = 7
	x3, err := mustHasher(t, other, 16).BuildIndex(m, zm)
	require.NoError(t, err)
	assert.NotEqual(t, x1.codes, x3.codes)
}

func TestHasher_NarrowAndWideIndexAgree(t *testing.T) {
	rng := testutil.NewRNG(3)
	narrow := rng.Uint8Descriptors(50, 32)
	nm := mustMatrix(t, narrow, 32)
	wm := mustMatrix(t, testutil.Widen(narrow), 32)
	zm := mustZeroMean(t, 32, nm)

	h := mustHasher(t, DefaultConfig(), 32)
	xn, err := h.BuildIndex(nm, zm)
	require.NoError(t, err)
	xw, err := h.BuildIndex(wm, zm)
	require.NoError(t, err)

	assert.Equal(t, xn.codes, xw.codes)
	assert.Equal(t, xn.bucketIDs, xw.bucketIDs)
}

func TestIndex_Buckets(t *testing.T) {
	rng := testutil.NewRNG(9)
	const n, dim = 300, 8
	m := mustMatrix(t, rng.UniformDescriptors(n, dim), dim)

	h := mustHasher(t, smallConfig(), dim)
	x, err := h.BuildIndex(m, mustZeroMean(t, dim, m))
	require.NoError(t, err)

	assert.Equal(t, n, x.Len())
	assert.Equal(t, 2, x.Groups())
	assert.Positive(t, x.SizeBytes())

	for g := range x.Groups() {
		total := 0
		for b := range smallConfig().NumBuckets() {
			ids := x.Bucket(g, uint16(b))
			assert.True(t, slices.IsSorted(ids))
			for _, id := range ids {
				assert.Equal(t, uint16(b), x.BucketID(int(id), g))
			}
			total += len(ids)
		}
		assert.Equal(t, n, total)

		for i := range n {
			assert.Contains(t, x.Bucket(g, x.BucketID(i, g)), int32(i))
		}
	}
}

func TestIndex_Empty(t *testing.T) {
	h := mustHasher(t, DefaultConfig(), 4)
	m := mustMatrix[float32](t, nil, 4)

	x, err := h.BuildIndex(m, make([]float32, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, x.Len())
	assert.Empty(t, x.Bucket(0, 0))
}

func TestMatch_TwoDimensional(t *testing.T) {
	a := mustMatrix(t, []float32{0, 0, 10, 10}, 2)
	b := mustMatrix(t, []float32{0.1, 0.1, 9.9, 9.9, 5, 5}, 2)
	zm := mustZeroMean(t, 2, a, b)
	assert.InDeltaSlice(t, []float32{5, 5}, zm, 1e-5)

	h := mustHasher(t, DefaultConfig(), 2)
	xa, err := h.BuildIndex(a, zm)
	require.NoError(t, err)
	xb, err := h.BuildIndex(b, zm)
	require.NoError(t, err)

	nn, err := h.Match(xb, b, xa, a)
	require.NoError(t, err)
	require.Len(t, nn, 3)

	assert.Equal(t, int32(0), nn[0].Query)
	assert.Equal(t, int32(0), nn[0].First)
	assert.Equal(t, int32(1), nn[0].Second)
	assert.InDelta(t, 0.02, nn[0].D1, 1e-4)
	assert.InDelta(t, 196.02, nn[0].D2, 1e-2)

	assert.Equal(t, int32(1), nn[1].First)
	assert.InDelta(t, 0.02, nn[1].D1, 1e-4)

	assert.InDelta(t, 50, nn[2].D1, 1e-4)
	assert.InDelta(t, 50, nn[2].D2, 1e-4)
}

func TestMatch_WithoutFallbackDropsSparseQueries(t *testing.T) {
	a := mustMatrix(t, []float32{0, 0, 10, 10}, 2)
	b := mustMatrix(t, []float32{0.1, 0.1, 9.9, 9.9}, 2)
	zm := mustZeroMean(t, 2, a, b)

	cfg := DefaultConfig()
	cfg.ExhaustiveFallback = false
	h := mustHasher(t, cfg, 2)
	xa, err := h.BuildIndex(a, zm)
	require.NoError(t, err)
	xb, err := h.BuildIndex(b, zm)
	require.NoError(t, err)

	// Antipodal points never share a bucket, so each query sees one candidate.
	nn, err := h.Match(xb, b, xa, a)
	require.NoError(t, err)
	assert.Empty(t, nn)
}

func TestMatch_Self(t *testing.T) {
	rng := testutil.NewRNG(11)
	const n, dim = 200, 32
	m := mustMatrix(t, rng.UniformDescriptors(n, dim), dim)

	h := mustHasher(t, DefaultConfig(), dim)
	x, err := h.BuildIndex(m, mustZeroMean(t, dim, m))
	require.NoError(t, err)

	nn, err := h.Match(x, m, x, m)
	require.NoError(t, err)
	require.Len(t, nn, n)
	for i, r := range nn {
		assert.Equal(t, int32(i), r.Query)
		assert.Equal(t, int32(i), r.First)
		assert.Zero(t, r.D1)
		assert.LessOrEqual(t, r.D1, r.D2)
	}
}

func TestMatch_TooFewBaseDescriptors(t *testing.T) {
	h := mustHasher(t, DefaultConfig(), 2)
	a := mustMatrix(t, []float32{1, 1}, 2)
	b := mustMatrix(t, []float32{1, 1, 2, 2}, 2)
	zm := []float32{0, 0}

	xa, err := h.BuildIndex(a, zm)
	require.NoError(t, err)
	xb, err := h.BuildIndex(b, zm)
	require.NoError(t, err)

	nn, err := h.Match(xb, b, xa, a)
	require.NoError(t, err)
	assert.Nil(t, nn)

	empty := mustMatrix[float32](t, nil, 2)
	xe, err := h.BuildIndex(empty, zm)
	require.NoError(t, err)
	nn, err = h.Match(xe, empty, xb, b)
	require.NoError(t, err)
	assert.Nil(t, nn)
}

func TestMatch_IncompatibleIndex(t *testing.T) {
	m := mustMatrix(t, []float32{1, 1, 2, 2}, 2)
	zm := []float32{0, 0}

	h1 := mustHasher(t, DefaultConfig(), 2)
	h2 := mustHasher(t, smallConfig(), 2)
	x1, err := h1.BuildIndex(m, zm)
	require.NoError(t, err)
	x2, err := h2.BuildIndex(m, zm)
	require.NoError(t, err)

	_, err = h1.Match(x1, m, x2, m)
	assert.ErrorIs(t, err, ErrIncompatibleIndex)
}

func TestMatch_PrunedAgreesWithBruteForce(t *testing.T) {
	t.Run("float32 small layout", func(t *testing.T) {
		rng := testutil.NewRNG(1234)
		const n, dim = 200, 32
		baseData := rng.UniformDescriptors(n, dim)
		perm := rng.Perm(n)
		queryData := testutil.PerturbedCopy(baseData, dim, perm, rng, 1e-4)

		assertAgreesWithBruteForce(t, smallConfig(), queryData, baseData, dim, perm)
	})

	t.Run("uint8 default layout", func(t *testing.T) {
		rng := testutil.NewRNG(5678)
		const n, dim = 300, 128
		baseData := rng.Uint8Descriptors(n, dim)
		perm := rng.Perm(n)
		queryData := testutil.PerturbedUint8Copy(baseData, dim, perm, rng, 1)

		assertAgreesWithBruteForce(t, DefaultConfig(), queryData, baseData, dim, perm)
	})
}

func assertAgreesWithBruteForce[T descriptor.Element](t *testing.T, cfg Config, queryData, baseData []T, dim int, perm []int) {
	t.Helper()

	qm := mustMatrix(t, queryData, dim)
	bm := mustMatrix(t, baseData, dim)
	zm := mustZeroMean(t, dim, qm, bm)

	h := mustHasher(t, cfg, dim)
	xq, err := h.BuildIndex(qm, zm)
	require.NoError(t, err)
	xb, err := h.BuildIndex(bm, zm)
	require.NoError(t, err)

	nn, err := h.Match(xq, qm, xb, bm)
	require.NoError(t, err)

	wideQuery := make([]float32, 0, len(queryData))
	for i := range qm.Len() {
		wideQuery = append(wideQuery, qm.Expand(i, make([]float32, dim))...)
	}
	truth := testutil.BruteForce(wideQuery, baseData, dim)

	// Near-duplicate queries: pruning must never lose the true nearest neighbor.
	for _, r := range nn {
		assert.LessOrEqual(t, r.D1, r.D2)
		assert.Equal(t, truth[r.Query].First, int(r.First), "query %d", r.Query)
		assert.Equal(t, perm[r.Query], int(r.First), "query %d", r.Query)
	}
	assert.GreaterOrEqual(t, len(nn), len(perm)*95/100)
}
