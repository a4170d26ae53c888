package cascade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/internal/filter"
	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/internal/indexcache"
	"github.com/hupe1980/cascade/internal/zeromean"
	"github.com/hupe1980/cascade/model"
	"github.com/hupe1980/cascade/resource"
)

// Matcher computes putative correspondences between image pairs.
// A Matcher is safe for concurrent use; every MatchAll call is an
// independent job with its own projections and index cache.
type Matcher struct {
	opts options
	rc   *resource.Controller
}

// New creates a Matcher. Configuration errors are reported here, before
// any matching work.
func New(optFns ...Option) (*Matcher, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if err := filter.ValidateRatio(o.ratio); err != nil {
		return nil, err
	}
	if err := o.hash.Validate(); err != nil {
		return nil, err
	}

	rc := o.rc
	if rc == nil {
		rc = resource.NewController(resource.Config{
			MemoryLimitBytes: o.memoryLimit,
			MaxWorkers:       int64(o.workers),
		})
	}

	return &Matcher{opts: o, rc: rc}, nil
}

// Ratio returns the ratio-test threshold.
func (m *Matcher) Ratio() float32 { return m.opts.ratio }

// HashConfig returns the hashing layout.
func (m *Matcher) HashConfig() HashConfig { return m.opts.hash }

// Workers returns the worker limit.
func (m *Matcher) Workers() int { return m.opts.workers }

// job is the state of one MatchAll call.
type job struct {
	*Matcher
	log     *Logger
	regions map[model.ImageID]*Regions
	hasher  *hasher.Hasher
	zm      []float32
	cache   *indexcache.Cache

	mu    sync.Mutex
	out   model.PairwiseMatches
	done  int
	total int
}

// MatchAll matches every pair of the set and returns the correspondences
// of the pairs that produced at least one. Correspondence A indexes the
// descriptors of Pair.I and B those of Pair.J.
//
// Unknown images, inconsistent descriptor dimensions and invalid pairs
// fail the whole job before any matching. Pairs whose images differ in
// element kind or have no descriptors are skipped. Canceling ctx abandons
// the job between pairs.
func (m *Matcher) MatchAll(ctx context.Context, src Source, pairs model.PairSet) (out model.PairwiseMatches, err error) {
	start := time.Now()
	log := m.opts.logger.WithJob(uuid.NewString())

	defer func() {
		m.opts.metricsCollector.RecordJob(len(pairs), time.Since(start), err)
		log.LogJobDone(ctx, len(out), out.NumCorrespondences(), time.Since(start), err)
	}()

	sorted, err := normalizePairs(pairs)
	if err != nil {
		return nil, err
	}

	ws := workingSet(sorted)
	log.LogJobStart(ctx, int(ws.GetCardinality()), len(sorted), m.opts.workers)

	if len(sorted) == 0 {
		return model.PairwiseMatches{}, nil
	}

	j := &job{
		Matcher: m,
		log:     log,
		out:     make(model.PairwiseMatches),
		total:   len(sorted),
	}
	if err := j.resolve(src, ws); err != nil {
		return nil, err
	}
	if err := j.prepare(ctx, ws); err != nil {
		return nil, err
	}
	if j.cache != nil {
		defer j.cache.Close()
	}

	for _, group := range groupByFirst(sorted) {
		if err := j.matchGroup(ctx, group); err != nil {
			return nil, translateError(err)
		}
	}
	return j.out, nil
}

// resolve looks up every image of the working set and checks that all
// non-empty descriptor sets share one dimension.
func (j *job) resolve(src Source, ws *roaring.Bitmap) error {
	j.regions = make(map[model.ImageID]*Regions, ws.GetCardinality())

	it := ws.Iterator()
	for it.HasNext() {
		id := model.ImageID(it.Next())
		r, ok := src.Regions(id)
		if !ok {
			return &ErrUnknownImage{ID: id}
		}
		j.regions[id] = r
	}

	dim := -1
	it = ws.Iterator()
	for it.HasNext() {
		id := model.ImageID(it.Next())
		r := j.regions[id]
		if r.View() == nil {
			return &ErrInvalidRegions{Reason: fmt.Sprintf("image %d has no descriptor view", id)}
		}
		if r.Len() == 0 {
			continue
		}
		if dim < 0 {
			dim = r.Dim()
		} else if r.Dim() != dim {
			return &ErrDimensionMismatch{Image: id, Expected: dim, Actual: r.Dim()}
		}
	}
	if dim > 0 {
		j.zm = make([]float32, dim)
	}
	return nil
}

// prepare estimates the zero-mean vector, draws the projections and builds
// the index of every non-empty image in parallel.
func (j *job) prepare(ctx context.Context, ws *roaring.Bitmap) error {
	if j.zm == nil {
		// Every image is empty; all pairs will be skipped.
		return nil
	}
	dim := len(j.zm)

	ids := make([]model.ImageID, 0, ws.GetCardinality())
	views := make([]descriptor.View, 0, ws.GetCardinality())
	it := ws.Iterator()
	for it.HasNext() {
		id := model.ImageID(it.Next())
		ids = append(ids, id)
		views = append(views, j.regions[id].View())
	}

	zm, err := zeromean.Estimate(views, dim)
	if err != nil {
		return translateError(err)
	}
	j.zm = zm

	h, err := hasher.New(j.opts.hash)
	if err != nil {
		return err
	}
	if err := h.Init(dim); err != nil {
		return translateError(err)
	}
	j.hasher = h
	j.cache = indexcache.New(j.buildIndex, j.rc)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.opts.workers)
	for _, id := range ids {
		if j.regions[id].Len() == 0 {
			continue
		}
		g.Go(func() error {
			if err := j.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer j.rc.ReleaseWorker()

			_, err := j.cache.GetOrBuild(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		j.cache.Close()
		j.cache = nil
		return translateError(err)
	}
	return nil
}

func (j *job) buildIndex(ctx context.Context, id model.ImageID) (*hasher.Index, error) {
	start := time.Now()
	r := j.regions[id]

	x, err := j.hasher.BuildIndex(r.View(), j.zm)

	var size int64
	if x != nil {
		size = x.SizeBytes()
	}
	j.opts.metricsCollector.RecordIndexBuild(r.Len(), size, time.Since(start), err)
	j.log.LogIndexBuild(ctx, id, r.Len(), size, err)
	return x, err
}

// matchGroup matches all pairs sharing a first image concurrently.
func (j *job) matchGroup(ctx context.Context, group []model.Pair) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.opts.workers)

	for _, p := range group {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := j.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer j.rc.ReleaseWorker()

			return j.matchPair(gctx, p)
		})
	}
	return g.Wait()
}

func (j *job) matchPair(ctx context.Context, p model.Pair) error {
	ri, rj := j.regions[p.I], j.regions[p.J]

	switch {
	case ri.Kind() != rj.Kind():
		j.skip(ctx, p, SkipKindMismatch)
		return nil
	case ri.Len() == 0 || rj.Len() == 0:
		j.skip(ctx, p, SkipEmpty)
		return nil
	}

	start := time.Now()

	base, err := j.cache.GetOrBuild(ctx, p.I)
	if err != nil {
		return err
	}
	query, err := j.cache.GetOrBuild(ctx, p.J)
	if err != nil {
		return err
	}

	nn, err := j.hasher.Match(query, rj.View(), base, ri.View())
	if err != nil {
		return err
	}

	matches := filter.RatioTest(nn, j.opts.ratio)
	matches = filter.Dedup(matches)
	matches = filter.DedupPositions(matches, ri.Points(), rj.Points())

	j.opts.metricsCollector.RecordPair(len(matches), time.Since(start))

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(matches) > 0 {
		j.out[p] = matches
	}
	j.advance()
	return nil
}

func (j *job) skip(ctx context.Context, p model.Pair, reason SkipReason) {
	j.opts.metricsCollector.RecordSkip(reason)
	j.log.LogPairSkipped(ctx, p, reason)

	j.mu.Lock()
	defer j.mu.Unlock()
	j.advance()
}

// advance must be called with j.mu held.
func (j *job) advance() {
	j.done++
	j.opts.progress.Advance(j.done, j.total)
}

// normalizePairs validates the set and returns its pairs in (I, J) order.
func normalizePairs(pairs model.PairSet) ([]model.Pair, error) {
	s := make(model.PairSet, len(pairs))
	for p := range pairs {
		if !p.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPair, p)
		}
		s.Add(p.I, p.J)
	}
	return s.Sorted(), nil
}

func workingSet(pairs []model.Pair) *roaring.Bitmap {
	ws := roaring.New()
	for _, p := range pairs {
		ws.Add(uint32(p.I))
		ws.Add(uint32(p.J))
	}
	return ws
}

// groupByFirst splits pairs sorted by (I, J) into runs sharing I.
func groupByFirst(pairs []model.Pair) [][]model.Pair {
	var groups [][]model.Pair
	for start := 0; start < len(pairs); {
		end := start + 1
		for end < len(pairs) && pairs[end].I == pairs[start].I {
			end++
		}
		groups = append(groups, pairs[start:end])
		start = end
	}
	return groups
}
