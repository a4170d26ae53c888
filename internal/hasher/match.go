package hasher

import (
	"math"

	"github.com/hupe1980/cascade/distance"
	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/internal/pool"
)

// Neighbors holds the two nearest base descriptors of one query descriptor.
// D1 <= D2 are squared L2 distances.
type Neighbors struct {
	Query  int32
	First  int32
	Second int32
	D1     float32
	D2     float32
}

// Match finds, for every descriptor of query, its two nearest neighbors
// among the descriptors of base. Queries left with fewer than two
// candidates produce no entry. Results are ordered by query index.
func (h *Hasher) Match(query *Index, qv descriptor.View, base *Index, bv descriptor.View) ([]Neighbors, error) {
	if h.proj == nil {
		return nil, ErrNotInitialized
	}
	if !query.compatible(base) || query.groups != h.cfg.Groups || query.codeBits != h.cfg.CodeBits {
		return nil, ErrIncompatibleIndex
	}
	if query.n != qv.Len() || base.n != bv.Len() {
		return nil, ErrIncompatibleIndex
	}
	if query.n == 0 || base.n < 2 {
		return nil, nil
	}
	if qv.Dim() != h.dim || bv.Dim() != h.dim {
		return nil, &ErrDimensionMismatch{Expected: h.dim, Actual: qv.Dim()}
	}

	mc := pool.Get(h.cfg.CodeBits, h.dim)
	defer pool.Put(mc)

	out := make([]Neighbors, 0, query.n)
	for i := range query.n {
		h.gather(mc, query, i, base)
		if mc.NumCandidates() >= 2 {
			nn := h.nearest(mc, qv.Expand(i, mc.Query), bv)
			nn.Query = int32(i)
			out = append(out, nn)
		}
		mc.Reset()
	}
	return out, nil
}

// gather bins every base descriptor sharing a bucket with query descriptor i
// by fingerprint Hamming distance.
func (h *Hasher) gather(mc *pool.MatchContext, query *Index, i int, base *Index) {
	code := query.Code(i)
	for g := range query.groups {
		for _, id := range base.Bucket(g, query.BucketID(i, g)) {
			if mc.MarkVisited(id) {
				continue
			}
			mc.Add(distance.Hamming(code, base.Code(int(id))), id)
		}
	}

	if mc.NumCandidates() >= 2 || !h.cfg.ExhaustiveFallback {
		return
	}
	for id := range int32(base.n) {
		if mc.MarkVisited(id) {
			continue
		}
		mc.Add(distance.Hamming(code, base.Code(int(id))), id)
	}
}

// nearest walks the bins in ascending Hamming distance, computes exact
// distances for up to TopCandidates candidates and keeps the two smallest.
// Ties keep the earlier candidate.
func (h *Hasher) nearest(mc *pool.MatchContext, q []float32, bv descriptor.View) Neighbors {
	nn := Neighbors{
		First:  -1,
		Second: -1,
		D1:     math.MaxFloat32,
		D2:     math.MaxFloat32,
	}

	budget := h.cfg.TopCandidates
	for hd := 0; hd <= h.cfg.CodeBits && budget > 0; hd++ {
		for _, id := range mc.Bins[hd] {
			if budget == 0 {
				break
			}
			budget--

			d := bv.SquaredL2(int(id), q)
			switch {
			case nn.First < 0 || d < nn.D1:
				nn.Second, nn.D2 = nn.First, nn.D1
				nn.First, nn.D1 = id, d
			case nn.Second < 0 || d < nn.D2:
				nn.Second, nn.D2 = id, d
			}
		}
	}
	return nn
}
