// Package pool provides reusable scratch state for per-query candidate gathering.
// Uses sync.Pool for automatic memory reuse and bitsets for visited tracking.
package pool

import (
	"sync"

	"github.com/bits-and-blooms/bitset"
)

const (
	// DefaultMaxCandidates is the initial capacity of the visited bitset.
	// Images rarely carry more than this many descriptors.
	DefaultMaxCandidates = 1 << 14

	// DefaultMaxDimensions is the initial capacity of the query buffer.
	DefaultMaxDimensions = 256
)

// MatchContext holds the per-query scratch space of the cascade matcher.
// A context is owned by one goroutine between Get and Put.
type MatchContext struct {
	// Visited marks base descriptors already gathered for the current query.
	Visited *bitset.BitSet
	// Touched lists the ids set in Visited, for cheap clearing.
	Touched []int32
	// Bins holds gathered candidates binned by Hamming distance.
	Bins [][]int32
	// UsedBins lists the non-empty bins.
	UsedBins []int
	// Query is the widened query descriptor.
	Query []float32
}

var matchContextPool = sync.Pool{
	New: func() any {
		return &MatchContext{
			Visited: bitset.New(DefaultMaxCandidates),
			Query:   make([]float32, 0, DefaultMaxDimensions),
		}
	},
}

// Get retrieves a MatchContext sized for codes of codeBits bits and
// descriptors of dim dimensions.
func Get(codeBits, dim int) *MatchContext {
	mc := matchContextPool.Get().(*MatchContext)
	if len(mc.Bins) < codeBits+1 {
		bins := make([][]int32, codeBits+1)
		copy(bins, mc.Bins)
		mc.Bins = bins
	}
	if cap(mc.Query) < dim {
		mc.Query = make([]float32, dim)
	}
	mc.Query = mc.Query[:dim]
	return mc
}

// Put resets mc and returns it to the pool.
func Put(mc *MatchContext) {
	mc.Reset()
	if mc.Visited.Len() > DefaultMaxCandidates*16 {
		mc.Visited = bitset.New(DefaultMaxCandidates)
	}
	matchContextPool.Put(mc)
}

// MarkVisited marks id as gathered.
// Returns true if id was already gathered for the current query.
func (mc *MatchContext) MarkVisited(id int32) bool {
	if mc.Visited.Test(uint(id)) {
		return true
	}
	mc.Visited.Set(uint(id))
	mc.Touched = append(mc.Touched, id)
	return false
}

// Add bins candidate id under Hamming distance h.
func (mc *MatchContext) Add(h int, id int32) {
	if len(mc.Bins[h]) == 0 {
		mc.UsedBins = append(mc.UsedBins, h)
	}
	mc.Bins[h] = append(mc.Bins[h], id)
}

// NumCandidates returns the number of candidates gathered for the current query.
func (mc *MatchContext) NumCandidates() int {
	return len(mc.Touched)
}

// Reset clears the per-query state in time proportional to what was touched.
func (mc *MatchContext) Reset() {
	for _, id := range mc.Touched {
		mc.Visited.Clear(uint(id))
	}
	mc.Touched = mc.Touched[:0]
	for _, h := range mc.UsedBins {
		mc.Bins[h] = mc.Bins[h][:0]
	}
	mc.UsedBins = mc.UsedBins[:0]
}
