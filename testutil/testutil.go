package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/cascade/distance"
	"github.com/hupe1980/cascade/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// UniformDescriptors returns n flat float32 descriptors with values in [0, 1).
func (r *RNG) UniformDescriptors(n, dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, n*dim)
	for i := range data {
		data[i] = r.rand.Float32()
	}
	return data
}

// Uint8Descriptors returns n flat uint8 descriptors with values in [0, 255].
func (r *RNG) Uint8Descriptors(n, dim int) []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]uint8, n*dim)
	for i := range data {
		data[i] = uint8(r.rand.Intn(256))
	}
	return data
}

// PerturbedCopy returns descriptors whose row i is row perm[i] of src plus
// uniform noise in [-noise, noise).
func PerturbedCopy(src []float32, dim int, perm []int, r *RNG, noise float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, len(perm)*dim)
	for i, p := range perm {
		row := src[p*dim : (p+1)*dim]
		for j, v := range row {
			out[i*dim+j] = v + (r.rand.Float32()*2-1)*noise
		}
	}
	return out
}

// PerturbedUint8Copy returns descriptors whose row i is row perm[i] of src
// with every element moved by at most maxDelta, clamped to [0, 255].
func PerturbedUint8Copy(src []uint8, dim int, perm []int, r *RNG, maxDelta int) []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint8, len(perm)*dim)
	for i, p := range perm {
		row := src[p*dim : (p+1)*dim]
		for j, v := range row {
			x := int(v) + r.rand.Intn(2*maxDelta+1) - maxDelta
			out[i*dim+j] = uint8(min(max(x, 0), 255))
		}
	}
	return out
}

// GridPoints returns n distinct keypoint positions on a grid.
func GridPoints(n int) []model.Point {
	side := int(math.Ceil(math.Sqrt(float64(n))))
	pts := make([]model.Point, n)
	for i := range pts {
		pts[i] = model.Point{X: float32(i % max(side, 1)), Y: float32(i / max(side, 1))}
	}
	return pts
}

// Neighbor is a brute-force nearest neighbor result.
type Neighbor struct {
	First  int
	Second int
	D1     float32
	D2     float32
}

// BruteForce returns the two exact nearest rows of base for every row of
// queries. Ties keep the lower base index.
func BruteForce[T distance.Element](queries []float32, base []T, dim int) []Neighbor {
	nq, nb := len(queries)/dim, len(base)/dim
	out := make([]Neighbor, nq)
	for i := range nq {
		q := queries[i*dim : (i+1)*dim]
		nn := Neighbor{First: -1, Second: -1, D1: math.MaxFloat32, D2: math.MaxFloat32}
		for j := range nb {
			d := distance.SquaredL2To(q, base[j*dim:(j+1)*dim])
			switch {
			case nn.First < 0 || d < nn.D1:
				nn.Second, nn.D2 = nn.First, nn.D1
				nn.First, nn.D1 = j, d
			case nn.Second < 0 || d < nn.D2:
				nn.Second, nn.D2 = j, d
			}
		}
		out[i] = nn
	}
	return out
}

// Widen converts narrow descriptors to float32.
func Widen(data []uint8) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v)
	}
	return out
}

// MatchRecall returns the fraction of expected correspondences found in got.
func MatchRecall(expected, got []model.Correspondence) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	found := make(map[model.Correspondence]struct{}, len(got))
	for _, c := range got {
		found[c] = struct{}{}
	}
	hits := 0
	for _, c := range expected {
		if _, ok := found[c]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}
