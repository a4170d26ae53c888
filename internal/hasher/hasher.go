package hasher

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/hupe1980/cascade/internal/descriptor"
)

// blockRows is the number of descriptors projected per GEMM call.
const blockRows = 256

var (
	// ErrNotInitialized is returned when the hasher is used before Init.
	ErrNotInitialized = errors.New("hasher not initialized")
	// ErrAlreadyInitialized is returned when Init is called twice.
	ErrAlreadyInitialized = errors.New("hasher already initialized")
	// ErrIncompatibleIndex is returned when matching indices of different layouts.
	ErrIncompatibleIndex = errors.New("incompatible hash indices")
)

// ErrDimensionMismatch indicates a descriptor or zero-mean dimension that
// differs from the one the hasher was initialized with.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Hasher builds and matches cascade hash indices.
type Hasher struct {
	cfg  Config
	dim  int
	rows int
	// proj is the rows × dim projection matrix: primary rows first
	// (group-major), then the secondary fingerprint rows.
	proj []float32
}

// New creates a hasher with the given configuration.
// Init must be called before indexing.
func New(cfg Config) (*Hasher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{cfg: cfg, rows: cfg.projections()}, nil
}

// Config returns the hasher configuration.
func (h *Hasher) Config() Config { return h.cfg }

// Dim returns the descriptor dimension, or 0 before Init.
func (h *Hasher) Dim() int { return h.dim }

// Initialized reports whether Init has been called.
func (h *Hasher) Initialized() bool { return h.proj != nil }

// Init draws the projection vectors for descriptors of the given dimension.
// It must be called exactly once, before any BuildIndex or Match.
func (h *Hasher) Init(dim int) error {
	if h.proj != nil {
		return ErrAlreadyInitialized
	}
	if dim <= 0 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrInvalidConfig, dim)
	}

	rng := rand.New(rand.NewSource(h.cfg.Seed))
	proj := make([]float32, h.rows*dim)
	for i := range proj {
		proj[i] = float32(rng.NormFloat64())
	}

	h.dim = dim
	h.proj = proj
	return nil
}

// BuildIndex hashes the descriptors of v recentered by zeroMean.
// Narrow descriptors are widened to float32 before projection.
func (h *Hasher) BuildIndex(v descriptor.View, zeroMean []float32) (*Index, error) {
	if h.proj == nil {
		return nil, ErrNotInitialized
	}
	if len(zeroMean) != h.dim {
		return nil, &ErrDimensionMismatch{Expected: h.dim, Actual: len(zeroMean)}
	}

	n := v.Len()
	if n > 0 && v.Dim() != h.dim {
		return nil, &ErrDimensionMismatch{Expected: h.dim, Actual: v.Dim()}
	}

	x := &Index{
		n:         n,
		groups:    h.cfg.Groups,
		buckets:   h.cfg.NumBuckets(),
		words:     h.cfg.CodeWords(),
		codeBits:  h.cfg.CodeBits,
		codes:     make([]uint64, n*h.cfg.CodeWords()),
		bucketIDs: make([]uint16, n*h.cfg.Groups),
	}

	if n > 0 {
		h.project(v, zeroMean, x)
	}
	x.buildBuckets()
	return x, nil
}

// project computes bucket ids and fingerprints block by block:
// out[b × rows] = centered[b × dim] · projᵀ.
func (h *Hasher) project(v descriptor.View, zeroMean []float32, x *Index) {
	dim, rows := h.dim, h.rows
	block := min(blockRows, x.n)
	centered := make([]float32, block*dim)
	out := make([]float32, block*rows)

	for start := 0; start < x.n; start += block {
		b := min(block, x.n-start)
		for r := range b {
			row := v.Expand(start+r, centered[r*dim:(r+1)*dim])
			for j := range row {
				row[j] -= zeroMean[j]
			}
		}

		blas32.Gemm(
			blas.NoTrans,
			blas.Trans,
			1.0,
			blas32.General{Rows: b, Cols: dim, Stride: dim, Data: centered[:b*dim]},
			blas32.General{Rows: rows, Cols: dim, Stride: dim, Data: h.proj},
			0.0,
			blas32.General{Rows: b, Cols: rows, Stride: rows, Data: out[:b*rows]},
		)

		for r := range b {
			h.encode(out[r*rows:(r+1)*rows], start+r, x)
		}
	}
}

func (h *Hasher) encode(p []float32, i int, x *Index) {
	bits := h.cfg.BitsPerGroup
	for g := range h.cfg.Groups {
		var id uint16
		for _, s := range p[g*bits : (g+1)*bits] {
			id <<= 1
			if s > 0 {
				id |= 1
			}
		}
		x.bucketIDs[i*x.groups+g] = id
	}

	code := x.codes[i*x.words : (i+1)*x.words]
	for k, s := range p[h.cfg.Groups*bits:] {
		if s > 0 {
			code[k/64] |= 1 << (k % 64)
		}
	}
}
