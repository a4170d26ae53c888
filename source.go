package cascade

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/model"
)

// Kind identifies the element representation of a descriptor set.
type Kind = descriptor.Kind

// Supported element kinds.
const (
	KindUint8   = descriptor.KindUint8
	KindFloat32 = descriptor.KindFloat32
)

// Element is the set of supported descriptor element types.
type Element = descriptor.Element

// Regions is one image's feature set: keypoint positions and a flat
// descriptor buffer of Len() × Dim() elements.
// Regions are immutable and safe for concurrent reads.
type Regions struct {
	kind   Kind
	dim    int
	count  int
	raw    []byte
	points []model.Point
	view   descriptor.View
}

// NewRegions builds a descriptor set from typed, row-major descriptors.
// len(points) must equal len(data)/dim.
func NewRegions[T Element](data []T, dim int, points []model.Point) (*Regions, error) {
	kind := descriptor.KindOf[T]()
	size := kind.Size()
	raw := make([]byte, len(data)*size)

	switch v := any(data).(type) {
	case []uint8:
		copy(raw, v)
	case []float32:
		for i, x := range v {
			binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(x))
		}
	default:
		return nil, ErrUnsupportedKind
	}

	count := 0
	if dim > 0 {
		count = len(data) / dim
	}
	return RegionsFromBytes(kind, raw, count, dim, points)
}

// RegionsFromBytes builds a descriptor set from a raw little-endian buffer.
// The buffer is retained, not copied.
func RegionsFromBytes(kind Kind, raw []byte, count, dim int, points []model.Point) (*Regions, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if len(points) != count {
		return nil, &ErrInvalidRegions{Reason: fmt.Sprintf("%d points for %d descriptors", len(points), count)}
	}
	if count > 0 && dim <= 0 {
		return nil, &ErrInvalidRegions{Reason: fmt.Sprintf("%d descriptors of dimension %d", count, dim)}
	}

	view, err := descriptor.FromBytes(kind, raw, count, dim)
	if err != nil {
		return nil, translateError(err)
	}

	return &Regions{
		kind:   kind,
		dim:    dim,
		count:  count,
		raw:    raw,
		points: points,
		view:   view,
	}, nil
}

// Kind returns the descriptor element kind.
func (r *Regions) Kind() Kind { return r.kind }

// Dim returns the descriptor dimension.
func (r *Regions) Dim() int { return r.dim }

// Len returns the number of features.
func (r *Regions) Len() int { return r.count }

// Points returns the keypoint positions, one per descriptor.
func (r *Regions) Points() []model.Point { return r.points }

// Bytes returns the raw little-endian descriptor buffer.
func (r *Regions) Bytes() []byte { return r.raw }

// View returns the typed numeric view of the descriptors.
func (r *Regions) View() descriptor.View { return r.view }

// Source resolves image ids to their descriptor sets.
// Implementations must be safe for concurrent use.
type Source interface {
	Regions(id model.ImageID) (*Regions, bool)
}

// MemorySource is a map-backed Source. It must not be modified while a
// job is running.
type MemorySource map[model.ImageID]*Regions

// Regions implements Source.
func (s MemorySource) Regions(id model.ImageID) (*Regions, bool) {
	r, ok := s[id]
	return r, ok && r != nil
}
