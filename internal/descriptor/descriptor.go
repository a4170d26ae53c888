package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/hupe1980/cascade/distance"
)

// Kind identifies the element representation of a descriptor buffer.
type Kind uint8

const (
	// KindUnknown is the zero value and is never valid.
	KindUnknown Kind = iota
	// KindUint8 is the narrow (quantized) representation.
	KindUint8
	// KindFloat32 is the wide (floating point) representation.
	KindFloat32
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUint8:
		return "uint8"
	case KindFloat32:
		return "float32"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Size returns the element size in bytes, or 0 for unknown kinds.
func (k Kind) Size() int {
	switch k {
	case KindUint8:
		return 1
	case KindFloat32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k == KindUint8 || k == KindFloat32
}

// ErrUnsupportedKind is returned for element kinds outside the supported set.
var ErrUnsupportedKind = errors.New("unsupported descriptor kind")

// ErrInvalidBuffer is returned when a buffer does not hold count × dim elements.
var ErrInvalidBuffer = errors.New("invalid descriptor buffer")

// Element is the set of supported element types.
type Element = distance.Element

// View is a read-only numeric view of one image's descriptors.
type View interface {
	// Kind returns the element representation.
	Kind() Kind
	// Len returns the number of descriptors.
	Len() int
	// Dim returns the descriptor dimension.
	Dim() int
	// Expand writes row i widened to float32 into dst and returns dst[:Dim()].
	Expand(i int, dst []float32) []float32
	// SquaredL2 returns the squared L2 distance between q and row i.
	SquaredL2(i int, q []float32) float32
}

// Matrix is a row-major count × dim descriptor matrix in its native type.
type Matrix[T Element] struct {
	data []T
	n    int
	dim  int
	kind Kind
}

// KindOf returns the Kind of element type T.
func KindOf[T Element]() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case float32:
		return KindFloat32
	default:
		return KindUnknown
	}
}

// NewMatrix wraps data as a matrix of len(data)/dim rows.
// The slice is retained, not copied; callers must not mutate it afterwards.
func NewMatrix[T Element](data []T, dim int) (*Matrix[T], error) {
	kind := KindOf[T]()
	if !kind.Valid() {
		return nil, ErrUnsupportedKind
	}
	if dim <= 0 {
		if len(data) != 0 {
			return nil, fmt.Errorf("%w: dimension %d with %d elements", ErrInvalidBuffer, dim, len(data))
		}
		return &Matrix[T]{kind: kind, dim: max(dim, 0)}, nil
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("%w: %d elements is not a multiple of dimension %d", ErrInvalidBuffer, len(data), dim)
	}
	return &Matrix[T]{data: data, n: len(data) / dim, dim: dim, kind: kind}, nil
}

// Kind implements View.
func (m *Matrix[T]) Kind() Kind { return m.kind }

// Len implements View.
func (m *Matrix[T]) Len() int { return m.n }

// Dim implements View.
func (m *Matrix[T]) Dim() int { return m.dim }

// Row returns row i in its native type.
func (m *Matrix[T]) Row(i int) []T {
	return m.data[i*m.dim : (i+1)*m.dim]
}

// Expand implements View.
func (m *Matrix[T]) Expand(i int, dst []float32) []float32 {
	dst = dst[:m.dim]
	row := m.Row(i)
	for j, v := range row {
		dst[j] = float32(v)
	}
	return dst
}

// SquaredL2 implements View.
func (m *Matrix[T]) SquaredL2(i int, q []float32) float32 {
	return distance.SquaredL2To(q, m.Row(i))
}

// FromBytes interprets raw as count × dim elements of the given kind.
// Float32 elements are little-endian; when raw is suitably aligned on a
// little-endian host the bytes are reinterpreted without copying.
func FromBytes(kind Kind, raw []byte, count, dim int) (View, error) {
	size := kind.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
	if count < 0 || dim < 0 || len(raw) != count*dim*size {
		return nil, fmt.Errorf("%w: %d bytes for %d × %d %s", ErrInvalidBuffer, len(raw), count, dim, kind)
	}

	if kind == KindUint8 {
		m, err := NewMatrix(raw, dim)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := NewMatrix(float32s(raw), dim)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func float32s(raw []byte) []float32 {
	n := len(raw) / 4
	if n == 0 {
		return nil
	}
	if littleEndian && uintptr(unsafe.Pointer(&raw[0]))%unsafe.Alignof(float32(0)) == 0 {
		return unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), n)
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()
