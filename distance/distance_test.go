package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 27},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Mixed", []float32{1, -1}, []float32{-1, 1}, 8},
		{"Empty", []float32{}, []float32{}, 0},
		{"Unrolled", []float32{1, 1, 1, 1, 1, 1, 1}, []float32{0, 0, 0, 0, 0, 0, 0}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestSquaredL2To_Uint8(t *testing.T) {
	q := []float32{0, 10, 255, 3, 4}
	row := []uint8{1, 10, 250, 0, 0}

	// 1 + 0 + 25 + 9 + 16
	assert.Equal(t, float32(51), SquaredL2To(q, row))
}

func TestSquaredL2To_Uint8Exact(t *testing.T) {
	// Worst case SIFT distance must be exact in float32.
	q := make([]float32, 128)
	row := make([]uint8, 128)
	for i := range row {
		row[i] = 255
	}
	assert.Equal(t, float32(128*255*255), SquaredL2To(q, row))
}

func TestHamming(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []uint64
		expected int
	}{
		{"Equal", []uint64{0xff, 1}, []uint64{0xff, 1}, 0},
		{"OneBit", []uint64{0, 0}, []uint64{0, 1 << 63}, 1},
		{"AllBits", []uint64{0}, []uint64{^uint64(0)}, 64},
		{"Empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Hamming(tt.a, tt.b))
		})
	}
}
