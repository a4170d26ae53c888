package distance

import "math/bits"

// Element is the set of native descriptor element types.
type Element interface {
	~uint8 | ~float32
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return SquaredL2To(a, b)
}

// SquaredL2To calculates the squared L2 distance between a float32 query and
// a row in its native element type. Each instantiation is compiled for its
// element type, so no per-element type switch happens in the loop.
//
// For uint8 rows of up to 258 dimensions the result is exact in float32.
func SquaredL2To[T Element](q []float32, row []T) float32 {
	row = row[:len(q)]

	var d0, d1, d2, d3 float32
	i := 0
	for ; i+4 <= len(q); i += 4 {
		x0 := q[i] - float32(row[i])
		x1 := q[i+1] - float32(row[i+1])
		x2 := q[i+2] - float32(row[i+2])
		x3 := q[i+3] - float32(row[i+3])
		d0 += x0 * x0
		d1 += x1 * x1
		d2 += x2 * x2
		d3 += x3 * x3
	}
	for ; i < len(q); i++ {
		x := q[i] - float32(row[i])
		d0 += x * x
	}
	return (d0 + d1) + (d2 + d3)
}

// Hamming returns the number of differing bits between two packed codes.
// Assumes codes are the same length.
func Hamming(a, b []uint64) int {
	b = b[:len(a)]

	n := 0
	for i := range a {
		n += bits.OnesCount64(a[i] ^ b[i])
	}
	return n
}
