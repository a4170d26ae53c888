// Package distance provides the distance kernels used by the matcher.
//
// # Kernels
//
//   - SquaredL2: squared Euclidean distance between two float32 vectors
//   - SquaredL2To: squared Euclidean distance from a float32 query to a row
//     stored in its native element type (uint8 or float32)
//   - Hamming: number of differing bits between two packed binary codes
//
// Squared distances are compared directly (the ratio test squares its
// threshold), so no kernel takes a square root.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	d = distance.SquaredL2To(query, row) // row []uint8
//	h := distance.Hamming(codeA, codeB)
package distance
