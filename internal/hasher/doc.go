// Package hasher implements the cascade hashing index used to match local
// image descriptors.
//
// Each descriptor, recentered by the job's zero-mean vector, is projected on
// two families of fixed random directions drawn from a seeded generator:
//
//   - Primary: Groups × BitsPerGroup projections. The signs of each group's
//     projections form a bucket id; a query only considers base descriptors
//     sharing a bucket with it in at least one group.
//   - Secondary: CodeBits projections whose signs form a binary fingerprint.
//     Gathered candidates are ranked by fingerprint Hamming distance and only
//     the TopCandidates closest are compared with exact squared L2.
//
// The two nearest exact distances of every query feed the ratio test.
//
// # Usage
//
//	h, _ := hasher.New(hasher.DefaultConfig())
//	_ = h.Init(dim)
//	a, _ := h.BuildIndex(viewA, zeroMean)
//	b, _ := h.BuildIndex(viewB, zeroMean)
//	nn, _ := h.Match(b, viewB, a, viewA) // queries from B, neighbors in A
//
// # Thread Safety
//
// Init must complete before any other call. Afterwards a Hasher is read-only;
// BuildIndex and Match are safe for concurrent use, and an Index is immutable.
package hasher
