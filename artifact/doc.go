// Package artifact defines the on-disk formats of the matcher's inputs and
// outputs.
//
// A regions blob holds one image's keypoints and descriptors. A match
// table blob holds the pairwise correspondences of one job. Both carry a
// small fixed header followed by a single optionally compressed block.
//
// All multi-byte integers are little-endian.
package artifact
