// Package model defines the core types shared by the matcher and its tooling.
//
// # Identity Types
//
//   - ImageID: job-scoped image key (uint32)
//   - Pair: unordered image pair, normalized so that I < J
//   - PairSet: deduplicated set of pairs to compare
//
// # Result Types
//
//   - Point: 2D keypoint position
//   - Correspondence: descriptor index in Pair.I and in Pair.J
//   - PairwiseMatches: the job output, one correspondence list per matched pair
package model
