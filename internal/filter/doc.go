// Package filter turns raw two-nearest-neighbor results into correspondences.
//
// Three stages run in order for every image pair:
//
//	RatioTest       keep a query only when its nearest neighbor is clearly
//	                closer than the second nearest
//	Dedup           sort by (A, B) and drop identical correspondences
//	DedupPositions  drop correspondences reusing an already matched keypoint
//	                position on either side
package filter
