// Package descriptor exposes raw descriptor buffers through one numeric view.
//
// A descriptor buffer holds count × dim elements of a single kind: narrow
// (uint8, e.g. SIFT) or wide (float32). The kind is resolved once when a View
// is created; every hot-path method of the returned Matrix is compiled for its
// element type, so no per-element type branching happens while hashing or
// matching.
package descriptor
