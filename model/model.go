package model

import (
	"cmp"
	"fmt"
	"slices"
)

// ImageID identifies one image within a matching job.
type ImageID uint32

// Pair is an unordered pair of distinct images.
// Use NewPair to get the normalized form (I < J).
type Pair struct {
	I ImageID
	J ImageID
}

// NewPair returns the normalized pair for a and b.
func NewPair(a, b ImageID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{I: a, J: b}
}

// Valid reports whether the pair references two distinct images.
func (p Pair) Valid() bool {
	return p.I != p.J
}

// String returns a string representation of the Pair.
func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.I, p.J)
}

// Compare orders pairs by I, then J.
func (p Pair) Compare(o Pair) int {
	if c := cmp.Compare(p.I, o.I); c != 0 {
		return c
	}
	return cmp.Compare(p.J, o.J)
}

// PairSet is a deduplicated set of image pairs.
type PairSet map[Pair]struct{}

// NewPairSet builds a PairSet from the given pairs, normalizing each one.
func NewPairSet(pairs ...Pair) PairSet {
	s := make(PairSet, len(pairs))
	for _, p := range pairs {
		s.Add(p.I, p.J)
	}
	return s
}

// Add inserts the unordered pair (a, b).
func (s PairSet) Add(a, b ImageID) {
	s[NewPair(a, b)] = struct{}{}
}

// Has reports whether the unordered pair (a, b) is in the set.
func (s PairSet) Has(a, b ImageID) bool {
	_, ok := s[NewPair(a, b)]
	return ok
}

// Len returns the number of pairs.
func (s PairSet) Len() int {
	return len(s)
}

// Sorted returns the pairs ordered by (I, J).
func (s PairSet) Sorted() []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, Pair.Compare)
	return out
}

// Point is a 2D keypoint position in image coordinates.
type Point struct {
	X float32
	Y float32
}

// Correspondence links descriptor A of the first image of a pair with
// descriptor B of the second image.
type Correspondence struct {
	A uint32
	B uint32
}

// Compare orders correspondences by A, then B.
func (c Correspondence) Compare(o Correspondence) int {
	if r := cmp.Compare(c.A, o.A); r != 0 {
		return r
	}
	return cmp.Compare(c.B, o.B)
}

// PairwiseMatches maps a pair to its accepted correspondences.
// Pairs without any correspondence are absent.
type PairwiseMatches map[Pair][]Correspondence

// Pairs returns the keys ordered by (I, J).
func (m PairwiseMatches) Pairs() []Pair {
	out := make([]Pair, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	slices.SortFunc(out, Pair.Compare)
	return out
}

// NumCorrespondences returns the total number of correspondences in the table.
func (m PairwiseMatches) NumCorrespondences() int {
	n := 0
	for _, c := range m {
		n += len(c)
	}
	return n
}
