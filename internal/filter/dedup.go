package filter

import (
	"slices"

	"github.com/hupe1980/cascade/model"
)

// Dedup sorts matches by (A, B) and removes identical entries in place.
func Dedup(matches []model.Correspondence) []model.Correspondence {
	slices.SortFunc(matches, model.Correspondence.Compare)
	return slices.Compact(matches)
}

// DedupPositions drops every correspondence whose keypoint in A or in B sits
// at a position already used by an earlier correspondence. matches must be
// sorted by (A, B); the first correspondence at a position wins.
// Indices outside the point slices are kept unchanged.
func DedupPositions(matches []model.Correspondence, pointsA, pointsB []model.Point) []model.Correspondence {
	if len(matches) == 0 {
		return matches
	}

	usedA := make(map[model.Point]struct{}, len(matches))
	usedB := make(map[model.Point]struct{}, len(matches))

	out := matches[:0]
	for _, c := range matches {
		if int(c.A) >= len(pointsA) || int(c.B) >= len(pointsB) {
			out = append(out, c)
			continue
		}
		pa, pb := pointsA[c.A], pointsB[c.B]
		if _, ok := usedA[pa]; ok {
			continue
		}
		if _, ok := usedB[pb]; ok {
			continue
		}
		usedA[pa] = struct{}{}
		usedB[pb] = struct{}{}
		out = append(out, c)
	}
	return out
}
