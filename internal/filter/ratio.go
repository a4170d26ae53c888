package filter

import (
	"errors"

	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/model"
)

// ErrInvalidRatio is returned for ratios outside (0, 1).
var ErrInvalidRatio = errors.New("ratio must be in (0, 1)")

// ValidateRatio checks that ratio is in (0, 1).
func ValidateRatio(ratio float32) error {
	if !(ratio > 0 && ratio < 1) {
		return ErrInvalidRatio
	}
	return nil
}

// RatioTest keeps the neighbors whose squared distances satisfy
// D1 < ratio² · D2 and returns them as correspondences (A = base, B = query).
func RatioTest(nn []hasher.Neighbors, ratio float32) []model.Correspondence {
	r2 := ratio * ratio
	out := make([]model.Correspondence, 0, len(nn))
	for _, n := range nn {
		if n.First < 0 || n.Second < 0 {
			continue
		}
		if n.D1 < r2*n.D2 {
			out = append(out, model.Correspondence{A: uint32(n.First), B: uint32(n.Query)})
		}
	}
	return out
}
