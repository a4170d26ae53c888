// Package zeromean computes the shared recentering vector for a matching job.
//
// The estimate is a mean of per-image means: every image contributes one row
// regardless of how many descriptors it holds, so images with very many
// features do not dominate the baseline.
package zeromean

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/cascade/internal/descriptor"
)

// ErrDimensionMismatch is returned when a view's dimension differs from the job's.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ImageMean returns the per-dimension mean of one image's descriptors.
// An image without descriptors yields an all-zero vector.
func ImageMean(v descriptor.View, dim int) []float64 {
	mean := make([]float64, dim)
	n := v.Len()
	if n == 0 {
		return mean
	}

	row := make([]float32, dim)
	for i := range n {
		for j, x := range v.Expand(i, row) {
			mean[j] += float64(x)
		}
	}
	inv := 1 / float64(n)
	for j := range mean {
		mean[j] *= inv
	}
	return mean
}

// Estimate returns the column-wise mean of the per-image means of views.
// Empty views contribute an all-zero row. If views is empty the result is
// the zero vector.
func Estimate(views []descriptor.View, dim int) ([]float32, error) {
	out := make([]float32, dim)
	if len(views) == 0 || dim == 0 {
		return out, nil
	}

	means := mat.NewDense(len(views), dim, nil)
	for i, v := range views {
		if v.Len() == 0 {
			continue
		}
		if v.Dim() != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: v.Dim()}
		}
		means.SetRow(i, ImageMean(v, dim))
	}

	col := make([]float64, len(views))
	for j := range dim {
		mat.Col(col, j, means)
		out[j] = float32(stat.Mean(col, nil))
	}
	return out, nil
}
