package cascade

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/cascade/model"
)

// ExhaustivePairs returns every unordered pair of distinct ids.
func ExhaustivePairs(ids []model.ImageID) model.PairSet {
	ids = uniqueSorted(ids)
	s := make(model.PairSet, len(ids)*(len(ids)-1)/2)
	for a := range ids {
		for b := a + 1; b < len(ids); b++ {
			s.Add(ids[a], ids[b])
		}
	}
	return s
}

// ContiguousPairs pairs every id with the next window ids in ascending
// order, as for a video sequence.
func ContiguousPairs(ids []model.ImageID, window int) model.PairSet {
	ids = uniqueSorted(ids)
	s := make(model.PairSet)
	for a := range ids {
		for b := a + 1; b < len(ids) && b <= a+window; b++ {
			s.Add(ids[a], ids[b])
		}
	}
	return s
}

// ParsePairs reads a pair list. Each non-empty line holds an image id
// followed by one or more ids it is paired with; '#' starts a comment.
//
//	# i j...
//	0 1 2
//	1 2
func ParsePairs(r io.Reader) (model.PairSet, error) {
	s := make(model.PairSet)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("pairs line %d: expected at least two ids", line)
		}

		ids := make([]model.ImageID, len(fields))
		for k, f := range fields {
			v, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("pairs line %d: %w", line, err)
			}
			ids[k] = model.ImageID(v)
		}
		for _, j := range ids[1:] {
			if j == ids[0] {
				return nil, fmt.Errorf("%w: line %d pairs image %d with itself", ErrInvalidPair, line, j)
			}
			s.Add(ids[0], j)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// WritePairs writes s in the format read by ParsePairs, one pair per line
// in ascending order.
func WritePairs(w io.Writer, s model.PairSet) error {
	bw := bufio.NewWriter(w)
	for _, p := range s.Sorted() {
		if _, err := fmt.Fprintf(bw, "%d %d\n", p.I, p.J); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func uniqueSorted(ids []model.ImageID) []model.ImageID {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
