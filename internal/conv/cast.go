package conv

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit uint32", ErrOverflow, v)
	}
	return uint32(v), nil
}

// Uint32ToInt converts uint32 to int safely.
func Uint32ToInt(v uint32) (int, error) {
	if uint64(v) > uint64(math.MaxInt) {
		return 0, fmt.Errorf("%w: %d does not fit int", ErrOverflow, v)
	}
	return int(v), nil
}

// MulSize returns the product of non-negative factors as an int, failing
// when it exceeds limit.
func MulSize(limit int, factors ...int) (int, error) {
	p := uint64(1)
	for _, f := range factors {
		if f < 0 {
			return 0, fmt.Errorf("%w: negative factor %d", ErrOverflow, f)
		}
		hi, lo := bits.Mul64(p, uint64(f))
		if hi != 0 || lo > uint64(limit) {
			return 0, fmt.Errorf("%w: size exceeds %d", ErrOverflow, limit)
		}
		p = lo
	}
	return int(p), nil
}
