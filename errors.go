package cascade

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cascade/internal/descriptor"
	"github.com/hupe1980/cascade/internal/filter"
	"github.com/hupe1980/cascade/internal/hasher"
	"github.com/hupe1980/cascade/internal/zeromean"
	"github.com/hupe1980/cascade/model"
	"github.com/hupe1980/cascade/resource"
)

var (
	// ErrInvalidRatio is returned when the ratio-test threshold is outside (0, 1).
	ErrInvalidRatio = filter.ErrInvalidRatio

	// ErrInvalidPair is returned when a pair references the same image twice.
	ErrInvalidPair = errors.New("invalid pair")

	// ErrInvalidConfig is returned for hash layouts outside the supported bounds.
	ErrInvalidConfig = hasher.ErrInvalidConfig

	// ErrUnsupportedKind is returned for descriptor element kinds other
	// than uint8 and float32.
	ErrUnsupportedKind = descriptor.ErrUnsupportedKind

	// ErrHasherNotInitialized is returned when indexing is attempted before
	// the hasher knows the descriptor dimension.
	ErrHasherNotInitialized = errors.New("hasher not initialized")

	// ErrMemoryLimitExceeded is returned when cached indices would exceed
	// the configured memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ErrUnknownImage indicates a requested image the source cannot resolve.
type ErrUnknownImage struct {
	ID model.ImageID
}

func (e *ErrUnknownImage) Error() string {
	return fmt.Sprintf("unknown image %d", e.ID)
}

// ErrDimensionMismatch indicates descriptors whose dimension differs from
// the rest of the job.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Image    model.ImageID
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch in image %d: expected %d, got %d", e.Image, e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidRegions indicates a descriptor set violating its own layout.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidRegions struct {
	Reason string
	cause  error
}

func (e *ErrInvalidRegions) Error() string {
	return "invalid regions: " + e.Reason
}

func (e *ErrInvalidRegions) Unwrap() error { return e.cause }

// SkipReason explains why a requested pair produced no match attempt.
type SkipReason uint8

const (
	// SkipKindMismatch marks a pair whose images use different element kinds.
	SkipKindMismatch SkipReason = iota + 1
	// SkipEmpty marks a pair where one image has no descriptors.
	SkipEmpty
)

// String returns the name of the reason.
func (r SkipReason) String() string {
	switch r {
	case SkipKindMismatch:
		return "kind_mismatch"
	case SkipEmpty:
		return "empty"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(r))
	}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, hasher.ErrNotInitialized) {
		return fmt.Errorf("%w: %w", ErrHasherNotInitialized, err)
	}

	var hdm *hasher.ErrDimensionMismatch
	if errors.As(err, &hdm) {
		return &ErrDimensionMismatch{Expected: hdm.Expected, Actual: hdm.Actual, cause: err}
	}
	var zdm *zeromean.ErrDimensionMismatch
	if errors.As(err, &zdm) {
		return &ErrDimensionMismatch{Expected: zdm.Expected, Actual: zdm.Actual, cause: err}
	}

	if errors.Is(err, descriptor.ErrInvalidBuffer) {
		return &ErrInvalidRegions{Reason: "buffer size does not match count × dimension", cause: err}
	}

	return err
}
