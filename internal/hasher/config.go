package hasher

import (
	"errors"
	"fmt"
)

// DefaultSeed seeds the projection generator when none is configured.
const DefaultSeed int64 = 5489

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid hasher config")

// Config holds the tunable parameters of the cascade hasher.
type Config struct {
	// Groups is the number of independent primary hash groups.
	Groups int
	// BitsPerGroup is the length of each group's bucket id (2^bits buckets).
	BitsPerGroup int
	// CodeBits is the length of the secondary binary fingerprint.
	CodeBits int
	// TopCandidates bounds the exact distance computations per query.
	TopCandidates int
	// Seed seeds the projection generator. Two indices are only comparable
	// when built by hashers with the same seed and layout.
	Seed int64
	// ExhaustiveFallback widens the candidate set to every base descriptor
	// when bucket pruning leaves a query with fewer than two candidates.
	ExhaustiveFallback bool
}

// DefaultConfig returns the standard cascade hashing layout:
// 6 groups of 10 bits, 128-bit fingerprints and 10 exact candidates.
func DefaultConfig() Config {
	return Config{
		Groups:             6,
		BitsPerGroup:       10,
		CodeBits:           128,
		TopCandidates:      10,
		Seed:               DefaultSeed,
		ExhaustiveFallback: true,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	switch {
	case c.Groups < 1 || c.Groups > 32:
		return fmt.Errorf("%w: groups must be in [1, 32], got %d", ErrInvalidConfig, c.Groups)
	case c.BitsPerGroup < 1 || c.BitsPerGroup > 16:
		return fmt.Errorf("%w: bits per group must be in [1, 16], got %d", ErrInvalidConfig, c.BitsPerGroup)
	case c.CodeBits < 1 || c.CodeBits > 1024:
		return fmt.Errorf("%w: code bits must be in [1, 1024], got %d", ErrInvalidConfig, c.CodeBits)
	case c.TopCandidates < 2:
		return fmt.Errorf("%w: top candidates must be >= 2, got %d", ErrInvalidConfig, c.TopCandidates)
	}
	return nil
}

// NumBuckets returns the number of buckets per group.
func (c Config) NumBuckets() int {
	return 1 << c.BitsPerGroup
}

// CodeWords returns the number of uint64 words per fingerprint.
func (c Config) CodeWords() int {
	return (c.CodeBits + 63) / 64
}

func (c Config) projections() int {
	return c.Groups*c.BitsPerGroup + c.CodeBits
}
