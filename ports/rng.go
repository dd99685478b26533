package ports

import (
	"context"
	"math/rand"

	"goqv/domain/core"
)

// RNGPort provides seeded random number generation for deterministic runs
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// TrialStream creates a deterministic RNG stream for one trial.
	// The same (key, baseSeed) always yields an identical stream, so
	// re-running a simulated experiment with one seed reproduces its
	// circuits and samples regardless of the run identifier minted for
	// the report.
	TrialStream(ctx context.Context, key core.TrialKey, baseSeed int64) (*rand.Rand, error)
}
