package ports

import (
	"context"

	"goqv/domain/core"
	"goqv/domain/qv"
)

// Circuit is an opaque handle for one model circuit instance. The core
// never inspects circuit structure; it only routes handles between the
// generator and the executors.
type Circuit interface{}

// CircuitBatch holds the generated circuits for a whole experiment, keyed
// by (width_index, trial_index). Measured circuits go to the experimental
// executor; the no-measurement variants go to the ideal executor.
type CircuitBatch struct {
	Measured map[core.TrialKey]Circuit
	Ideal    map[core.TrialKey]Circuit
}

// CircuitGeneratorPort produces randomized model circuits for every
// (width, trial) pair of a configuration. Circuit synthesis itself is an
// external concern.
type CircuitGeneratorPort interface {
	Generate(ctx context.Context, config *qv.WidthConfig, numTrials int) (*CircuitBatch, error)
}

// IdealExecutorPort runs a no-measurement circuit on an ideal statevector
// backend and returns the state amplitude vector of length 2^width.
type IdealExecutorPort interface {
	Statevector(ctx context.Context, circuit Circuit) ([]complex128, error)
}

// ExperimentalExecutorPort runs a measured circuit on a noisy simulator or
// physical device and returns the outcome histogram at a fixed shot count.
// Execution may be long-running and parallelized underneath; the core only
// ever consumes completed results.
type ExperimentalExecutorPort interface {
	Counts(ctx context.Context, circuit Circuit, shots int) (qv.Counts, error)
}
