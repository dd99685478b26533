package sim

import (
	"context"
	"math"
	"math/cmplx"
	"sort"

	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/ports"
)

// Config tunes the simulated backend
type Config struct {
	// Seed drives every derived random stream; identical seeds replay
	// identical experiments.
	Seed int64

	// ErrorRate is the fraction of shots drawn from the uniform
	// distribution instead of the circuit's ideal distribution. Zero means
	// a perfect backend; heavy-output fractions decay toward 0.5 as it
	// approaches 1.
	ErrorRate float64
}

// Simulator is an in-process stand-in for the three external collaborators:
// it generates model-circuit handles whose ideal output distributions follow
// the exponential (Porter-Thomas) shape of randomized circuits, serves their
// statevectors, and samples measurement counts with a tunable error rate.
// It exists for the CLI and tests; it does not synthesize gates or model
// device noise.
type Simulator struct {
	rng ports.RNGPort
	cfg Config
}

// modelCircuit is the opaque circuit handle: one trial's ideal distribution
// in basis-state order.
type modelCircuit struct {
	key   core.TrialKey
	width int
	probs []float64
}

var (
	_ ports.CircuitGeneratorPort     = (*Simulator)(nil)
	_ ports.IdealExecutorPort        = (*Simulator)(nil)
	_ ports.ExperimentalExecutorPort = (*Simulator)(nil)
)

// NewSimulator creates a simulated backend. Every derived random stream
// depends only on the seed and the trial key, so two simulators with the
// same config replay identical experiments.
func NewSimulator(cfg Config) *Simulator {
	return &Simulator{rng: NewHashRNG(), cfg: cfg}
}

// Generate produces circuit handles for every (width, trial) pair. The
// measured and ideal variants of a trial share one underlying distribution,
// the way a measured circuit and its no-measurement twin share gates.
func (s *Simulator) Generate(ctx context.Context, config *qv.WidthConfig, numTrials int) (*ports.CircuitBatch, error) {
	batch := &ports.CircuitBatch{
		Measured: make(map[core.TrialKey]ports.Circuit),
		Ideal:    make(map[core.TrialKey]ports.Circuit),
	}

	for widthIndex := 0; widthIndex < config.NumWidths(); widthIndex++ {
		spec, err := config.Spec(widthIndex)
		if err != nil {
			return nil, err
		}
		for trial := 0; trial < numTrials; trial++ {
			key := core.NewTrialKey(widthIndex, trial)
			circuit, err := s.synthesize(ctx, key, spec.Width())
			if err != nil {
				return nil, err
			}
			batch.Measured[key] = circuit
			batch.Ideal[key] = circuit
		}
	}
	return batch, nil
}

// synthesize draws one trial's ideal distribution: exponential weights
// normalized to unit mass, the large-width limit for random model circuits.
func (s *Simulator) synthesize(ctx context.Context, key core.TrialKey, width int) (*modelCircuit, error) {
	stream, err := s.rng.TrialStream(ctx, key, s.cfg.Seed)
	if err != nil {
		return nil, err
	}

	n := 1 << width
	probs := make([]float64, n)
	sum := 0.0
	for i := range probs {
		probs[i] = stream.ExpFloat64()
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return &modelCircuit{key: key, width: width, probs: probs}, nil
}

// Statevector returns amplitudes sqrt(p_i) with random phases. The phases
// carry no information; downstream consumers must depend on magnitudes only.
func (s *Simulator) Statevector(ctx context.Context, circuit ports.Circuit) ([]complex128, error) {
	mc := circuit.(*modelCircuit)

	stream, err := s.rng.SeededStream(ctx, "phase/"+mc.key.String(), s.cfg.Seed)
	if err != nil {
		return nil, err
	}

	amps := make([]complex128, len(mc.probs))
	for i, p := range mc.probs {
		phase := 2 * math.Pi * stream.Float64()
		amps[i] = complex(math.Sqrt(p), 0) * cmplx.Exp(complex(0, phase))
	}
	return amps, nil
}

// Counts samples the outcome histogram for a measured circuit. Each shot
// comes from the ideal distribution with probability 1-ErrorRate and from
// the uniform distribution otherwise.
func (s *Simulator) Counts(ctx context.Context, circuit ports.Circuit, shots int) (qv.Counts, error) {
	mc := circuit.(*modelCircuit)

	stream, err := s.rng.SeededStream(ctx, "shots/"+mc.key.String(), s.cfg.Seed)
	if err != nil {
		return nil, err
	}

	cdf := make([]float64, len(mc.probs))
	acc := 0.0
	for i, p := range mc.probs {
		acc += p
		cdf[i] = acc
	}

	counts := make(qv.Counts)
	for shot := 0; shot < shots; shot++ {
		var outcome int
		if stream.Float64() < s.cfg.ErrorRate {
			outcome = stream.Intn(len(mc.probs))
		} else {
			outcome = sort.SearchFloat64s(cdf, stream.Float64())
			if outcome >= len(mc.probs) {
				outcome = len(mc.probs) - 1
			}
		}
		counts[qv.BitstringForIndex(outcome, mc.width)]++
	}
	return counts, nil
}
