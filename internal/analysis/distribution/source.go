package distribution

import (
	"fmt"

	"goqv/domain/core"
	"goqv/domain/qv"
)

// Source converts one trial's ideal output, however it was produced, into
// the dense per-trial distribution consumed by the heavy-set extractor.
// The two implementations cover statevector simulation (Amplitudes) and
// precomputed probability tables (Probabilities).
type Source interface {
	Distribution(width int) (qv.Distribution, error)
}

// Amplitudes is a state amplitude vector of length 2^width in basis-state
// order. Only magnitudes matter, so vectors differing by a global phase
// yield identical distributions.
type Amplitudes []complex128

// Distribution maps each basis state i to |amplitude_i|^2
func (a Amplitudes) Distribution(width int) (qv.Distribution, error) {
	want := 1 << width
	if len(a) != want {
		return nil, core.NewDimensionMismatchError(len(a), want)
	}

	dist := make(qv.Distribution, want)
	for i, amp := range a {
		dist[qv.BitstringForIndex(i, width)] = real(amp)*real(amp) + imag(amp)*imag(amp)
	}
	return dist, nil
}

// Probabilities is a direct bitstring -> probability mapping. Bitstrings
// absent from the mapping carry zero probability; the output is densified
// over all 2^width outcomes so the median runs over the full outcome space.
type Probabilities map[string]float64

// Distribution validates keys and fills in implied zero-probability outcomes
func (p Probabilities) Distribution(width int) (qv.Distribution, error) {
	dist := make(qv.Distribution, 1<<width)
	for i := 0; i < 1<<width; i++ {
		dist[qv.BitstringForIndex(i, width)] = 0
	}

	for bitstring, prob := range p {
		if err := validateBitstring(bitstring, width); err != nil {
			return nil, err
		}
		dist[bitstring] = prob
	}
	return dist, nil
}

func validateBitstring(bitstring string, width int) error {
	if len(bitstring) != width {
		return core.NewInvalidDistributionError(
			fmt.Sprintf("bitstring %q has length %d, want %d", bitstring, len(bitstring), width))
	}
	for _, c := range bitstring {
		if c != '0' && c != '1' {
			return core.NewInvalidDistributionError(
				fmt.Sprintf("bitstring %q contains non-binary character %q", bitstring, c))
		}
	}
	return nil
}
