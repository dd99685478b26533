package qv

import (
	"fmt"
	"sort"

	"goqv/domain/core"
)

// ============================================================================
// STABLE PRIMITIVES (Canonical, never change)
// ============================================================================

// WidthSpec defines one circuit width as a subset of physical qubit indices.
// The circuit width equals the subset size; by protocol convention the model
// circuit depth equals its width.
type WidthSpec struct {
	Qubits []int `json:"qubits"`
}

// Width returns the number of qubits in the subset
func (s WidthSpec) Width() int {
	return len(s.Qubits)
}

// NumOutcomes returns the number of basis states, 2^width
func (s WidthSpec) NumOutcomes() int {
	return 1 << s.Width()
}

// WidthConfig is an ordered sequence of qubit subsets, one per width.
// INVARIANTS:
// - at least one subset, each non-empty with distinct qubit indices
// - subset sizes non-decreasing in declared order
// - duplicate widths disallowed
type WidthConfig struct {
	Specs []WidthSpec `json:"specs"`
}

// NewWidthConfig validates and builds a width configuration
func NewWidthConfig(qubitSubsets [][]int) (*WidthConfig, error) {
	if len(qubitSubsets) == 0 {
		return nil, fmt.Errorf("%w: no qubit subsets", core.ErrInvalidWidthConfig)
	}

	specs := make([]WidthSpec, 0, len(qubitSubsets))
	prevWidth := 0
	for i, subset := range qubitSubsets {
		if len(subset) == 0 {
			return nil, fmt.Errorf("%w: subset %d is empty", core.ErrInvalidWidthConfig, i)
		}
		seen := make(map[int]bool, len(subset))
		for _, q := range subset {
			if q < 0 {
				return nil, fmt.Errorf("%w: subset %d has negative qubit index %d", core.ErrInvalidWidthConfig, i, q)
			}
			if seen[q] {
				return nil, fmt.Errorf("%w: subset %d repeats qubit %d", core.ErrInvalidWidthConfig, i, q)
			}
			seen[q] = true
		}
		if len(subset) < prevWidth {
			return nil, fmt.Errorf("%w: subset %d width %d decreases from %d", core.ErrInvalidWidthConfig, i, len(subset), prevWidth)
		}
		if len(subset) == prevWidth {
			return nil, fmt.Errorf("%w: duplicate width %d at subset %d", core.ErrInvalidWidthConfig, prevWidth, i)
		}
		prevWidth = len(subset)

		qubits := make([]int, len(subset))
		copy(qubits, subset)
		specs = append(specs, WidthSpec{Qubits: qubits})
	}

	return &WidthConfig{Specs: specs}, nil
}

// NumWidths returns the number of configured widths
func (c *WidthConfig) NumWidths() int {
	return len(c.Specs)
}

// Spec returns the width spec for a width index
func (c *WidthConfig) Spec(widthIndex int) (WidthSpec, error) {
	if widthIndex < 0 || widthIndex >= len(c.Specs) {
		return WidthSpec{}, core.NewUnknownWidthError(widthIndex, len(c.Specs))
	}
	return c.Specs[widthIndex], nil
}

// QubitSubsets returns the raw subsets, used for config fingerprinting
func (c *WidthConfig) QubitSubsets() [][]int {
	subsets := make([][]int, len(c.Specs))
	for i, s := range c.Specs {
		subsets[i] = s.Qubits
	}
	return subsets
}

// ============================================================================
// DISTRIBUTIONS AND HEAVY SETS
// ============================================================================

// Distribution maps output bitstrings to ideal probabilities. It is dense:
// every bitstring of the circuit width appears, including zero-probability
// outcomes, so median statistics run over all 2^width values.
type Distribution map[string]float64

// HeavySet holds the bitstrings whose ideal probability strictly exceeds
// the median probability of the trial's distribution. Immutable once
// registered with the aggregation engine.
type HeavySet map[string]struct{}

// Contains reports heavy membership for a bitstring
func (h HeavySet) Contains(bitstring string) bool {
	_, ok := h[bitstring]
	return ok
}

// Bitstrings returns the heavy outputs in sorted order
func (h HeavySet) Bitstrings() []string {
	out := make([]string, 0, len(h))
	for b := range h {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// NewHeavySet builds a heavy set from a list of bitstrings
func NewHeavySet(bitstrings ...string) HeavySet {
	h := make(HeavySet, len(bitstrings))
	for _, b := range bitstrings {
		h[b] = struct{}{}
	}
	return h
}

// Counts maps measured bitstrings to non-negative shot counts for one trial
type Counts map[string]int

// Validate rejects negative counts
func (c Counts) Validate() error {
	for bitstring, n := range c {
		if n < 0 {
			return fmt.Errorf("%w: bitstring %q has negative count %d", core.ErrInvalidCounts, bitstring, n)
		}
	}
	return nil
}

// TotalShots sums all counts
func (c Counts) TotalShots() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// BitstringForIndex renders basis-state index i as a zero-padded binary
// string of the given width, matching statevector ordering.
func BitstringForIndex(i, width int) string {
	return fmt.Sprintf("%0*b", width, i)
}

// ============================================================================
// RUNNING STATISTICS (mutable accumulator state)
// ============================================================================

// RunningStats accumulates per-width tallies across trials.
// INVARIANTS: HeavyShots <= TotalShots; both monotonically non-decreasing;
// reset only by constructing a new engine.
type RunningStats struct {
	HeavyShots int `json:"heavy_shots"`
	TotalShots int `json:"total_shots"`
	Trials     int `json:"trials"`
}

// WidthStats is the immutable answer to a statistics query for one width
type WidthStats struct {
	WidthIndex   int     `json:"width_index"`
	Width        int     `json:"width"`
	HeavyShots   int     `json:"heavy_shots"`
	TotalShots   int     `json:"total_shots"`
	Trials       int     `json:"trials"`
	MeanFraction float64 `json:"mean_fraction"`
}

// ============================================================================
// RESOLVER OUTPUT
// ============================================================================

// WidthResult is the per-width verdict produced by the volume resolver
type WidthResult struct {
	WidthIndex    int     `json:"width_index"`
	Width         int     `json:"width"`
	Trials        int     `json:"trials"`
	TotalShots    int     `json:"total_shots"`
	MeanFraction  float64 `json:"mean_fraction"`
	Sigma         float64 `json:"sigma"`
	LowerBound    float64 `json:"lower_bound"`
	Confidence    float64 `json:"confidence"`
	Pass          bool    `json:"pass"`
	QuantumVolume int     `json:"quantum_volume,omitempty"` // 2^width when passing, 0 otherwise
}

// VolumeReport is the complete output of a quantum volume run
type VolumeReport struct {
	RunID          core.RunID      `json:"run_id"`
	ConfigHash     core.ConfigHash `json:"config_hash"`
	Results        []WidthResult   `json:"results"`
	AchievedVolume int             `json:"achieved_volume"` // 2^w for largest passing width, 0 if none
	Fingerprint    core.Hash       `json:"fingerprint"`
	CreatedAt      core.Timestamp  `json:"created_at"`
}
