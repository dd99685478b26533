package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"goqv/adapters/sim"
	"goqv/adapters/stats/engine"
	"goqv/app"
	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	widths *qv.WidthConfig
	runID  core.RunID
	seed   int64
}

// NewTestKit creates a new test kit with the standard nested qubit subsets
func NewTestKit() (*TestKit, error) {
	widths, err := qv.NewWidthConfig([][]int{
		{0, 1, 3},
		{0, 1, 3, 5},
		{0, 1, 3, 5, 7},
		{0, 1, 3, 5, 7, 10},
	})
	if err != nil {
		return nil, err
	}
	return &TestKit{
		widths: widths,
		runID:  core.RunID(core.NewID()),
		seed:   42,
	}, nil
}

// WidthConfig returns the kit's width configuration
func (t *TestKit) WidthConfig() *qv.WidthConfig {
	return t.widths
}

// RunID returns the kit's run identifier
func (t *TestKit) RunID() core.RunID {
	return t.runID
}

// Simulator returns a noiseless simulator backend with a fixed seed
func (t *TestKit) Simulator() *sim.Simulator {
	return sim.NewSimulator(sim.Config{Seed: t.seed})
}

// NoisySimulator returns a simulator backend with the given depolarizing rate
func (t *TestKit) NoisySimulator(errorRate float64) *sim.Simulator {
	return sim.NewSimulator(sim.Config{Seed: t.seed, ErrorRate: errorRate})
}

// VolumeService wires a service over the kit's width configuration
func (t *TestKit) VolumeService() *app.VolumeService {
	return app.NewVolumeService(t.runID, t.widths, app.VolumeServiceConfig{})
}

// RNGAdapter returns an RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return sim.NewHashRNG()
}

// Engine returns a fresh accumulation engine over the kit's widths
func (t *TestKit) Engine() *engine.VolumeEngine {
	return engine.NewVolumeEngine(t.widths)
}

// RunPerfectExperiment drives a full noiseless run and returns the report
func (t *TestKit) RunPerfectExperiment(ctx context.Context, trials, shots int) (*qv.VolumeReport, error) {
	svc := t.VolumeService()
	backend := t.Simulator()
	req := app.ExecuteRequest{
		Generator:    backend,
		Ideal:        backend,
		Experimental: backend,
		NumTrials:    trials,
		Shots:        shots,
	}
	if err := svc.Execute(ctx, req); err != nil {
		return nil, err
	}
	return svc.Resolve()
}

// UniformDistribution builds a flat ideal distribution over 2^width outcomes
func UniformDistribution(width int) qv.Distribution {
	dim := 1 << width
	p := 1.0 / float64(dim)
	dist := make(qv.Distribution, dim)
	for i := 0; i < dim; i++ {
		dist[qv.BitstringForIndex(i, width)] = p
	}
	return dist
}

// PeakedDistribution builds a distribution concentrated on a single outcome.
// The peak outcome carries weight and the remainder is spread evenly.
func PeakedDistribution(width int, peakIndex int, weight float64) qv.Distribution {
	dim := 1 << width
	rest := (1.0 - weight) / float64(dim-1)
	dist := make(qv.Distribution, dim)
	for i := 0; i < dim; i++ {
		if i == peakIndex {
			dist[qv.BitstringForIndex(i, width)] = weight
		} else {
			dist[qv.BitstringForIndex(i, width)] = rest
		}
	}
	return dist
}

// RandomAmplitudes builds a normalized random statevector for a width
func RandomAmplitudes(width int, seed int64) []complex128 {
	rng := rand.New(rand.NewSource(seed))
	dim := 1 << width
	amps := make([]complex128, dim)
	var norm float64
	for i := range amps {
		re := rng.NormFloat64()
		im := rng.NormFloat64()
		amps[i] = complex(re, im)
		norm += re*re + im*im
	}
	scale := complex(1.0/math.Sqrt(norm), 0)
	for i := range amps {
		amps[i] *= scale
	}
	return amps
}

// CountsFromDistribution samples measurement counts from a distribution
func CountsFromDistribution(dist qv.Distribution, shots int, seed int64) qv.Counts {
	rng := rand.New(rand.NewSource(seed))
	type entry struct {
		bitstring string
		cum       float64
	}
	entries := make([]entry, 0, len(dist))
	var cum float64
	for _, bs := range sortedBitstrings(dist) {
		cum += dist[bs]
		entries = append(entries, entry{bitstring: bs, cum: cum})
	}
	counts := make(qv.Counts)
	for s := 0; s < shots; s++ {
		u := rng.Float64() * cum
		for _, e := range entries {
			if u <= e.cum {
				counts[e.bitstring]++
				break
			}
		}
	}
	return counts
}

func sortedBitstrings(dist qv.Distribution) []string {
	keys := make([]string, 0, len(dist))
	for bs := range dist {
		keys = append(keys, bs)
	}
	sort.Strings(keys)
	return keys
}

// DumpCounts formats counts for debugging test failures
func DumpCounts(counts qv.Counts) string {
	out := ""
	for _, bs := range sortedBitstrings(qv.Distribution(toFloat(counts))) {
		out += fmt.Sprintf("%s=%d ", bs, counts[bs])
	}
	return out
}

func toFloat(counts qv.Counts) map[string]float64 {
	m := make(map[string]float64, len(counts))
	for bs, n := range counts {
		m[bs] = float64(n)
	}
	return m
}
