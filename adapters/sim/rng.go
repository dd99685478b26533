package sim

import (
	"context"
	"hash/fnv"
	"math/rand"

	"goqv/domain/core"
)

// HashRNG derives deterministic per-operation random streams from a base
// seed, so two runs with the same seed replay identical circuits and
// samples regardless of execution order.
type HashRNG struct{}

// NewHashRNG creates the deterministic RNG adapter
func NewHashRNG() *HashRNG {
	return &HashRNG{}
}

// SeededStream creates a deterministic stream for a named operation
func (r *HashRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(deriveSeed(name, seed))), nil
}

// TrialStream creates a deterministic stream for one trial
func (r *HashRNG) TrialStream(ctx context.Context, key core.TrialKey, baseSeed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(deriveSeed(key.String(), baseSeed))), nil
}

// deriveSeed mixes an operation name into a base seed via FNV-1a
func deriveSeed(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}
