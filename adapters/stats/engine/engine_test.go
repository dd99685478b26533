package engine

import (
	"errors"
	"math"
	"testing"

	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/internal/analysis/distribution"
)

func newTestEngine(t *testing.T) *VolumeEngine {
	t.Helper()
	config, err := qv.NewWidthConfig([][]int{{0, 1}, {0, 1, 2}})
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	return NewVolumeEngine(config)
}

// skewed width-2 distribution whose heavy set is exactly {"00"}
var skewedProbs = distribution.Probabilities{"00": 0.5, "01": 0.2, "10": 0.2, "11": 0.1}

// TestAddIdeal_DuplicateRejectedUnlessReplaced covers the overwrite contract
func TestAddIdeal_DuplicateRejectedUnlessReplaced(t *testing.T) {
	e := newTestEngine(t)
	key := core.NewTrialKey(0, 0)

	if err := e.AddIdeal(key, qv.NewHeavySet("00")); err != nil {
		t.Fatalf("First AddIdeal failed: %v", err)
	}
	if err := e.AddIdeal(key, qv.NewHeavySet("11")); !errors.Is(err, core.ErrDuplicateTrial) {
		t.Errorf("Expected ErrDuplicateTrial, got %v", err)
	}

	if err := e.ReplaceIdeal(key, qv.NewHeavySet("11")); err != nil {
		t.Fatalf("ReplaceIdeal failed: %v", err)
	}
	heavy, ok := e.HeavySet(key)
	if !ok || !heavy.Contains("11") || heavy.Contains("00") {
		t.Errorf("Expected replacement heavy set {11}, got %v", heavy.Bitstrings())
	}
}

// TestAddExperimental_RequiresIdealData enforces registration order
func TestAddExperimental_RequiresIdealData(t *testing.T) {
	e := newTestEngine(t)

	err := e.AddExperimental(core.NewTrialKey(0, 0), qv.Counts{"00": 100})
	if !errors.Is(err, core.ErrMissingIdealData) {
		t.Errorf("Expected ErrMissingIdealData, got %v", err)
	}
}

// TestAddExperimental_AccumulatesNotOverwrites: {A:5} then {A:3} yields 8
func TestAddExperimental_AccumulatesNotOverwrites(t *testing.T) {
	e := newTestEngine(t)
	key := core.NewTrialKey(0, 0)

	if err := e.AddIdeal(key, qv.NewHeavySet("00")); err != nil {
		t.Fatalf("AddIdeal failed: %v", err)
	}
	if err := e.AddExperimental(key, qv.Counts{"00": 5}); err != nil {
		t.Fatalf("First add failed: %v", err)
	}
	if err := e.AddExperimental(key, qv.Counts{"00": 3}); err != nil {
		t.Fatalf("Second add failed: %v", err)
	}

	stats, err := e.Statistics(0)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.HeavyShots != 8 || stats.TotalShots != 8 {
		t.Errorf("Expected 8/8 after accumulation, got %d/%d", stats.HeavyShots, stats.TotalShots)
	}
	if stats.Trials != 1 {
		t.Errorf("Re-adding the same trial should not bump the trial count, got %d", stats.Trials)
	}
}

// TestStatistics_TalliesHeavyAndTotal splits counts by heavy membership
func TestStatistics_TalliesHeavyAndTotal(t *testing.T) {
	e := newTestEngine(t)
	key := core.NewTrialKey(0, 0)

	if err := e.AddIdealSource(key, skewedProbs); err != nil {
		t.Fatalf("AddIdealSource failed: %v", err)
	}
	counts := qv.Counts{"00": 700, "01": 150, "10": 100, "11": 74}
	if err := e.AddExperimental(key, counts); err != nil {
		t.Fatalf("AddExperimental failed: %v", err)
	}

	stats, err := e.Statistics(0)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.HeavyShots != 700 {
		t.Errorf("Expected 700 heavy shots, got %d", stats.HeavyShots)
	}
	if stats.TotalShots != 1024 {
		t.Errorf("Expected 1024 total shots, got %d", stats.TotalShots)
	}
	if math.Abs(stats.MeanFraction-700.0/1024.0) > 1e-12 {
		t.Errorf("Expected mean %f, got %f", 700.0/1024.0, stats.MeanFraction)
	}
}

// TestStatistics_IdempotentWithoutNewData: repeated queries are identical
func TestStatistics_IdempotentWithoutNewData(t *testing.T) {
	e := newTestEngine(t)
	key := core.NewTrialKey(0, 0)

	if err := e.AddIdealSource(key, skewedProbs); err != nil {
		t.Fatalf("AddIdealSource failed: %v", err)
	}
	if err := e.AddExperimental(key, qv.Counts{"00": 60, "11": 40}); err != nil {
		t.Fatalf("AddExperimental failed: %v", err)
	}

	first, err := e.Statistics(0)
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Statistics(0)
		if err != nil {
			t.Fatalf("Statistics query %d failed: %v", i, err)
		}
		if again != first {
			t.Errorf("Query %d changed without new data: %+v vs %+v", i, again, first)
		}
	}
}

// TestStatistics_Monotonicity: tallies never decrease across adds
func TestStatistics_Monotonicity(t *testing.T) {
	e := newTestEngine(t)

	prevHeavy, prevTotal := 0, 0
	for trial := 0; trial < 10; trial++ {
		key := core.NewTrialKey(0, trial)
		if err := e.AddIdealSource(key, skewedProbs); err != nil {
			t.Fatalf("AddIdealSource failed: %v", err)
		}
		if err := e.AddExperimental(key, qv.Counts{"00": 50 + trial, "01": 30, "11": 20}); err != nil {
			t.Fatalf("AddExperimental failed: %v", err)
		}

		stats, err := e.Statistics(0)
		if err != nil {
			t.Fatalf("Statistics failed: %v", err)
		}
		if stats.HeavyShots < prevHeavy || stats.TotalShots < prevTotal {
			t.Fatalf("Tallies decreased at trial %d: %d/%d after %d/%d",
				trial, stats.HeavyShots, stats.TotalShots, prevHeavy, prevTotal)
		}
		prevHeavy, prevTotal = stats.HeavyShots, stats.TotalShots
		if stats.Trials != trial+1 {
			t.Errorf("Expected %d trials, got %d", trial+1, stats.Trials)
		}
	}
}

// TestStatistics_NoData for untouched widths
func TestStatistics_NoData(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Statistics(1); !errors.Is(err, core.ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}
	if _, err := e.Statistics(7); !errors.Is(err, core.ErrUnknownWidth) {
		t.Errorf("Expected ErrUnknownWidth, got %v", err)
	}
}

// TestPerfectExperiment_RoundTrip: sampling exactly the heavy indicator
// yields mean fraction 1.0 for every width.
func TestPerfectExperiment_RoundTrip(t *testing.T) {
	e := newTestEngine(t)

	sources := []distribution.Source{
		skewedProbs,
		distribution.Probabilities{
			"000": 0.30, "001": 0.22, "010": 0.15, "011": 0.12,
			"100": 0.09, "101": 0.06, "110": 0.04, "111": 0.02,
		},
	}

	for widthIndex, src := range sources {
		key := core.NewTrialKey(widthIndex, 0)
		if err := e.AddIdealSource(key, src); err != nil {
			t.Fatalf("AddIdealSource failed: %v", err)
		}

		heavy, _ := e.HeavySet(key)
		counts := make(qv.Counts)
		for _, bitstring := range heavy.Bitstrings() {
			counts[bitstring] = 128
		}
		if err := e.AddExperimental(key, counts); err != nil {
			t.Fatalf("AddExperimental failed: %v", err)
		}

		stats, err := e.Statistics(widthIndex)
		if err != nil {
			t.Fatalf("Statistics failed: %v", err)
		}
		if stats.MeanFraction != 1.0 {
			t.Errorf("width index %d: expected mean 1.0, got %f", widthIndex, stats.MeanFraction)
		}
	}
}

// TestAddIdealResult_BatchAcrossWidths mirrors feeding a whole ideal batch
func TestAddIdealResult_BatchAcrossWidths(t *testing.T) {
	e := newTestEngine(t)

	w2 := make([]complex128, 4)
	w2[0] = complex(math.Sqrt(0.7), 0)
	w2[3] = complex(0, math.Sqrt(0.3))
	w3 := make([]complex128, 8)
	w3[0] = 1

	if err := e.AddIdealResult(0, [][]complex128{w2, w3}); err != nil {
		t.Fatalf("AddIdealResult failed: %v", err)
	}

	heavy, ok := e.HeavySet(core.NewTrialKey(0, 0))
	if !ok || !heavy.Contains("00") {
		t.Errorf("Expected heavy set containing 00 at width index 0, got %v", heavy.Bitstrings())
	}
	if p, ok := e.IdealHeavyProbability(core.NewTrialKey(1, 0)); !ok || math.Abs(p-1.0) > 1e-12 {
		t.Errorf("Expected ideal heavy probability 1.0 for basis state, got %f (ok=%v)", p, ok)
	}

	// Wrong batch shape
	if err := e.AddIdealResult(1, [][]complex128{w2}); !errors.Is(err, core.ErrUnknownWidth) {
		t.Errorf("Expected ErrUnknownWidth for short batch, got %v", err)
	}
}

// TestAddExperimental_RejectsNegativeCounts
func TestAddExperimental_RejectsNegativeCounts(t *testing.T) {
	e := newTestEngine(t)
	key := core.NewTrialKey(0, 0)

	if err := e.AddIdeal(key, qv.NewHeavySet("00")); err != nil {
		t.Fatalf("AddIdeal failed: %v", err)
	}
	if err := e.AddExperimental(key, qv.Counts{"00": -5}); !errors.Is(err, core.ErrInvalidCounts) {
		t.Errorf("Expected ErrInvalidCounts, got %v", err)
	}
}
