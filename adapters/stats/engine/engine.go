package engine

import (
	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/internal/analysis/distribution"
	"goqv/internal/analysis/heavyset"
)

// VolumeEngine accumulates heavy-output statistics for a quantum volume
// experiment. It registers per-trial ideal heavy sets, folds experimental
// count histograms into per-width running tallies, and answers statistics
// queries from the current accumulated state.
//
// The engine is the explicit, re-instantiable replacement for a global
// fitter object: data keeps accumulating across repeated adds, and the only
// reset is constructing a new engine. Callers that parallelize execution
// must serialize adds through a single writer.
type VolumeEngine struct {
	config    *qv.WidthConfig
	extractor *heavyset.Extractor

	heavySets  map[core.TrialKey]qv.HeavySet
	idealProbs map[core.TrialKey]float64

	running    []qv.RunningStats
	seenTrials []map[int]bool
}

// NewVolumeEngine creates an empty engine for a width configuration
func NewVolumeEngine(config *qv.WidthConfig) *VolumeEngine {
	seen := make([]map[int]bool, config.NumWidths())
	for i := range seen {
		seen[i] = make(map[int]bool)
	}
	return &VolumeEngine{
		config:     config,
		extractor:  heavyset.NewExtractor(),
		heavySets:  make(map[core.TrialKey]qv.HeavySet),
		idealProbs: make(map[core.TrialKey]float64),
		running:    make([]qv.RunningStats, config.NumWidths()),
		seenTrials: seen,
	}
}

// Config returns the width configuration the engine was built for
func (e *VolumeEngine) Config() *qv.WidthConfig {
	return e.config
}

// AddIdeal registers the heavy set for a trial. Re-registering the same
// trial fails; use ReplaceIdeal when overwrite is intended.
func (e *VolumeEngine) AddIdeal(key core.TrialKey, heavy qv.HeavySet) error {
	if _, err := e.config.Spec(key.Width); err != nil {
		return err
	}
	if _, exists := e.heavySets[key]; exists {
		return core.NewDuplicateTrialError(key)
	}
	e.heavySets[key] = heavy
	return nil
}

// ReplaceIdeal registers a heavy set, overwriting any prior registration
func (e *VolumeEngine) ReplaceIdeal(key core.TrialKey, heavy qv.HeavySet) error {
	if _, err := e.config.Spec(key.Width); err != nil {
		return err
	}
	e.heavySets[key] = heavy
	return nil
}

// AddIdealSource adapts an ideal result (statevector or probability table),
// extracts its heavy set, and registers it along with the trial's ideal
// heavy-output probability.
func (e *VolumeEngine) AddIdealSource(key core.TrialKey, src distribution.Source) error {
	spec, err := e.config.Spec(key.Width)
	if err != nil {
		return err
	}

	dist, err := src.Distribution(spec.Width())
	if err != nil {
		return err
	}
	heavy, err := e.extractor.Extract(dist)
	if err != nil {
		return err
	}
	if err := e.AddIdeal(key, heavy); err != nil {
		return err
	}

	idealProb, err := e.extractor.IdealHeavyProbability(dist, heavy)
	if err != nil {
		return err
	}
	e.idealProbs[key] = idealProb
	return nil
}

// AddIdealResult registers one trial's statevectors across every configured
// width, vectors[i] belonging to width index i. Mirrors feeding a whole
// ideal-simulation result batch for one trial.
func (e *VolumeEngine) AddIdealResult(trialIndex int, vectors [][]complex128) error {
	if len(vectors) != e.config.NumWidths() {
		return core.NewUnknownWidthError(len(vectors)-1, e.config.NumWidths())
	}
	for widthIndex, vec := range vectors {
		key := core.NewTrialKey(widthIndex, trialIndex)
		if err := e.AddIdealSource(key, distribution.Amplitudes(vec)); err != nil {
			return err
		}
	}
	return nil
}

// AddExperimental folds one trial's measured counts into the running
// statistics for its width. Counts for bitstrings in the trial's heavy set
// add to the heavy tally; all counts add to the total tally. Repeated calls
// for the same trial accumulate, so incremental re-runs never lose data.
func (e *VolumeEngine) AddExperimental(key core.TrialKey, counts qv.Counts) error {
	if _, err := e.config.Spec(key.Width); err != nil {
		return err
	}
	if err := counts.Validate(); err != nil {
		return err
	}

	heavy, ok := e.heavySets[key]
	if !ok {
		return core.NewMissingIdealDataError(key)
	}

	stats := &e.running[key.Width]
	for bitstring, n := range counts {
		if heavy.Contains(bitstring) {
			stats.HeavyShots += n
		}
		stats.TotalShots += n
	}

	if !e.seenTrials[key.Width][key.Trial] {
		e.seenTrials[key.Width][key.Trial] = true
		stats.Trials++
	}
	return nil
}

// AddExperimentalResult folds one trial's counts across every configured
// width, counts[i] belonging to width index i.
func (e *VolumeEngine) AddExperimentalResult(trialIndex int, counts []qv.Counts) error {
	if len(counts) != e.config.NumWidths() {
		return core.NewUnknownWidthError(len(counts)-1, e.config.NumWidths())
	}
	for widthIndex, c := range counts {
		if err := e.AddExperimental(core.NewTrialKey(widthIndex, trialIndex), c); err != nil {
			return err
		}
	}
	return nil
}

// Statistics answers the current accumulated state for one width. The
// result is a pure function of the running statistics, so repeated queries
// without intervening adds return identical values.
func (e *VolumeEngine) Statistics(widthIndex int) (qv.WidthStats, error) {
	spec, err := e.config.Spec(widthIndex)
	if err != nil {
		return qv.WidthStats{}, err
	}

	stats := e.running[widthIndex]
	if stats.TotalShots == 0 {
		return qv.WidthStats{}, core.NewNoDataError(widthIndex)
	}

	return qv.WidthStats{
		WidthIndex:   widthIndex,
		Width:        spec.Width(),
		HeavyShots:   stats.HeavyShots,
		TotalShots:   stats.TotalShots,
		Trials:       stats.Trials,
		MeanFraction: float64(stats.HeavyShots) / float64(stats.TotalShots),
	}, nil
}

// HeavySet returns the registered heavy set for a trial, if any
func (e *VolumeEngine) HeavySet(key core.TrialKey) (qv.HeavySet, bool) {
	heavy, ok := e.heavySets[key]
	return heavy, ok
}

// IdealHeavyProbability returns the ideal heavy-output probability recorded
// when the trial was registered through a distribution source.
func (e *VolumeEngine) IdealHeavyProbability(key core.TrialKey) (float64, bool) {
	p, ok := e.idealProbs[key]
	return p, ok
}

// StatsSnapshot exports per-width (heavy, total, mean) triples for
// fingerprinting. Widths without data are omitted.
func (e *VolumeEngine) StatsSnapshot() map[int][3]float64 {
	snapshot := make(map[int][3]float64)
	for widthIndex := range e.running {
		stats, err := e.Statistics(widthIndex)
		if err != nil {
			continue
		}
		snapshot[widthIndex] = [3]float64{
			float64(stats.HeavyShots),
			float64(stats.TotalShots),
			stats.MeanFraction,
		}
	}
	return snapshot
}
