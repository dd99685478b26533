package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"goqv/adapters/stats/engine"
	"goqv/domain/core"
	"goqv/domain/qv"
	"goqv/internal/analysis/confidence"
	"goqv/internal/analysis/distribution"
	"goqv/ports"

	"golang.org/x/sync/errgroup"
)

// VolumeServiceConfig tunes resolver policy and harness behavior
type VolumeServiceConfig struct {
	// RequireMonotonic makes a width qualify only when every smaller width
	// in the configuration also passes; a smaller width with no data
	// counts as not passing. Off by default: each width's verdict is
	// independent and the achieved volume comes from the set of passing
	// widths.
	RequireMonotonic bool

	// Parallelism caps concurrent executor calls in Execute. Zero means
	// unbounded. Engine mutation stays single-writer regardless.
	Parallelism int
}

// VolumeService orchestrates a quantum volume run: it drives the external
// collaborators through their ports, feeds completed results into the
// aggregation engine one trial at a time, and resolves per-width verdicts
// into an achieved quantum volume.
type VolumeService struct {
	runID     core.RunID
	widths    *qv.WidthConfig
	engine    *engine.VolumeEngine
	estimator *confidence.Estimator
	cfg       VolumeServiceConfig
}

// NewVolumeService creates a service with a fresh, empty engine
func NewVolumeService(runID core.RunID, widths *qv.WidthConfig, cfg VolumeServiceConfig) *VolumeService {
	return &VolumeService{
		runID:     runID,
		widths:    widths,
		engine:    engine.NewVolumeEngine(widths),
		estimator: confidence.NewEstimator(),
		cfg:       cfg,
	}
}

// RunID returns the run identifier
func (s *VolumeService) RunID() core.RunID {
	return s.runID
}

// Engine exposes the underlying aggregation engine for callers that feed
// results directly instead of through Execute.
func (s *VolumeService) Engine() *engine.VolumeEngine {
	return s.engine
}

// ExecuteRequest wires the external collaborators for one experiment
type ExecuteRequest struct {
	Generator    ports.CircuitGeneratorPort
	Ideal        ports.IdealExecutorPort
	Experimental ports.ExperimentalExecutorPort
	NumTrials    int
	Shots        int
}

// Execute runs the full pipeline: generate circuits, collect ideal
// statevectors and experimental counts (executor calls may run in
// parallel), then fold completed results into the engine from a single
// writer so the accumulate semantics hold.
func (s *VolumeService) Execute(ctx context.Context, req ExecuteRequest) error {
	if req.NumTrials < 1 {
		return fmt.Errorf("execute: trial count %d must be positive", req.NumTrials)
	}
	if req.Shots < 1 {
		return fmt.Errorf("execute: shot count %d must be positive", req.Shots)
	}

	batch, err := req.Generator.Generate(ctx, s.widths, req.NumTrials)
	if err != nil {
		return fmt.Errorf("execute: circuit generation: %w", err)
	}

	keys := sortedKeys(batch.Ideal)
	log.Printf("[volume] run %s: %d circuits across %d widths", s.runID, len(keys), s.widths.NumWidths())

	vectors := make([][]complex128, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.Parallelism > 0 {
		g.SetLimit(s.cfg.Parallelism)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			vec, err := req.Ideal.Statevector(gctx, batch.Ideal[key])
			if err != nil {
				return fmt.Errorf("ideal execution %s: %w", key, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	for i, key := range keys {
		if err := s.engine.AddIdealSource(key, distribution.Amplitudes(vectors[i])); err != nil {
			return fmt.Errorf("execute: registering ideal %s: %w", key, err)
		}
	}
	log.Printf("[volume] run %s: ideal distributions registered", s.runID)

	counts := make([]qv.Counts, len(keys))
	g, gctx = errgroup.WithContext(ctx)
	if s.cfg.Parallelism > 0 {
		g.SetLimit(s.cfg.Parallelism)
	}
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			c, err := req.Experimental.Counts(gctx, batch.Measured[key], req.Shots)
			if err != nil {
				return fmt.Errorf("experimental execution %s: %w", key, err)
			}
			counts[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	for i, key := range keys {
		if err := s.engine.AddExperimental(key, counts[i]); err != nil {
			return fmt.Errorf("execute: aggregating counts %s: %w", key, err)
		}
	}
	log.Printf("[volume] run %s: experimental counts aggregated", s.runID)

	return nil
}

// Resolve walks widths in configured order and builds the volume report.
// Widths with no experimental data are omitted from the results; a run
// where no width has data is an error. A width whose statistics are too
// thin for a confidence bound fails the whole resolution so the caller can
// decide whether to gather more shots or skip the width.
func (s *VolumeService) Resolve() (*qv.VolumeReport, error) {
	results := make([]qv.WidthResult, 0, s.widths.NumWidths())
	achieved := 0
	priorAllPass := true

	for widthIndex := 0; widthIndex < s.widths.NumWidths(); widthIndex++ {
		stats, err := s.engine.Statistics(widthIndex)
		if errors.Is(err, core.ErrNoData) {
			// An unmeasured width cannot be known to pass, so it breaks
			// the monotonic chain for every larger width.
			priorAllPass = false
			continue
		}
		if err != nil {
			return nil, err
		}

		est, err := s.estimator.Estimate(stats.MeanFraction, stats.TotalShots, stats.Trials)
		if err != nil {
			return nil, fmt.Errorf("width %d: %w", stats.Width, err)
		}

		pass := est.Pass
		if s.cfg.RequireMonotonic && !priorAllPass {
			pass = false
		}
		if !est.Pass {
			priorAllPass = false
		}

		result := qv.WidthResult{
			WidthIndex:   widthIndex,
			Width:        stats.Width,
			Trials:       stats.Trials,
			TotalShots:   stats.TotalShots,
			MeanFraction: stats.MeanFraction,
			Sigma:        est.Sigma,
			LowerBound:   est.LowerBound,
			Confidence:   est.Confidence,
			Pass:         pass,
		}
		if pass {
			result.QuantumVolume = 1 << stats.Width
			if result.QuantumVolume > achieved {
				achieved = result.QuantumVolume
			}
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("resolve: %w", core.ErrNoData)
	}

	return &qv.VolumeReport{
		RunID:          s.runID,
		ConfigHash:     core.ComputeConfigHash(s.widths.QubitSubsets()),
		Results:        results,
		AchievedVolume: achieved,
		Fingerprint:    core.ComputeResultFingerprint(s.engine.StatsSnapshot()),
		CreatedAt:      core.Now(),
	}, nil
}

// sortedKeys orders trial keys by width then trial for deterministic folding
func sortedKeys(m map[core.TrialKey]ports.Circuit) []core.TrialKey {
	keys := make([]core.TrialKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Width != keys[j].Width {
			return keys[i].Width < keys[j].Width
		}
		return keys[i].Trial < keys[j].Trial
	})
	return keys
}
