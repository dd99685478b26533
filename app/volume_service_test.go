package app

import (
	"context"
	"testing"

	"goqv/adapters/sim"
	"goqv/domain/core"
	"goqv/domain/qv"

	"github.com/stretchr/testify/require"
)

func widthConfig(t *testing.T, subsets [][]int) *qv.WidthConfig {
	t.Helper()
	config, err := qv.NewWidthConfig(subsets)
	require.NoError(t, err)
	return config
}

// TestExecuteAndResolve_PerfectBackend runs the whole pipeline against the
// zero-error simulator: every width should clear the heavy-output test and
// the achieved volume should be 2^(largest width).
func TestExecuteAndResolve_PerfectBackend(t *testing.T) {
	ctx := context.Background()
	config := widthConfig(t, [][]int{{0, 1, 2}, {0, 1, 2, 3}})
	runID := core.RunID("run-perfect")

	service := NewVolumeService(runID, config, VolumeServiceConfig{Parallelism: 4})
	backend := sim.NewSimulator(sim.Config{Seed: 1234, ErrorRate: 0})

	err := service.Execute(ctx, ExecuteRequest{
		Generator:    backend,
		Ideal:        backend,
		Experimental: backend,
		NumTrials:    50,
		Shots:        1024,
	})
	require.NoError(t, err)

	report, err := service.Resolve()
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	for _, res := range report.Results {
		require.Greater(t, res.MeanFraction, 2.0/3.0, "width %d mean", res.Width)
		require.True(t, res.Pass, "width %d should pass on a perfect backend (confidence %f)", res.Width, res.Confidence)
		require.Equal(t, 50, res.Trials)
		require.Equal(t, 50*1024, res.TotalShots)
	}
	require.Equal(t, 1<<4, report.AchievedVolume)
	require.Equal(t, runID, report.RunID)
	require.False(t, report.Fingerprint.IsEmpty())
}

// TestExecuteAndResolve_NoisyBackendFails: at high error rates the sampled
// heavy fraction collapses toward 0.5 and no width passes.
func TestExecuteAndResolve_NoisyBackendFails(t *testing.T) {
	ctx := context.Background()
	config := widthConfig(t, [][]int{{0, 1, 2}})
	runID := core.RunID("run-noisy")

	service := NewVolumeService(runID, config, VolumeServiceConfig{})
	backend := sim.NewSimulator(sim.Config{Seed: 99, ErrorRate: 0.9})

	err := service.Execute(ctx, ExecuteRequest{
		Generator:    backend,
		Ideal:        backend,
		Experimental: backend,
		NumTrials:    30,
		Shots:        512,
	})
	require.NoError(t, err)

	report, err := service.Resolve()
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.False(t, report.Results[0].Pass)
	require.Zero(t, report.AchievedVolume)
}

// TestResolve_ReplayFingerprintStable: identical seeds produce identical
// statistics fingerprints across independent runs, even though each run
// mints its own identifier the way the CLI does.
func TestResolve_ReplayFingerprintStable(t *testing.T) {
	ctx := context.Background()
	config := widthConfig(t, [][]int{{0, 1, 2}})

	fingerprints := make([]core.Hash, 2)
	for i := range fingerprints {
		runID := core.RunID(core.NewID())
		service := NewVolumeService(runID, config, VolumeServiceConfig{Parallelism: 8})
		backend := sim.NewSimulator(sim.Config{Seed: 555, ErrorRate: 0.05})

		err := service.Execute(ctx, ExecuteRequest{
			Generator:    backend,
			Ideal:        backend,
			Experimental: backend,
			NumTrials:    10,
			Shots:        256,
		})
		require.NoError(t, err)

		report, err := service.Resolve()
		require.NoError(t, err)
		fingerprints[i] = report.Fingerprint
	}
	require.Equal(t, fingerprints[0], fingerprints[1],
		"same seed must reproduce the same statistics regardless of run identifier")
}

// TestResolve_MonotonicPolicy: under the monotonic policy a passing width
// does not qualify when a smaller width failed.
func TestResolve_MonotonicPolicy(t *testing.T) {
	config := widthConfig(t, [][]int{{0, 1}, {0, 1, 2}})

	feed := func(service *VolumeService) {
		eng := service.Engine()

		// Width index 0: half the shots heavy, mean 0.5 -> fail
		keyFail := core.NewTrialKey(0, 0)
		require.NoError(t, eng.AddIdeal(keyFail, qv.NewHeavySet("00")))
		require.NoError(t, eng.AddExperimental(keyFail, qv.Counts{"00": 512, "11": 512}))

		// Width index 1: every shot heavy, mean 1.0 -> pass on its own
		keyPass := core.NewTrialKey(1, 0)
		require.NoError(t, eng.AddIdeal(keyPass, qv.NewHeavySet("000")))
		require.NoError(t, eng.AddExperimental(keyPass, qv.Counts{"000": 1024}))
	}

	independent := NewVolumeService(core.RunID("run-indep"), config, VolumeServiceConfig{})
	feed(independent)
	report, err := independent.Resolve()
	require.NoError(t, err)
	require.False(t, report.Results[0].Pass)
	require.True(t, report.Results[1].Pass)
	require.Equal(t, 1<<3, report.AchievedVolume)

	monotonic := NewVolumeService(core.RunID("run-mono"), config, VolumeServiceConfig{RequireMonotonic: true})
	feed(monotonic)
	report, err = monotonic.Resolve()
	require.NoError(t, err)
	require.False(t, report.Results[0].Pass)
	require.False(t, report.Results[1].Pass, "monotonic policy should disqualify after a failed smaller width")
	require.Zero(t, report.AchievedVolume)
}

// TestResolve_MonotonicPolicySkippedWidth: an unmeasured smaller width
// disqualifies larger widths under the monotonic policy, since it cannot
// be known to pass.
func TestResolve_MonotonicPolicySkippedWidth(t *testing.T) {
	config := widthConfig(t, [][]int{{0, 1}, {0, 1, 2}})

	feed := func(service *VolumeService) {
		// Only width index 1 has data, and it passes on its own.
		key := core.NewTrialKey(1, 0)
		require.NoError(t, service.Engine().AddIdeal(key, qv.NewHeavySet("000")))
		require.NoError(t, service.Engine().AddExperimental(key, qv.Counts{"000": 1024}))
	}

	independent := NewVolumeService(core.RunID("run-skip-indep"), config, VolumeServiceConfig{})
	feed(independent)
	report, err := independent.Resolve()
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.True(t, report.Results[0].Pass)
	require.Equal(t, 1<<3, report.AchievedVolume)

	monotonic := NewVolumeService(core.RunID("run-skip-mono"), config, VolumeServiceConfig{RequireMonotonic: true})
	feed(monotonic)
	report, err = monotonic.Resolve()
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.False(t, report.Results[0].Pass,
		"a width above an unmeasured width must not qualify under the monotonic policy")
	require.Zero(t, report.AchievedVolume)
}

// TestResolve_OmitsWidthsWithoutData and errors when nothing has data
func TestResolve_OmitsWidthsWithoutData(t *testing.T) {
	config := widthConfig(t, [][]int{{0, 1}, {0, 1, 2}})

	service := NewVolumeService(core.RunID("run-sparse"), config, VolumeServiceConfig{})
	require.NoError(t, service.Engine().AddIdeal(core.NewTrialKey(0, 0), qv.NewHeavySet("00")))
	require.NoError(t, service.Engine().AddExperimental(core.NewTrialKey(0, 0), qv.Counts{"00": 900, "01": 124}))

	report, err := service.Resolve()
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.Equal(t, 2, report.Results[0].Width)

	empty := NewVolumeService(core.RunID("run-empty"), config, VolumeServiceConfig{})
	_, err = empty.Resolve()
	require.ErrorIs(t, err, core.ErrNoData)
}
