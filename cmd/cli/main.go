package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"goqv/adapters/excel"
	"goqv/adapters/sim"
	"goqv/app"
	"goqv/domain/core"
	"goqv/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goqv-cli",
		Short: "Quantum volume experiments on a simulated backend",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newWidthsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		trials     int
		shots      int
		seed       int64
		errorRate  float64
		monotonic  bool
		xlsxPath   string
		jsonPath   string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a full quantum volume experiment",
		Long: `Run a quantum volume experiment against the built-in simulated backend.

Widths and execution parameters come from a YAML config file when given,
otherwise from the canonical defaults (widths 3-6, 50 trials, 1024 shots).
Flags override individual config values.

Example: goqv-cli run --config experiment.yaml --seed 12345 --xlsx report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expCfg, err := loadExperiment(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("trials") {
				expCfg.Trials = trials
			}
			if cmd.Flags().Changed("shots") {
				expCfg.Shots = shots
			}
			if cmd.Flags().Changed("seed") {
				expCfg.Seed = seed
			}
			if cmd.Flags().Changed("error-rate") {
				expCfg.ErrorRate = errorRate
			}
			if cmd.Flags().Changed("monotonic") {
				expCfg.RequireMonotonic = monotonic
			}
			if err := expCfg.Validate(); err != nil {
				return err
			}

			return runExperiment(cmd.Context(), expCfg, xlsxPath, jsonPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Experiment config YAML file")
	cmd.Flags().IntVar(&trials, "trials", 50, "Number of random circuits per width")
	cmd.Flags().IntVar(&shots, "shots", 1024, "Measurement shots per circuit")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic replay")
	cmd.Flags().Float64Var(&errorRate, "error-rate", 0.02, "Depolarizing error rate of the simulated backend")
	cmd.Flags().BoolVar(&monotonic, "monotonic", false, "Require all smaller widths to pass before a width qualifies")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write the report as an Excel workbook")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the report as JSON")

	return cmd
}

func newWidthsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "widths",
		Short: "Show the configured width subsets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expCfg, err := loadExperiment(configPath)
			if err != nil {
				return err
			}
			widths, err := expCfg.WidthConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Config hash: %s\n", core.ComputeConfigHash(widths.QubitSubsets()))
			for i, spec := range widths.Specs {
				fmt.Printf("%d. width %d, qubits %v (%d outcomes)\n",
					i+1, spec.Width(), spec.Qubits, spec.NumOutcomes())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Experiment config YAML file")
	return cmd
}

func loadExperiment(path string) (config.ExperimentConfig, error) {
	if path == "" {
		return config.DefaultExperiment(), nil
	}
	return config.LoadExperimentFile(path)
}

func runExperiment(ctx context.Context, expCfg config.ExperimentConfig, xlsxPath, jsonPath string) error {
	widths, err := expCfg.WidthConfig()
	if err != nil {
		return err
	}

	runID := core.RunID(core.NewID())
	fmt.Printf("Run %s: %d widths, %d trials, %d shots, seed %d, error rate %.3f\n",
		runID, widths.NumWidths(), expCfg.Trials, expCfg.Shots, expCfg.Seed, expCfg.ErrorRate)

	backend := sim.NewSimulator(sim.Config{Seed: expCfg.Seed, ErrorRate: expCfg.ErrorRate})
	svc := app.NewVolumeService(runID, widths, app.VolumeServiceConfig{
		RequireMonotonic: expCfg.RequireMonotonic,
		Parallelism:      expCfg.Parallelism,
	})

	if err := svc.Execute(ctx, app.ExecuteRequest{
		Generator:    backend,
		Ideal:        backend,
		Experimental: backend,
		NumTrials:    expCfg.Trials,
		Shots:        expCfg.Shots,
	}); err != nil {
		return fmt.Errorf("experiment execution failed: %w", err)
	}

	report, err := svc.Resolve()
	if err != nil {
		return fmt.Errorf("volume resolution failed: %w", err)
	}

	fmt.Printf("\n=== QUANTUM VOLUME RESULTS ===\n")
	for _, r := range report.Results {
		verdict := "insufficient evidence"
		if r.Pass {
			verdict = fmt.Sprintf("PASSED, quantum volume %d", r.QuantumVolume)
		}
		fmt.Printf("Width %d: mean heavy output probability = %.4f, sigma = %.4f\n",
			r.Width, r.MeanFraction, r.Sigma)
		fmt.Printf("         confidence = %.4f, %s\n", r.Confidence, verdict)
	}

	fmt.Printf("\nAchieved quantum volume: %d\n", report.AchievedVolume)
	fmt.Printf("Fingerprint: %s\n", report.Fingerprint)
	fmt.Printf("Replay with --seed %d to reproduce this result exactly.\n", expCfg.Seed)

	if xlsxPath != "" {
		if err := excel.NewReportWriter().Write(report, xlsxPath); err != nil {
			return fmt.Errorf("writing Excel report: %w", err)
		}
		fmt.Printf("Report written to %s\n", xlsxPath)
	}
	if jsonPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonPath, data, 0644); err != nil {
			return fmt.Errorf("writing JSON report: %w", err)
		}
		fmt.Printf("Report written to %s\n", jsonPath)
	}

	return nil
}
