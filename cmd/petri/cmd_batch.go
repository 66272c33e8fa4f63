package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/sim"
	"github.com/petrilab/petri/trial"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a batch of seeded trials",
		Long: `Run N trials of one scenario with consecutive seeds and summarize them.

Trial i runs with seed --seed+i, so a batch is reproducible end to end.
With --output, per-trial rows stream to summary.csv and the full results
plus the scenario snapshot land in the directory when the batch ends.

Example:
  petri batch --config scenarios/drifters.yaml --trials 20 --workers 4 --output out/drifters`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			trials, _ := cmd.Flags().GetInt("trials")
			durationSec, _ := cmd.Flags().GetFloat64("duration")
			seed, _ := cmd.Flags().GetInt64("seed")
			workers, _ := cmd.Flags().GetInt("workers")
			outputDir, _ := cmd.Flags().GetString("output")
			record, _ := cmd.Flags().GetBool("record")
			recordEvery, _ := cmd.Flags().GetInt("record-every")

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			out, err := trial.NewOutput(outputDir)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			start := time.Now()
			results, err := trial.RunBatch(ctx, cfg, trials, trial.Options{
				Duration:    time.Duration(durationSec * float64(time.Second)),
				Seed:        seed,
				Record:      record,
				RecordEvery: recordEvery,
				Workers:     workers,
				Progress: func(done, total int, last trial.Result) {
					fmt.Printf("Trial %d/%d: seed=%d pop=%d complexity=%.3f\n",
						done, total, last.Seed, last.FinalPopulation, last.Metrics.Complexity)
					if err := out.WriteSummary(last); err != nil {
						slog.Warn("summary write failed", "error", err)
					}
				},
			})
			if err != nil {
				return err
			}

			if err := out.WriteResults(results); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			if err := out.WriteConfig(cfg); err != nil {
				return fmt.Errorf("write scenario: %w", err)
			}

			a := trial.Analyze(results, "")
			fmt.Printf("\nBatch complete: %d trials in %s\n", a.Count, time.Since(start).Round(time.Second))
			printAnalysis(a)

			if dir := out.Dir(); dir != "" {
				fmt.Printf("\nResults saved to: %s\n", dir)
			}

			return nil
		},
	}

	cmd.Flags().String("config", "", "Scenario YAML file (empty = embedded defaults)")
	cmd.Flags().Int("trials", 10, "Number of trials")
	cmd.Flags().Float64("duration", trial.DefaultDuration.Seconds(), "Simulated duration per trial in seconds")
	cmd.Flags().Int64("seed", 0, "Base RNG seed; trial i uses seed+i (0 = time-based)")
	cmd.Flags().Int("workers", 0, "Parallel trial workers (0 = sequential)")
	cmd.Flags().String("output", "", "Output directory for CSV summary, results and scenario snapshot")
	cmd.Flags().Bool("record", false, "Capture frames in each result")
	cmd.Flags().Int("record-every", sim.DefaultRecordEvery, "Ticks between captured frames")

	return cmd
}

func printAnalysis(a trial.Analysis) {
	fmt.Printf("  Mean population:    %.1f\n", a.MeanPopulation)
	fmt.Printf("  Mean clustering:    %.3f\n", a.MeanClustering)
	fmt.Printf("  Mean movement:      %.3f\n", a.MeanMovement)
	fmt.Printf("  Mean diversity:     %.3f\n", a.MeanDiversity)
	fmt.Printf("  Mean state changes: %.1f\n", a.MeanStateChanges)
	fmt.Printf("  Mean stability:     %.3f\n", a.MeanStability)
	fmt.Printf("  Mean complexity:    %.3f\n", a.MeanComplexity)
	fmt.Printf("  Best trial:  %s (complexity %.3f)\n", a.Best.ID, a.Best.Metrics.Complexity)
	fmt.Printf("  Worst trial: %s (complexity %.3f)\n", a.Worst.ID, a.Worst.Metrics.Complexity)
}
