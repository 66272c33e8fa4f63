package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/sim"
	"github.com/petrilab/petri/trial"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single trial",
		Long: `Run one simulation trial and print its final metrics.

The scenario comes from --config (embedded defaults when omitted). The
trial runs for --duration simulated seconds at the scenario's tick rate.

Example:
  petri run --config scenarios/drifters.yaml --duration 60 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			durationSec, _ := cmd.Flags().GetFloat64("duration")
			seed, _ := cmd.Flags().GetInt64("seed")
			record, _ := cmd.Flags().GetBool("record")
			recordEvery, _ := cmd.Flags().GetInt("record-every")
			outPath, _ := cmd.Flags().GetString("out")

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			res, err := trial.RunSingle(ctx, cfg, trial.Options{
				Duration:    time.Duration(durationSec * float64(time.Second)),
				Seed:        seed,
				Record:      record,
				RecordEvery: recordEvery,
			})
			if err != nil {
				return err
			}

			printResult(res)

			if outPath != "" {
				if err := trial.Save(outPath, []trial.Result{res}); err != nil {
					return fmt.Errorf("save result: %w", err)
				}
				fmt.Printf("\nResult saved to: %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().String("config", "", "Scenario YAML file (empty = embedded defaults)")
	cmd.Flags().Float64("duration", trial.DefaultDuration.Seconds(), "Simulated duration in seconds")
	cmd.Flags().Int64("seed", 0, "RNG seed (0 = time-based)")
	cmd.Flags().Bool("record", false, "Capture frames for playback")
	cmd.Flags().Int("record-every", sim.DefaultRecordEvery, "Ticks between captured frames")
	cmd.Flags().String("out", "", "Write the result as JSON to this path")

	return cmd
}

func printResult(r trial.Result) {
	fmt.Printf("Trial %s (%s, seed %d)\n", r.ID, r.Scenario, r.Seed)
	fmt.Printf("  Ticks:      %d (%s wall time)\n", r.Ticks, r.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Population: %d\n", r.FinalPopulation)
	if len(r.Frames) > 0 {
		fmt.Printf("  Frames:     %d\n", len(r.Frames))
	}

	if len(r.StateCounts) > 0 {
		names := make([]string, 0, len(r.StateCounts))
		for name := range r.StateCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("  States:\n")
		for _, name := range names {
			fmt.Printf("    %s: %d\n", name, r.StateCounts[name])
		}
	}

	m := r.Metrics
	fmt.Printf("  Metrics:\n")
	fmt.Printf("    clustering:    %.3f\n", m.Clustering)
	fmt.Printf("    movement:      %.3f\n", m.Movement)
	fmt.Printf("    diversity:     %.3f\n", m.Diversity)
	fmt.Printf("    state_changes: %d\n", m.StateChanges)
	fmt.Printf("    stability:     %.3f\n", m.Stability)
	fmt.Printf("    complexity:    %.3f\n", m.Complexity)
}
