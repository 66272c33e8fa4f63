package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/petrilab/petri/trial"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <results.json> [more-results.json...]",
		Short: "Summarize saved trial results",
		Long: `Load saved results and print aggregate statistics.

Additional files are merged in before analysis; records that fail to
parse are skipped and reported, so a partially damaged file still
contributes its readable trials.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			speciesID, _ := cmd.Flags().GetString("species")
			jsonOut, _ := cmd.Flags().GetBool("json")

			results, err := trial.Load(args[0])
			if err != nil {
				return err
			}

			for _, path := range args[1:] {
				var failures []error
				results, failures = trial.Import(path, results)
				for _, ferr := range failures {
					slog.Warn("import failure", "path", path, "error", ferr)
				}
			}

			a := trial.Analyze(results, speciesID)

			if jsonOut {
				data, err := json.MarshalIndent(a, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal analysis: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if a.Count == 0 {
				if speciesID != "" {
					fmt.Printf("No trials for species %q in %d result(s)\n", speciesID, len(results))
				} else {
					fmt.Println("No trials to analyze")
				}
				return nil
			}

			fmt.Printf("Analyzed %d trial(s)", a.Count)
			if speciesID != "" {
				fmt.Printf(" for species %q", speciesID)
			}
			fmt.Println()
			printAnalysis(a)

			return nil
		},
	}

	cmd.Flags().String("species", "", "Only analyze trials tagged with this species id")
	cmd.Flags().Bool("json", false, "Print the analysis as JSON")

	return cmd
}
