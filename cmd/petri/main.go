// petri runs headless agent population simulations: single trials,
// seeded batches, and offline analysis of saved results.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "petri",
		Short: "Agent population simulator",
		Long: `petri simulates populations of autonomous agents in a bounded 2D world.

Each agent runs its species' state machine: states carry movement
behaviors, pairwise interactions and wall responses, and transitions
move agents between states. Trials run for a fixed simulated duration
and report emergent metrics (clustering, movement, diversity,
stability).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			levelStr, _ := cmd.Flags().GetString("log-level")
			return setupLogging(levelStr)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newBatchCmd(),
		newAnalyzeCmd(),
		newValidateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging installs the global slog default: JSON records on stderr,
// keeping stdout free for command output.
func setupLogging(levelStr string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("petri version %s\n", version)
		},
	}
}
