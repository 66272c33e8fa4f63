package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/species"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a scenario compiles",
		Long: `Load a scenario and compile its species rules without running anything.

Unknown state references, duplicate ids and malformed rules are reported
the same way the engine would reject them at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load scenario: %w", err)
			}

			set, err := species.Compile(cfg)
			if err != nil {
				return fmt.Errorf("compile species: %w", err)
			}

			name := cfg.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("Scenario %s OK\n", name)
			fmt.Printf("  World:      %gx%g (wrap=%v)\n", cfg.World.Width, cfg.World.Height, cfg.World.WrapEdges)
			fmt.Printf("  Population: %d initial", cfg.Population.Initial)
			if cfg.Population.Max > 0 {
				fmt.Printf(", max %d", cfg.Population.Max)
			}
			fmt.Println()
			fmt.Printf("  Tick rate:  %g/s\n", cfg.Physics.TickRate)
			if len(cfg.Walls) > 0 {
				fmt.Printf("  Walls:      %d\n", len(cfg.Walls))
			}
			fmt.Printf("  Species:    %d (%d distinct states)\n", len(set.Species), set.NumStates())
			for i := range set.Species {
				sp := &set.Species[i]
				transitions := 0
				for _, st := range sp.States {
					transitions += len(st.Transitions)
				}
				fmt.Printf("    %s: %d states, %d transitions, initial %q\n",
					sp.ID, len(sp.States), transitions, set.StateName(sp.Initial))
			}

			return nil
		},
	}

	cmd.Flags().String("config", "", "Scenario YAML file (empty = embedded defaults)")

	return cmd
}
