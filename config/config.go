// Package config provides scenario loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petrilab/petri/vec"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config describes a complete simulation scenario. It is treated as
// immutable once handed to an engine; trials share one Config freely.
type Config struct {
	Name       string           `yaml:"name"`
	World      WorldConfig      `yaml:"world"`
	Population PopulationConfig `yaml:"population"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Gravity    GravityConfig    `yaml:"gravity"`
	Walls      []WallConfig     `yaml:"walls"`
	Species    []SpeciesConfig  `yaml:"species"`
}

// WorldConfig holds world dimensions and edge topology.
type WorldConfig struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	WrapEdges bool    `yaml:"wrap_edges"`
}

// PopulationConfig holds population limits.
type PopulationConfig struct {
	Initial int `yaml:"initial"`
	Max     int `yaml:"max"` // 0 = uncapped
}

// PhysicsConfig holds timing and spatial index parameters.
type PhysicsConfig struct {
	TickRate     float64 `yaml:"tick_rate"`      // simulation ticks per second (0 = 60)
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial grid cell size in world units (0 = 200)
}

// GravityConfig holds the global gravity field.
type GravityConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Direction vec.Vec2 `yaml:"direction"`
	Strength  float64  `yaml:"strength"`
}

// WallType selects what a wall segment does to agents that hit it.
type WallType string

// Wall types. One-way walls block only agents approaching their front
// face (the left-hand side of the A->B direction). Sticky walls force a
// stick attempt regardless of the state's wall mode. Deadly walls zero an
// agent's energy on contact.
const (
	WallSolid  WallType = "solid"
	WallOneWay WallType = "one_way"
	WallSticky WallType = "sticky"
	WallDeadly WallType = "deadly"
)

// WallConfig is a line segment obstacle with thickness.
type WallConfig struct {
	X1        float64  `yaml:"x1"`
	Y1        float64  `yaml:"y1"`
	X2        float64  `yaml:"x2"`
	Y2        float64  `yaml:"y2"`
	Thickness float64  `yaml:"thickness"`
	Type      WallType `yaml:"type"` // empty = solid
}

// SpeciesConfig defines one species: its states, transitions and limits.
type SpeciesConfig struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	InitialState  string             `yaml:"initial_state"`
	MaxSpeed      float64            `yaml:"max_speed"` // 0 = uncapped
	SenseRadius   float64            `yaml:"sense_radius"`
	InitialEnergy float64            `yaml:"initial_energy"`
	States        []StateConfig      `yaml:"states"`
	Transitions   []TransitionConfig `yaml:"transitions"`
}

// StateConfig defines one named state of a species. Zero values fall back
// to the defaults noted per field when the species set is compiled.
type StateConfig struct {
	Name         string              `yaml:"name"`
	Radius       float64             `yaml:"radius"`     // 0 = 5
	Mass         float64             `yaml:"mass"`       // 0 = 1
	Friction     float64             `yaml:"friction"`   // 0 = 1 (no decay)
	Drag         float64             `yaml:"drag"`       // 0 = 1 (no decay)
	Elasticity   float64             `yaml:"elasticity"` // 0 = 0.8
	Stickiness   float64             `yaml:"stickiness"` // stick probability at walls
	WallMode     string              `yaml:"wall_mode"`  // bounce (default), stick, slide, wrap
	Behaviors    []BehaviorConfig    `yaml:"behaviors"`
	Interactions []InteractionConfig `yaml:"interactions"`
}

// BehaviorConfig is one entry in a state's ordered behavior list. Type
// selects which of the remaining fields are read; the rest are ignored.
type BehaviorConfig struct {
	Type        string  `yaml:"type"`         // move_random, move_towards, move_away, seek_resource, emit_signal, idle
	Strength    float64 `yaml:"strength"`     // movement behaviors
	TargetState string  `yaml:"target_state"` // optional filter for move_towards / move_away
	Signal      string  `yaml:"signal"`       // emit_signal payload
	Range       float64 `yaml:"range"`        // emit_signal reach (0 = sense radius)
	Friction    float64 `yaml:"friction"`     // idle velocity retention per tick
}

// TransitionConfig moves an agent between two named states of its species
// when the condition holds.
type TransitionConfig struct {
	From      string          `yaml:"from"`
	To        string          `yaml:"to"`
	Condition ConditionConfig `yaml:"condition"`
}

// ConditionConfig is a tagged transition trigger. Type selects which of
// the remaining fields are read.
type ConditionConfig struct {
	Type        string  `yaml:"type"`        // timer, neighbor_count, neighbor_state, energy_level, signal_received, random_chance, always
	Duration    float64 `yaml:"duration"`    // timer, in simulation seconds
	Min         int     `yaml:"min"`         // neighbor_count lower bound
	Max         int     `yaml:"max"`         // neighbor_count upper bound (0 = unbounded)
	State       string  `yaml:"state"`       // neighbor_state target
	Count       int     `yaml:"count"`       // neighbor_state minimum matches
	Threshold   float64 `yaml:"threshold"`   // energy_level
	Operator    string  `yaml:"operator"`    // energy_level: above (default) or below
	Signal      string  `yaml:"signal"`      // signal_received
	Probability float64 `yaml:"probability"` // random_chance, clamped to [0, 1]
}

// InteractionConfig is a pairwise rule against neighbors in a named state.
// A negative attraction force repels.
type InteractionConfig struct {
	TargetState     string  `yaml:"target_state"`
	AttractionForce float64 `yaml:"attraction_force"`
	AttractionRange float64 `yaml:"attraction_range"`
	StickOnContact  bool    `yaml:"stick_on_contact"`
	StickStrength   float64 `yaml:"stick_strength"` // stick probability on contact
}

// Load loads a scenario from a YAML file, merging over embedded defaults.
// If path is empty, only the embedded defaults are used. Scalars present
// in the file override defaults; lists (walls, species) replace wholesale.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading scenario file: %w", err)
		}
		// Unmarshal into the same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing scenario file: %w", err)
		}
	}

	cfg.applyFallbacks()

	return cfg, nil
}

// Default returns the embedded default scenario.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// The embedded scenario is compiled in; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// applyFallbacks fills timing and bookkeeping values a scenario may omit.
func (c *Config) applyFallbacks() {
	if c.Physics.TickRate <= 0 {
		c.Physics.TickRate = 60
	}
	if c.Physics.GridCellSize <= 0 {
		c.Physics.GridCellSize = 200
	}
	if c.Population.Initial < 0 {
		c.Population.Initial = 0
	}
	if c.Population.Max > 0 && c.Population.Initial > c.Population.Max {
		c.Population.Initial = c.Population.Max
	}
}

// DT returns the seconds of simulated time per tick.
func (c *Config) DT() float64 {
	return 1.0 / c.Physics.TickRate
}

// WriteYAML saves the scenario to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling scenario: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	return nil
}
