package species

import (
	"strings"
	"testing"

	"github.com/petrilab/petri/config"
)

// twoSpecies builds a scenario where both species declare a state named
// "shared" plus one of their own.
func twoSpecies() *config.Config {
	return &config.Config{
		Species: []config.SpeciesConfig{
			{
				ID:           "a",
				InitialState: "alpha",
				SenseRadius:  50,
				States: []config.StateConfig{
					{Name: "alpha"},
					{Name: "shared"},
				},
				Transitions: []config.TransitionConfig{
					{From: "alpha", To: "shared", Condition: config.ConditionConfig{Type: "always"}},
				},
			},
			{
				ID:           "b",
				InitialState: "shared",
				SenseRadius:  50,
				States: []config.StateConfig{
					{Name: "shared"},
					{Name: "beta"},
				},
			},
		},
	}
}

func TestCompileInternsAcrossSpecies(t *testing.T) {
	set, err := Compile(twoSpecies())
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	if got := set.NumStates(); got != 3 {
		t.Errorf("NumStates() = %d, want 3 (alpha, shared, beta)", got)
	}

	shared := set.StateID("shared")
	if shared < 0 {
		t.Fatal("StateID(shared) = -1")
	}

	// Both species must resolve the shared id to their own table entry.
	for i := range set.Species {
		st := set.Species[i].StateByID(shared)
		if st == nil {
			t.Errorf("species %q: StateByID(shared) = nil", set.Species[i].ID)
			continue
		}
		if st.Name != "shared" {
			t.Errorf("species %q: StateByID(shared).Name = %q", set.Species[i].ID, st.Name)
		}
	}

	// Species a must not know species b's private state.
	beta := set.StateID("beta")
	if set.Species[0].StateByID(beta) != nil {
		t.Error("species a resolves state beta, want nil")
	}
}

func TestCompileAppliesDefaults(t *testing.T) {
	set, err := Compile(twoSpecies())
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	st := set.Species[0].StateByID(set.StateID("alpha"))
	if st == nil {
		t.Fatal("StateByID(alpha) = nil")
	}
	if st.Mass != 1 || st.Drag != 1 || st.Friction != 1 {
		t.Errorf("defaults = mass %v drag %v friction %v, want 1 1 1", st.Mass, st.Drag, st.Friction)
	}
	if st.Radius != 5 {
		t.Errorf("default radius = %v, want 5", st.Radius)
	}
	if st.Elasticity != 0.8 {
		t.Errorf("default elasticity = %v, want 0.8", st.Elasticity)
	}
}

func TestCompileRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name: "unknown transition target",
			mutate: func(c *config.Config) {
				c.Species[0].Transitions[0].To = "ghost"
			},
			wantErr: "unknown state",
		},
		{
			name: "unknown transition source",
			mutate: func(c *config.Config) {
				c.Species[0].Transitions[0].From = "ghost"
			},
			wantErr: "unknown state",
		},
		{
			name: "cross-species transition target",
			mutate: func(c *config.Config) {
				// beta exists globally but not in species a
				c.Species[0].Transitions[0].To = "beta"
			},
			wantErr: "unknown state",
		},
		{
			name: "missing initial state",
			mutate: func(c *config.Config) {
				c.Species[1].InitialState = "ghost"
			},
			wantErr: "initial state",
		},
		{
			name: "duplicate species id",
			mutate: func(c *config.Config) {
				c.Species[1].ID = "a"
			},
			wantErr: "duplicate species id",
		},
		{
			name: "duplicate state name",
			mutate: func(c *config.Config) {
				c.Species[0].States = append(c.Species[0].States, config.StateConfig{Name: "alpha"})
			},
			wantErr: "duplicate state",
		},
		{
			name: "unknown interaction target",
			mutate: func(c *config.Config) {
				c.Species[0].States[0].Interactions = []config.InteractionConfig{
					{TargetState: "ghost", AttractionForce: 10, AttractionRange: 50},
				}
			},
			wantErr: "unknown target state",
		},
		{
			name: "unknown behavior type",
			mutate: func(c *config.Config) {
				c.Species[0].States[0].Behaviors = []config.BehaviorConfig{{Type: "teleport"}}
			},
			wantErr: "unknown behavior type",
		},
		{
			name: "unknown behavior target",
			mutate: func(c *config.Config) {
				c.Species[0].States[0].Behaviors = []config.BehaviorConfig{
					{Type: "move_towards", Strength: 5, TargetState: "ghost"},
				}
			},
			wantErr: "unknown target state",
		},
		{
			name: "unknown condition type",
			mutate: func(c *config.Config) {
				c.Species[0].Transitions[0].Condition = config.ConditionConfig{Type: "moon_phase"}
			},
			wantErr: "unknown condition type",
		},
		{
			name: "unknown neighbor state",
			mutate: func(c *config.Config) {
				c.Species[0].Transitions[0].Condition = config.ConditionConfig{Type: "neighbor_state", State: "ghost"}
			},
			wantErr: "unknown state",
		},
		{
			name: "unknown energy operator",
			mutate: func(c *config.Config) {
				c.Species[0].Transitions[0].Condition = config.ConditionConfig{Type: "energy_level", Threshold: 1, Operator: "near"}
			},
			wantErr: "unknown operator",
		},
		{
			name: "unknown wall mode",
			mutate: func(c *config.Config) {
				c.Species[0].States[0].WallMode = "quantum"
			},
			wantErr: "unknown wall mode",
		},
		{
			name: "empty signal",
			mutate: func(c *config.Config) {
				c.Species[0].States[0].Behaviors = []config.BehaviorConfig{{Type: "emit_signal"}}
			},
			wantErr: "empty signal",
		},
		{
			name: "species without states",
			mutate: func(c *config.Config) {
				c.Species[0].States = nil
				c.Species[0].Transitions = nil
			},
			wantErr: "no states",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := twoSpecies()
			tc.mutate(cfg)
			_, err := Compile(cfg)
			if err == nil {
				t.Fatal("Compile() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestCompileBehaviorVariants(t *testing.T) {
	cfg := twoSpecies()
	cfg.Species[0].States[0].Behaviors = []config.BehaviorConfig{
		{Type: "move_random", Strength: 30},
		{Type: "move_towards", Strength: 12, TargetState: "shared"},
		{Type: "move_away", Strength: 500},
		{Type: "seek_resource", Strength: 20},
		{Type: "emit_signal", Signal: "ping"},
		{Type: "idle", Friction: 0.9},
	}

	set, err := Compile(cfg)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	st := set.Species[0].StateByID(set.StateID("alpha"))
	if len(st.Behaviors) != 6 {
		t.Fatalf("compiled %d behaviors, want 6", len(st.Behaviors))
	}

	if b, ok := st.Behaviors[1].(MoveTowards); !ok || b.Target != set.StateID("shared") {
		t.Errorf("behavior 1 = %#v, want MoveTowards targeting shared", st.Behaviors[1])
	}
	if b, ok := st.Behaviors[2].(MoveAway); !ok || b.Target != -1 {
		t.Errorf("behavior 2 = %#v, want MoveAway with open target", st.Behaviors[2])
	}
	if b, ok := st.Behaviors[4].(EmitSignal); !ok || b.Range != cfg.Species[0].SenseRadius {
		t.Errorf("behavior 4 = %#v, want EmitSignal range defaulted to sense radius", st.Behaviors[4])
	}
}

func TestInteractionLookup(t *testing.T) {
	cfg := twoSpecies()
	cfg.Species[0].States[0].Interactions = []config.InteractionConfig{
		{TargetState: "shared", AttractionForce: -40, AttractionRange: 80},
	}

	set, err := Compile(cfg)
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	st := set.Species[0].StateByID(set.StateID("alpha"))
	inter := st.InteractionWith(set.StateID("shared"))
	if inter == nil {
		t.Fatal("InteractionWith(shared) = nil")
	}
	if inter.AttractionForce != -40 {
		t.Errorf("AttractionForce = %v, want -40", inter.AttractionForce)
	}
	if st.InteractionWith(set.StateID("alpha")) != nil {
		t.Error("InteractionWith(alpha) != nil, want nil")
	}
	if st.InteractionWith(-1) != nil {
		t.Error("InteractionWith(-1) != nil, want nil")
	}
}
