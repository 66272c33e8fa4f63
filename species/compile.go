package species

import (
	"fmt"

	"github.com/petrilab/petri/config"
)

// Defaults substituted for zero-valued state physics fields.
const (
	defaultRadius     = 5.0
	defaultMass       = 1.0
	defaultFriction   = 1.0
	defaultDrag       = 1.0
	defaultElasticity = 0.8
)

// Compile interns every state name in the scenario and builds the rule
// tables. A reference to an unknown state, a duplicate id, or a malformed
// entry fails compilation here instead of surfacing mid-run.
func Compile(cfg *config.Config) (*Set, error) {
	set := &Set{byName: make(map[string]int)}

	// First pass: intern every declared state name so forward and
	// cross-species references resolve regardless of declaration order.
	for _, sc := range cfg.Species {
		for _, st := range sc.States {
			if st.Name == "" {
				return nil, fmt.Errorf("species %q: state with empty name", sc.ID)
			}
			set.intern(st.Name)
		}
	}

	seenIDs := make(map[string]bool, len(cfg.Species))
	for _, sc := range cfg.Species {
		if sc.ID == "" {
			return nil, fmt.Errorf("species %q: empty id", sc.Name)
		}
		if seenIDs[sc.ID] {
			return nil, fmt.Errorf("duplicate species id %q", sc.ID)
		}
		seenIDs[sc.ID] = true

		sp, err := set.compileSpecies(sc)
		if err != nil {
			return nil, err
		}
		set.Species = append(set.Species, sp)
	}

	return set, nil
}

func (s *Set) intern(name string) int {
	if id, ok := s.byName[name]; ok {
		return id
	}
	id := len(s.names)
	s.names = append(s.names, name)
	s.byName[name] = id
	return id
}

func (s *Set) compileSpecies(sc config.SpeciesConfig) (Species, error) {
	sp := Species{
		ID:            sc.ID,
		Name:          sc.Name,
		MaxSpeed:      sc.MaxSpeed,
		SenseRadius:   sc.SenseRadius,
		InitialEnergy: sc.InitialEnergy,
		byID:          make([]int, len(s.names)),
	}
	for i := range sp.byID {
		sp.byID[i] = -1
	}

	if len(sc.States) == 0 {
		return sp, fmt.Errorf("species %q: no states", sc.ID)
	}

	local := make(map[string]int, len(sc.States))
	for _, stc := range sc.States {
		if _, dup := local[stc.Name]; dup {
			return sp, fmt.Errorf("species %q: duplicate state %q", sc.ID, stc.Name)
		}
		st, err := s.compileState(sc, stc)
		if err != nil {
			return sp, err
		}
		local[stc.Name] = len(sp.States)
		sp.byID[st.ID] = len(sp.States)
		sp.States = append(sp.States, st)
	}

	init, ok := local[sc.InitialState]
	if !ok {
		return sp, fmt.Errorf("species %q: initial state %q not defined", sc.ID, sc.InitialState)
	}
	sp.Initial = sp.States[init].ID

	// Transitions attach to their from-state in declared order.
	for i, tc := range sc.Transitions {
		from, ok := local[tc.From]
		if !ok {
			return sp, fmt.Errorf("species %q: transition %d from unknown state %q", sc.ID, i, tc.From)
		}
		to, ok := local[tc.To]
		if !ok {
			return sp, fmt.Errorf("species %q: transition %d to unknown state %q", sc.ID, i, tc.To)
		}
		cond, err := s.compileCondition(tc.Condition)
		if err != nil {
			return sp, fmt.Errorf("species %q: transition %d (%s -> %s): %w", sc.ID, i, tc.From, tc.To, err)
		}
		st := &sp.States[from]
		st.Transitions = append(st.Transitions, Transition{To: sp.States[to].ID, When: cond})
	}

	return sp, nil
}

func (s *Set) compileState(sc config.SpeciesConfig, stc config.StateConfig) (State, error) {
	st := State{
		ID:         s.byName[stc.Name],
		Name:       stc.Name,
		Radius:     fallback(stc.Radius, defaultRadius),
		Mass:       fallback(stc.Mass, defaultMass),
		Friction:   fallback(stc.Friction, defaultFriction),
		Drag:       fallback(stc.Drag, defaultDrag),
		Elasticity: fallback(stc.Elasticity, defaultElasticity),
		Stickiness: clamp01(stc.Stickiness),
	}

	switch stc.WallMode {
	case "", "bounce":
		st.Wall = WallBounce
	case "stick":
		st.Wall = WallStick
	case "slide":
		st.Wall = WallSlide
	case "wrap", "phase":
		st.Wall = WallWrap
	default:
		return st, fmt.Errorf("species %q state %q: unknown wall mode %q", sc.ID, stc.Name, stc.WallMode)
	}

	for i, bc := range stc.Behaviors {
		b, err := s.compileBehavior(sc, bc)
		if err != nil {
			return st, fmt.Errorf("species %q state %q behavior %d: %w", sc.ID, stc.Name, i, err)
		}
		st.Behaviors = append(st.Behaviors, b)
	}

	st.interFor = make([]int, len(s.names))
	for i := range st.interFor {
		st.interFor[i] = -1
	}
	for i, ic := range stc.Interactions {
		target, ok := s.byName[ic.TargetState]
		if !ok {
			return st, fmt.Errorf("species %q state %q interaction %d: unknown target state %q", sc.ID, stc.Name, i, ic.TargetState)
		}
		st.interFor[target] = len(st.Interactions)
		st.Interactions = append(st.Interactions, Interaction{
			Target:          target,
			AttractionForce: ic.AttractionForce,
			AttractionRange: ic.AttractionRange,
			StickOnContact:  ic.StickOnContact,
			StickStrength:   clamp01(ic.StickStrength),
		})
	}

	return st, nil
}

func (s *Set) compileBehavior(sc config.SpeciesConfig, bc config.BehaviorConfig) (Behavior, error) {
	// target resolves an optional state filter: absent means any state.
	target := func() (int, error) {
		if bc.TargetState == "" {
			return -1, nil
		}
		id, ok := s.byName[bc.TargetState]
		if !ok {
			return -1, fmt.Errorf("unknown target state %q", bc.TargetState)
		}
		return id, nil
	}

	switch bc.Type {
	case "move_random":
		return MoveRandom{Strength: bc.Strength}, nil
	case "move_towards":
		id, err := target()
		if err != nil {
			return nil, err
		}
		return MoveTowards{Strength: bc.Strength, Target: id}, nil
	case "move_away":
		id, err := target()
		if err != nil {
			return nil, err
		}
		return MoveAway{Strength: bc.Strength, Target: id}, nil
	case "seek_resource":
		return SeekResource{Strength: bc.Strength}, nil
	case "emit_signal":
		if bc.Signal == "" {
			return nil, fmt.Errorf("emit_signal with empty signal")
		}
		r := bc.Range
		if r <= 0 {
			r = sc.SenseRadius
		}
		return EmitSignal{Signal: bc.Signal, Range: r}, nil
	case "idle":
		return Idle{Friction: bc.Friction}, nil
	default:
		return nil, fmt.Errorf("unknown behavior type %q", bc.Type)
	}
}

func (s *Set) compileCondition(cc config.ConditionConfig) (Condition, error) {
	switch cc.Type {
	case "timer":
		return Timer{Duration: cc.Duration}, nil
	case "neighbor_count":
		return NeighborCount{Min: cc.Min, Max: cc.Max}, nil
	case "neighbor_state":
		id, ok := s.byName[cc.State]
		if !ok {
			return nil, fmt.Errorf("neighbor_state: unknown state %q", cc.State)
		}
		count := cc.Count
		if count < 1 {
			count = 1
		}
		return NeighborState{State: id, Count: count}, nil
	case "energy_level":
		switch cc.Operator {
		case "", "above":
			return EnergyLevel{Threshold: cc.Threshold}, nil
		case "below":
			return EnergyLevel{Threshold: cc.Threshold, Below: true}, nil
		default:
			return nil, fmt.Errorf("energy_level: unknown operator %q", cc.Operator)
		}
	case "signal_received":
		if cc.Signal == "" {
			return nil, fmt.Errorf("signal_received with empty signal")
		}
		return SignalReceived{Signal: cc.Signal}, nil
	case "random_chance":
		return RandomChance{Probability: clamp01(cc.Probability)}, nil
	case "always":
		return Always{}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", cc.Type)
	}
}

// fallback substitutes def for unset (zero or negative) physics values.
func fallback(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
