// Package species compiles scenario definitions into the interned rule
// tables the engine executes. All state and species name references are
// resolved to indices here, so lookups during a tick never touch strings.
package species

// Set is the compiled form of a scenario's species list. State names are
// interned globally: two species that declare the same state name share an
// id, which is what makes cross-species interaction targets and
// neighbor-state conditions comparable by index.
type Set struct {
	Species []Species

	names  []string
	byName map[string]int
}

// StateName returns the interned name for a state id, or "" when unknown.
func (s *Set) StateName(id int) string {
	if id < 0 || id >= len(s.names) {
		return ""
	}
	return s.names[id]
}

// StateID returns the interned id for a state name, or -1 when unknown.
func (s *Set) StateID(name string) int {
	if id, ok := s.byName[name]; ok {
		return id
	}
	return -1
}

// NumStates returns the number of distinct state names across all species.
func (s *Set) NumStates() int {
	return len(s.names)
}

// Species is one compiled species.
type Species struct {
	ID            string
	Name          string
	Initial       int // interned id of the initial state
	MaxSpeed      float64
	SenseRadius   float64
	InitialEnergy float64
	States        []State

	byID []int // interned id -> local index, -1 when the species lacks it
}

// StateByID returns the species' state for an interned id, or nil when
// this species does not define it.
func (sp *Species) StateByID(id int) *State {
	if id < 0 || id >= len(sp.byID) {
		return nil
	}
	local := sp.byID[id]
	if local < 0 {
		return nil
	}
	return &sp.States[local]
}

// State is one compiled state with its physics, behaviors, transitions
// and pairwise interactions.
type State struct {
	ID   int
	Name string

	Radius     float64
	Mass       float64
	Friction   float64
	Drag       float64
	Elasticity float64
	Stickiness float64
	Wall       WallMode

	Behaviors    []Behavior
	Transitions  []Transition
	Interactions []Interaction

	interFor []int // interned id -> index into Interactions, -1 when none
}

// InteractionWith returns the interaction entry targeting the given state
// id, or nil when the state has none.
func (st *State) InteractionWith(id int) *Interaction {
	if id < 0 || id >= len(st.interFor) {
		return nil
	}
	idx := st.interFor[id]
	if idx < 0 {
		return nil
	}
	return &st.Interactions[idx]
}

// WallMode selects how a state reacts to wall contact.
type WallMode uint8

const (
	WallBounce WallMode = iota // push out, reflect scaled by elasticity
	WallStick                  // freeze with probability stickiness, else bounce
	WallSlide                  // push out, cancel the inward component, decay by friction
	WallWrap                   // ignore walls; the engine wraps at world edges
)

// Transition is a compiled state change rule. Transitions attached to a
// state are evaluated in declared order; the first match wins.
type Transition struct {
	To   int
	When Condition
}

// Interaction is a compiled pairwise force and stick rule. A negative
// force repels.
type Interaction struct {
	Target          int
	AttractionForce float64
	AttractionRange float64
	StickOnContact  bool
	StickStrength   float64
}

// Behavior is a movement rule run every tick while its state is active.
// The implementations below are the closed set; the engine dispatches on
// the concrete type.
type Behavior interface {
	behavior()
}

// MoveRandom jitters velocity by up to +-Strength/2 on each axis.
type MoveRandom struct {
	Strength float64
}

// MoveTowards steers toward the average position of matching neighbors.
// Target < 0 matches any state.
type MoveTowards struct {
	Strength float64
	Target   int
}

// MoveAway pushes away from each matching neighbor, weighted by inverse
// squared distance. Target < 0 matches any state.
type MoveAway struct {
	Strength float64
	Target   int
}

// SeekResource steers toward the nearest neighbor in a different state.
type SeekResource struct {
	Strength float64
}

// EmitSignal delivers Signal to every neighbor within Range. The sense
// radius bounds the neighbor query, so it also caps the effective range.
type EmitSignal struct {
	Signal string
	Range  float64
}

// Idle retains Friction of the velocity each tick.
type Idle struct {
	Friction float64
}

func (MoveRandom) behavior()   {}
func (MoveTowards) behavior()  {}
func (MoveAway) behavior()     {}
func (SeekResource) behavior() {}
func (EmitSignal) behavior()   {}
func (Idle) behavior()         {}

// Condition is a transition trigger. The implementations below are the
// closed set; the engine dispatches on the concrete type.
type Condition interface {
	condition()
}

// Timer fires once the state timer reaches Duration seconds.
type Timer struct {
	Duration float64
}

// NeighborCount fires when the neighbor count is within [Min, Max].
// Max <= 0 leaves the upper bound open.
type NeighborCount struct {
	Min, Max int
}

// NeighborState fires when at least Count neighbors are in the target
// state.
type NeighborState struct {
	State int
	Count int
}

// EnergyLevel compares the agent's energy against Threshold.
type EnergyLevel struct {
	Threshold float64
	Below     bool
}

// SignalReceived fires when the named signal sits in the inbox.
type SignalReceived struct {
	Signal string
}

// RandomChance fires with the given probability per evaluation.
type RandomChance struct {
	Probability float64
}

// Always fires unconditionally.
type Always struct{}

func (Timer) condition()          {}
func (NeighborCount) condition()  {}
func (NeighborState) condition()  {}
func (EnergyLevel) condition()    {}
func (SignalReceived) condition() {}
func (RandomChance) condition()   {}
func (Always) condition()         {}
