// Package sim drives the agent population: it owns the ECS world, the
// spatial index, the wall set and the per-tick update loop.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/petrilab/petri/components"
	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/species"
	"github.com/petrilab/petri/systems"
	"github.com/petrilab/petri/telemetry"
	"github.com/petrilab/petri/vec"
)

// DefaultRecordEvery is the frame capture cadence in ticks.
const DefaultRecordEvery = 5

// Options configure a new engine.
type Options struct {
	Config      *config.Config
	Seed        int64
	Record      bool // capture population frames while ticking
	RecordEvery int  // ticks between frames (0 = DefaultRecordEvery)
}

// agentRef pins an agent's entity, position and sense radius at the
// start of a tick.
type agentRef struct {
	entity ecs.Entity
	x, y   float64
	sense  float64
}

// Engine runs one scenario headlessly. All randomness flows through the
// seeded RNG, so equal seeds replay equal runs. An Engine is not safe
// for concurrent use; run one per goroutine.
type Engine struct {
	cfg  *config.Config
	set  *species.Set
	rng  *rand.Rand
	seed int64

	world       *ecs.World
	agentMapper *ecs.Map7[components.Position, components.Velocity, components.Acceleration, components.Agent, components.Energy, components.Inbox, components.Bonds]
	agentFilter *ecs.Filter7[components.Position, components.Velocity, components.Acceleration, components.Agent, components.Energy, components.Inbox, components.Bonds]

	posMap    *ecs.Map1[components.Position]
	velMap    *ecs.Map1[components.Velocity]
	accMap    *ecs.Map1[components.Acceleration]
	agentMap  *ecs.Map1[components.Agent]
	energyMap *ecs.Map1[components.Energy]
	inboxMap  *ecs.Map1[components.Inbox]
	bondsMap  *ecs.Map1[components.Bonds]

	grid  *systems.Grid
	walls []systems.Wall

	dt      float64
	tick    int32
	running bool
	nextID  uint32
	count   int

	record      bool
	recordEvery int32
	frames      []telemetry.Frame

	// Per-tick scratch, reused to keep the loop allocation-free.
	snap      []agentRef
	neighbors []systems.Neighbor
	nbStates  []int
}

// New builds an engine from cfg, compiles its species rules and spawns
// the initial population. The engine starts paused.
func New(opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	set, err := species.Compile(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile species: %w", err)
	}

	recordEvery := int32(opts.RecordEvery)
	if recordEvery <= 0 {
		recordEvery = DefaultRecordEvery
	}

	world := ecs.NewWorld()
	e := &Engine{
		cfg:  cfg,
		set:  set,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		seed: opts.Seed,

		world:       world,
		agentMapper: ecs.NewMap7[components.Position, components.Velocity, components.Acceleration, components.Agent, components.Energy, components.Inbox, components.Bonds](world),
		agentFilter: ecs.NewFilter7[components.Position, components.Velocity, components.Acceleration, components.Agent, components.Energy, components.Inbox, components.Bonds](world),

		posMap:    ecs.NewMap1[components.Position](world),
		velMap:    ecs.NewMap1[components.Velocity](world),
		accMap:    ecs.NewMap1[components.Acceleration](world),
		agentMap:  ecs.NewMap1[components.Agent](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		inboxMap:  ecs.NewMap1[components.Inbox](world),
		bondsMap:  ecs.NewMap1[components.Bonds](world),

		grid:  systems.NewGrid(cfg.World.Width, cfg.World.Height, cfg.Physics.GridCellSize, cfg.World.WrapEdges),
		walls: systems.BuildWalls(cfg.Walls),

		dt:          cfg.DT(),
		record:      opts.Record,
		recordEvery: recordEvery,
	}

	e.spawnInitial()
	return e, nil
}

// Start lets Tick advance the simulation.
func (e *Engine) Start() { e.running = true }

// Pause stops Tick from advancing until Start is called again.
func (e *Engine) Pause() { e.running = false }

// Running reports whether Tick currently advances the simulation.
func (e *Engine) Running() bool { return e.running }

// Reset stops the run, discards the population and recorded frames, and
// respawns from the configuration. The RNG is reseeded, so a reset
// engine replays the original run.
func (e *Engine) Reset() {
	e.running = false

	var all []ecs.Entity
	query := e.agentFilter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, entity := range all {
		e.agentMapper.Remove(entity)
	}

	e.count = 0
	e.nextID = 0
	e.tick = 0
	e.frames = nil
	e.rng = rand.New(rand.NewSource(e.seed))
	e.spawnInitial()
}

// Spawn adds one agent and reports whether it was created. A nil
// position places the agent uniformly at random; a species index
// outside the set falls back to uniform sampling. At the population
// cap the call is refused without error.
func (e *Engine) Spawn(pos *vec.Vec2, speciesIdx int) bool {
	if len(e.set.Species) == 0 {
		return false
	}
	if capacity := e.cfg.Population.Max; capacity > 0 && e.count >= capacity {
		return false
	}
	if speciesIdx < 0 || speciesIdx >= len(e.set.Species) {
		speciesIdx = e.rng.Intn(len(e.set.Species))
	}
	p := vec.Vec2{
		X: e.rng.Float64() * e.cfg.World.Width,
		Y: e.rng.Float64() * e.cfg.World.Height,
	}
	if pos != nil {
		p = *pos
	}
	e.spawnAgent(p, speciesIdx)
	return true
}

// AgentCount returns the number of live agents.
func (e *Engine) AgentCount() int { return e.count }

// CurrentTick returns the number of completed ticks.
func (e *Engine) CurrentTick() int32 { return e.tick }

// Seed returns the RNG seed the engine was built with.
func (e *Engine) Seed() int64 { return e.seed }

// DT returns the simulated seconds per tick.
func (e *Engine) DT() float64 { return e.dt }

// Species returns the compiled species set. Callers must treat it as
// read-only.
func (e *Engine) Species() *species.Set { return e.set }

// StateCounts returns the live agent count per state name.
func (e *Engine) StateCounts() map[string]int {
	counts := make(map[string]int, e.set.NumStates())
	query := e.agentFilter.Query()
	for query.Next() {
		_, _, _, ag, _, _, _ := query.Get()
		counts[e.set.StateName(ag.State)]++
	}
	return counts
}

// Views returns a copy-on-read sample of every live agent.
func (e *Engine) Views() []telemetry.AgentView {
	views := make([]telemetry.AgentView, 0, e.count)
	query := e.agentFilter.Query()
	for query.Next() {
		pos, vel, _, ag, energy, _, _ := query.Get()
		views = append(views, telemetry.AgentView{
			ID:          ag.ID,
			Species:     ag.Species,
			State:       ag.State,
			X:           pos.X,
			Y:           pos.Y,
			VelX:        vel.X,
			VelY:        vel.Y,
			StateTimer:  ag.Timer,
			Energy:      energy.Value,
			SenseRadius: e.set.Species[ag.Species].SenseRadius,
		})
	}
	return views
}

// Metrics computes the emergent indicators for the live population.
func (e *Engine) Metrics() telemetry.Metrics {
	return telemetry.Compute(e.Views(), e.cfg.World.Width, e.cfg.World.Height, e.cfg.World.WrapEdges, e.dt)
}

// Walls returns a copy of the compiled wall set.
func (e *Engine) Walls() []systems.Wall {
	out := make([]systems.Wall, len(e.walls))
	copy(out, e.walls)
	return out
}

// Frames returns a deep copy of the frames recorded so far.
func (e *Engine) Frames() []telemetry.Frame {
	out := make([]telemetry.Frame, len(e.frames))
	for i, f := range e.frames {
		out[i] = f.Clone()
	}
	return out
}

func (e *Engine) spawnInitial() {
	if len(e.set.Species) == 0 {
		return
	}
	for i := 0; i < e.cfg.Population.Initial; i++ {
		pos := vec.Vec2{
			X: e.rng.Float64() * e.cfg.World.Width,
			Y: e.rng.Float64() * e.cfg.World.Height,
		}
		e.spawnAgent(pos, e.rng.Intn(len(e.set.Species)))
	}
}

func (e *Engine) spawnAgent(pos vec.Vec2, speciesIdx int) ecs.Entity {
	sp := &e.set.Species[speciesIdx]

	position := components.Position{Vec2: pos}
	velocity := components.Velocity{}
	accel := components.Acceleration{}
	agent := components.Agent{
		ID:      e.nextID,
		Species: speciesIdx,
		State:   sp.Initial,
	}
	energy := components.Energy{Value: sp.InitialEnergy}
	inbox := components.Inbox{}
	bonds := components.Bonds{StuckWall: -1}

	entity := e.agentMapper.NewEntity(&position, &velocity, &accel, &agent, &energy, &inbox, &bonds)
	e.nextID++
	e.count++
	return entity
}
