package sim

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/petrilab/petri/species"
	"github.com/petrilab/petri/telemetry"
	"github.com/petrilab/petri/vec"
)

// edgeDamping scales the reflected velocity component when an agent
// bounces off a world edge in wall-less, non-wrapping scenarios.
const edgeDamping = 0.8

// Tick advances the simulation by one step of DT seconds. It is a no-op
// while the engine is paused.
func (e *Engine) Tick() {
	if !e.running {
		return
	}

	// 1. Effective gravity for this tick.
	gravity := e.gravityVector()

	// 2. Rebuild the spatial index from a position snapshot. Neighbor
	// queries answer with these pinned positions for the whole tick, so
	// update order cannot leak mid-tick movement between agents.
	e.rebuildIndex()

	// 3. Per-agent updates against the pinned neighbor view.
	for i := range e.snap {
		ref := &e.snap[i]
		e.neighbors = e.grid.QueryRadiusInto(e.neighbors[:0], ref.x, ref.y, ref.sense, int32(i))
		e.updateAgent(int32(i), e.neighbors, gravity)
	}

	// 4. World boundary policy.
	e.applyBounds()

	// 5. Cull agents that ran out of energy.
	e.cullDead()

	// 6. The tick is complete.
	e.tick++

	// 7. Frame capture on the recording cadence.
	if e.record && e.tick%e.recordEvery == 0 {
		e.frames = append(e.frames, e.captureFrame())
	}
}

func (e *Engine) gravityVector() vec.Vec2 {
	if !e.cfg.Gravity.Enabled {
		return vec.Vec2{}
	}
	return e.cfg.Gravity.Direction.Normalized().Scale(e.cfg.Gravity.Strength)
}

func (e *Engine) rebuildIndex() {
	e.grid.Clear()
	e.snap = e.snap[:0]

	query := e.agentFilter.Query()
	for query.Next() {
		pos, _, _, ag, _, _, _ := query.Get()
		idx := int32(len(e.snap))
		e.snap = append(e.snap, agentRef{
			entity: query.Entity(),
			x:      pos.X,
			y:      pos.Y,
			sense:  e.set.Species[ag.Species].SenseRadius,
		})
		e.grid.Insert(idx, pos.X, pos.Y)
	}
}

// applyBounds keeps every agent inside the world. Wrapping applies when
// the world wraps globally or the agent's current wall mode wraps; a
// wall-less bounded world reflects off its edges instead.
func (e *Engine) applyBounds() {
	width, height := e.cfg.World.Width, e.cfg.World.Height

	query := e.agentFilter.Query()
	for query.Next() {
		pos, vel, _, ag, _, _, _ := query.Get()
		st := e.set.Species[ag.Species].StateByID(ag.State)

		if e.cfg.World.WrapEdges || st.Wall == species.WallWrap {
			pos.X = wrapCoord(pos.X, width)
			pos.Y = wrapCoord(pos.Y, height)
			continue
		}
		if len(e.walls) > 0 {
			// The scenario's walls are the boundary.
			continue
		}

		if pos.X < 0 {
			pos.X = 0
			vel.X = -vel.X * edgeDamping
		} else if pos.X > width {
			pos.X = width
			vel.X = -vel.X * edgeDamping
		}
		if pos.Y < 0 {
			pos.Y = 0
			vel.Y = -vel.Y * edgeDamping
		} else if pos.Y > height {
			pos.Y = height
			vel.Y = -vel.Y * edgeDamping
		}
	}
}

// wrapCoord maps v into [0, size) with a positive modulo.
func wrapCoord(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	// Adding size to a tiny negative remainder can round to exactly
	// size, which is outside the half-open interval.
	if v >= size {
		v -= size
	}
	return v
}

// cullDead removes agents whose energy is spent. Removal happens after
// iteration; the world forbids structural changes inside a query.
func (e *Engine) cullDead() {
	var dead []ecs.Entity
	query := e.agentFilter.Query()
	for query.Next() {
		_, _, _, _, energy, _, _ := query.Get()
		if energy.Value <= 0 {
			dead = append(dead, query.Entity())
		}
	}
	for _, entity := range dead {
		e.agentMapper.Remove(entity)
		e.count--
	}
}

func (e *Engine) captureFrame() telemetry.Frame {
	frame := telemetry.Frame{
		Tick:   e.tick,
		Agents: make([]telemetry.AgentFrame, 0, e.count),
	}
	query := e.agentFilter.Query()
	for query.Next() {
		pos, vel, _, ag, _, _, _ := query.Get()
		frame.Agents = append(frame.Agents, telemetry.AgentFrame{
			ID:    ag.ID,
			X:     pos.X,
			Y:     pos.Y,
			VelX:  vel.X,
			VelY:  vel.Y,
			State: e.set.StateName(ag.State),
		})
	}
	return frame
}
