package sim

import (
	"math"

	"github.com/petrilab/petri/components"
	"github.com/petrilab/petri/config"
	"github.com/petrilab/petri/species"
	"github.com/petrilab/petri/systems"
	"github.com/petrilab/petri/vec"
)

// Stick mechanics constants.
const (
	unstickChance = 0.001 // per-tick chance a wall-stuck agent breaks free
	stickDamping  = 0.1   // velocity retained when two agents bond
)

// updateAgent advances one agent by a tick. The neighbor list comes from
// the grid built at the start of the tick, so every agent sees the same
// pre-tick population layout regardless of update order.
func (e *Engine) updateAgent(idx int32, neighbors []systems.Neighbor, gravity vec.Vec2) {
	entity := e.snap[idx].entity
	pos := e.posMap.Get(entity)
	vel := e.velMap.Get(entity)
	acc := e.accMap.Get(entity)
	ag := e.agentMap.Get(entity)
	energy := e.energyMap.Get(entity)
	inbox := e.inboxMap.Get(entity)
	bonds := e.bondsMap.Get(entity)

	sp := &e.set.Species[ag.Species]

	// 1. State timer advances every tick, frozen or not.
	ag.Timer += e.dt

	// 2. Wall-stuck agents stay frozen until the unstick roll succeeds.
	if bonds.StuckWall >= 0 {
		if e.rng.Float64() >= unstickChance {
			inbox.Signals = inbox.Signals[:0]
			return
		}
		bonds.StuckWall = -1
	}

	// Pin the neighbors' states once; conditions, interactions and
	// behaviors below all read this same view.
	e.nbStates = e.nbStates[:0]
	for _, n := range neighbors {
		nb := e.agentMap.Get(e.snap[n.Index].entity)
		e.nbStates = append(e.nbStates, nb.State)
	}

	// 3. Forces accumulate from scratch each tick.
	acc.Vec2 = vec.Vec2{}

	// 4. Transitions of the current state, declared order, first match
	// wins. A match switches the behavior set for the rest of this tick.
	st := sp.StateByID(ag.State)
	for _, tr := range st.Transitions {
		if e.conditionHolds(tr.When, ag, energy, inbox) {
			ag.State = tr.To
			ag.Timer = 0
			st = sp.StateByID(tr.To)
			break
		}
	}

	// 5. Gravity scales with the current state's mass.
	acc.Vec2 = acc.Vec2.Add(gravity.Scale(st.Mass))

	// 6. Pairwise interactions against neighbors with a matching rule.
	for k, n := range neighbors {
		inter := st.InteractionWith(e.nbStates[k])
		if inter == nil {
			continue
		}

		dist := math.Sqrt(n.DistSq)
		if dist > 0 && dist <= inter.AttractionRange {
			// Epsilon-regularized inverse square; negative force repels.
			f := inter.AttractionForce / (n.DistSq + 1)
			acc.X += n.DX / dist * f
			acc.Y += n.DY / dist * f
		}

		if !inter.StickOnContact {
			continue
		}
		nbEntity := e.snap[n.Index].entity
		nbAg := e.agentMap.Get(nbEntity)
		nbSt := e.set.Species[nbAg.Species].StateByID(e.nbStates[k])
		if nbSt != nil && dist < st.Radius+nbSt.Radius && e.rng.Float64() < inter.StickStrength {
			vel.Vec2 = vel.Vec2.Scale(stickDamping)
			bond(bonds, ag.ID, e.bondsMap.Get(nbEntity), nbAg.ID)
		} else {
			unbond(bonds, ag.ID, e.bondsMap.Get(nbEntity), nbAg.ID)
		}
	}

	// 7. Behaviors in declared order mutate velocity, never position.
	for _, b := range st.Behaviors {
		e.applyBehavior(b, ag, vel, neighbors)
	}

	// 8. Drag then friction decay, then integrate forces and clamp speed.
	vel.Vec2 = vel.Vec2.Scale(st.Drag).Scale(st.Friction)
	vel.Vec2 = vel.Vec2.Add(acc.Vec2.Scale(e.dt))
	if sp.MaxSpeed > 0 {
		if speed := vel.Vec2.Length(); speed > sp.MaxSpeed {
			vel.Vec2 = vel.Vec2.Scale(sp.MaxSpeed / speed)
		}
	}

	// 9. Integrate position.
	pos.Vec2 = pos.Vec2.Add(vel.Vec2.Scale(e.dt))

	// 10. Wall contact resolution.
	e.resolveWalls(pos, vel, bonds, energy, st)

	// 11. Signals received this tick were either read in step 4 or are
	// gone; the inbox drains exactly once per tick.
	inbox.Signals = inbox.Signals[:0]
}

// conditionHolds evaluates one transition condition against the agent
// and the pinned neighbor view in e.nbStates.
func (e *Engine) conditionHolds(c species.Condition, ag *components.Agent, energy *components.Energy, inbox *components.Inbox) bool {
	switch c := c.(type) {
	case species.Timer:
		return ag.Timer >= c.Duration
	case species.NeighborCount:
		n := len(e.nbStates)
		if n < c.Min {
			return false
		}
		return c.Max <= 0 || n <= c.Max
	case species.NeighborState:
		count := 0
		for _, s := range e.nbStates {
			if s == c.State {
				count++
				if count >= c.Count {
					return true
				}
			}
		}
		return false
	case species.EnergyLevel:
		if c.Below {
			return energy.Value < c.Threshold
		}
		return energy.Value > c.Threshold
	case species.SignalReceived:
		for _, s := range inbox.Signals {
			if s == c.Signal {
				return true
			}
		}
		return false
	case species.RandomChance:
		return e.rng.Float64() < c.Probability
	case species.Always:
		return true
	}
	return false
}

// applyBehavior runs one behavior of the agent's current state.
func (e *Engine) applyBehavior(b species.Behavior, ag *components.Agent, vel *components.Velocity, neighbors []systems.Neighbor) {
	switch b := b.(type) {
	case species.MoveRandom:
		vel.X += (e.rng.Float64() - 0.5) * b.Strength
		vel.Y += (e.rng.Float64() - 0.5) * b.Strength

	case species.MoveTowards:
		var sum vec.Vec2
		matched := 0
		for k, n := range neighbors {
			if b.Target >= 0 && e.nbStates[k] != b.Target {
				continue
			}
			sum.X += n.DX
			sum.Y += n.DY
			matched++
		}
		if matched == 0 {
			return
		}
		dir := sum.Scale(1 / float64(matched)).Normalized()
		vel.Vec2 = vel.Vec2.Add(dir.Scale(b.Strength))

	case species.MoveAway:
		for k, n := range neighbors {
			if b.Target >= 0 && e.nbStates[k] != b.Target {
				continue
			}
			if n.DistSq == 0 {
				continue
			}
			// Inverse-square falloff, accumulated per neighbor.
			dist := math.Sqrt(n.DistSq)
			push := b.Strength / n.DistSq
			vel.X -= n.DX / dist * push
			vel.Y -= n.DY / dist * push
		}

	case species.SeekResource:
		best := -1
		bestSq := math.MaxFloat64
		for k, n := range neighbors {
			if e.nbStates[k] == ag.State || n.DistSq == 0 {
				continue
			}
			if n.DistSq < bestSq {
				bestSq = n.DistSq
				best = k
			}
		}
		if best < 0 {
			return
		}
		n := neighbors[best]
		dist := math.Sqrt(n.DistSq)
		vel.X += n.DX / dist * b.Strength
		vel.Y += n.DY / dist * b.Strength

	case species.EmitSignal:
		rangeSq := b.Range * b.Range
		for _, n := range neighbors {
			if n.DistSq > rangeSq {
				continue
			}
			nb := e.inboxMap.Get(e.snap[n.Index].entity)
			nb.Signals = append(nb.Signals, b.Signal)
		}

	case species.Idle:
		vel.Vec2 = vel.Vec2.Scale(b.Friction)
	}
}

// resolveWalls applies wall contacts to the agent in wall declaration
// order. Deadly walls drain the agent on any contact; sticky walls force
// a stick attempt regardless of the state's wall mode.
func (e *Engine) resolveWalls(pos *components.Position, vel *components.Velocity, bonds *components.Bonds, energy *components.Energy, st *species.State) {
	for wi := range e.walls {
		w := &e.walls[wi]
		contact, ok := w.Hit(pos.Vec2, st.Radius)
		if !ok {
			continue
		}

		if w.Type == config.WallDeadly {
			energy.Value = 0
		}

		mode := st.Wall
		if w.Type == config.WallSticky {
			mode = species.WallStick
		}

		switch {
		case mode == species.WallWrap:
			// Edge wrapping is applied once per tick by the engine.
			continue

		case mode == species.WallStick && e.rng.Float64() < st.Stickiness:
			pos.Vec2 = pos.Vec2.Add(contact.Normal.Scale(contact.Penetration))
			vel.Vec2 = vec.Vec2{}
			bonds.StuckWall = wi
			return // frozen; later walls cannot move this agent

		case mode == species.WallSlide:
			pos.Vec2 = pos.Vec2.Add(contact.Normal.Scale(contact.Penetration))
			vel.Vec2 = systems.Slide(vel.Vec2, contact.Normal, st.Friction)

		default: // bounce, including failed stick rolls
			pos.Vec2 = pos.Vec2.Add(contact.Normal.Scale(contact.Penetration))
			vel.Vec2 = systems.Reflect(vel.Vec2, contact.Normal, st.Elasticity)
		}
	}
}

// bond records a mutual attachment between two agents.
func bond(a *components.Bonds, aID uint32, b *components.Bonds, bID uint32) {
	a.Attached = addBond(a.Attached, bID)
	b.Attached = addBond(b.Attached, aID)
}

// unbond drops any prior attachment between two agents.
func unbond(a *components.Bonds, aID uint32, b *components.Bonds, bID uint32) {
	a.Attached = removeBond(a.Attached, bID)
	b.Attached = removeBond(b.Attached, aID)
}

func addBond(list []uint32, id uint32) []uint32 {
	for _, v := range list {
		if v == id {
			return list
		}
	}
	return append(list, id)
}

func removeBond(list []uint32, id uint32) []uint32 {
	for i, v := range list {
		if v == id {
			list[i] = list[len(list)-1]
			return list[:len(list)-1]
		}
	}
	return list
}
