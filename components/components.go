// Package components defines the ECS components attached to every agent.
package components

import "github.com/petrilab/petri/vec"

// Position is an agent's location in world space.
type Position struct {
	vec.Vec2
}

// Velocity is an agent's velocity in world units per second.
type Velocity struct {
	vec.Vec2
}

// Acceleration accumulates the forces applied during a tick. It is zeroed
// at the start of every agent update.
type Acceleration struct {
	vec.Vec2
}

// Agent identifies an agent and tracks its behavioral state.
type Agent struct {
	ID      uint32
	Species int     // index into the compiled species set
	State   int     // interned state id
	Timer   float64 // seconds since the last state change
}

// Energy is an agent's life reserve. Agents at or below zero are culled at
// the end of the tick.
type Energy struct {
	Value float64
}

// Inbox buffers signal names received since the agent last ran. It is
// drained once per tick by the owning agent.
type Inbox struct {
	Signals []string
}

// Bonds tracks stick attachments to other agents and walls.
type Bonds struct {
	Attached  []uint32 // ids of agents this one is stuck to
	StuckWall int      // wall index, or -1 when free
}
