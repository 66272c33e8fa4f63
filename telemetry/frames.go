package telemetry

// Frame is a minimal per-tick record of the population, decoupled from
// the live agents so recordings can outlive their engine.
type Frame struct {
	Tick   int32        `json:"tick"`
	Agents []AgentFrame `json:"agents"`
}

// AgentFrame holds one agent's recorded pose.
type AgentFrame struct {
	ID    uint32  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VelX  float64 `json:"vel_x"`
	VelY  float64 `json:"vel_y"`
	State string  `json:"state"`
}

// Clone deep-copies a frame so callers can hold it across ticks.
func (f Frame) Clone() Frame {
	agents := make([]AgentFrame, len(f.Agents))
	copy(agents, f.Agents)
	return Frame{Tick: f.Tick, Agents: agents}
}
