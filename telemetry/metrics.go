// Package telemetry derives population-level indicators from per-tick
// agent samples and defines the frame records used for replay.
package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/petrilab/petri/systems"
)

// RecencyTicks is the window, in ticks, within which a state change
// still counts as recent for the stability measure.
const RecencyTicks = 10

// AgentView is a read-only sample of one agent at a tick boundary.
type AgentView struct {
	ID          uint32  `json:"id"`
	Species     int     `json:"species"`
	State       int     `json:"state"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VelX        float64 `json:"vel_x"`
	VelY        float64 `json:"vel_y"`
	StateTimer  float64 `json:"state_timer"`
	Energy      float64 `json:"energy"`
	SenseRadius float64 `json:"sense_radius"`
}

// Metrics summarizes the emergent structure of one population sample.
// Clustering, diversity, stability and complexity are normalized to
// [0, 1]; movement is in world units per second.
type Metrics struct {
	Population   int     `json:"population" csv:"population"`
	Clustering   float64 `json:"clustering" csv:"clustering"`
	Movement     float64 `json:"movement" csv:"movement"`
	Diversity    float64 `json:"diversity" csv:"diversity"`
	StateChanges int     `json:"state_changes" csv:"state_changes"`
	Stability    float64 `json:"stability" csv:"stability"`
	Complexity   float64 `json:"complexity" csv:"complexity"`
}

// LogValue implements slog.LogValuer for structured logging.
func (m Metrics) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("population", m.Population),
		slog.Float64("clustering", m.Clustering),
		slog.Float64("movement", m.Movement),
		slog.Float64("diversity", m.Diversity),
		slog.Int("state_changes", m.StateChanges),
		slog.Float64("stability", m.Stability),
		slog.Float64("complexity", m.Complexity),
	)
}

// Compute derives metrics from one tick's agent views. The world
// dimensions and wrap flag must match the engine that produced the
// views; dt converts the recency window from ticks to seconds.
// An empty population yields all zeros.
func Compute(views []AgentView, width, height float64, wrap bool, dt float64) Metrics {
	n := len(views)
	if n == 0 {
		return Metrics{}
	}

	m := Metrics{Population: n}

	speeds := make([]float64, n)
	for i, v := range views {
		speeds[i] = math.Hypot(v.VelX, v.VelY)
	}
	m.Movement = stat.Mean(speeds, nil)

	m.Diversity = diversity(StateCounts(views), n)
	m.Clustering = clustering(views, width, height, wrap)

	recent := RecencyTicks * dt
	for _, v := range views {
		if v.StateTimer < recent {
			m.StateChanges++
		}
	}
	m.Stability = 1 - float64(m.StateChanges)/float64(n)

	m.Complexity = (m.Diversity + m.Clustering) / 2
	return m
}

// StateCounts tallies views per state id.
func StateCounts(views []AgentView) map[int]int {
	counts := make(map[int]int)
	for _, v := range views {
		counts[v.State]++
	}
	return counts
}

// diversity is the Shannon entropy of the state distribution,
// normalized so a uniform spread over the states present scores 1.
// A single state scores 0.
func diversity(counts map[int]int, total int) float64 {
	if len(counts) < 2 {
		return 0
	}
	p := make([]float64, 0, len(counts))
	for _, c := range counts {
		p = append(p, float64(c)/float64(total))
	}
	return stat.Entropy(p) / math.Log(float64(len(p)))
}

// clustering averages each agent's local pair density: of the pairs
// among its neighbors, the share that also sit within the agent's
// sense radius of each other. Agents with fewer than two neighbors
// contribute 0.
func clustering(views []AgentView, width, height float64, wrap bool) float64 {
	grid := systems.NewGrid(width, height, 0, wrap)
	for i, v := range views {
		grid.Insert(int32(i), v.X, v.Y)
	}

	var sum float64
	var scratch []systems.Neighbor
	for i, v := range views {
		if v.SenseRadius <= 0 {
			continue
		}
		scratch = grid.QueryRadiusInto(scratch[:0], v.X, v.Y, v.SenseRadius, int32(i))
		k := len(scratch)
		if k < 2 {
			continue
		}

		radiusSq := v.SenseRadius * v.SenseRadius
		near := 0
		for a := 0; a < k; a++ {
			va := views[scratch[a].Index]
			for b := a + 1; b < k; b++ {
				vb := views[scratch[b].Index]
				dx, dy := grid.Delta(va.X, va.Y, vb.X, vb.Y)
				if dx*dx+dy*dy <= radiusSq {
					near++
				}
			}
		}
		sum += float64(near) / float64(k*(k-1)/2)
	}

	return sum / float64(len(views))
}
