package trial

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/petrilab/petri/telemetry"
)

// Result is the immutable outcome of one completed trial.
type Result struct {
	ID        string        `json:"id"`
	Scenario  string        `json:"scenario"`
	Species   string        `json:"species,omitempty"` // set when the scenario runs a single species
	Seed      int64         `json:"seed"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`
	Ticks     int32         `json:"ticks"`

	FinalPopulation int               `json:"final_population"`
	StateCounts     map[string]int    `json:"state_counts"`
	Metrics         telemetry.Metrics `json:"metrics"`
	Frames          []telemetry.Frame `json:"frames,omitempty"`
}

// Analysis aggregates the emergent metrics across a set of trials.
// Means are arithmetic; Best and Worst are picked by complexity.
type Analysis struct {
	Count int `json:"count"`

	MeanPopulation   float64 `json:"mean_population"`
	MeanClustering   float64 `json:"mean_clustering"`
	MeanMovement     float64 `json:"mean_movement"`
	MeanDiversity    float64 `json:"mean_diversity"`
	MeanStateChanges float64 `json:"mean_state_changes"`
	MeanStability    float64 `json:"mean_stability"`
	MeanComplexity   float64 `json:"mean_complexity"`

	Best  Result `json:"best"`
	Worst Result `json:"worst"`
}

// Analyze summarizes results, optionally restricted to one species id
// (empty keeps everything). An empty or fully filtered set yields a
// zero-valued analysis.
func Analyze(results []Result, speciesID string) Analysis {
	var kept []Result
	for _, r := range results {
		if speciesID == "" || r.Species == speciesID {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return Analysis{}
	}

	a := Analysis{
		Count: len(kept),
		Best:  kept[0],
		Worst: kept[0],
	}

	col := make([]float64, len(kept))
	mean := func(field func(telemetry.Metrics) float64) float64 {
		for i, r := range kept {
			col[i] = field(r.Metrics)
		}
		return stat.Mean(col, nil)
	}

	a.MeanPopulation = mean(func(m telemetry.Metrics) float64 { return float64(m.Population) })
	a.MeanClustering = mean(func(m telemetry.Metrics) float64 { return m.Clustering })
	a.MeanMovement = mean(func(m telemetry.Metrics) float64 { return m.Movement })
	a.MeanDiversity = mean(func(m telemetry.Metrics) float64 { return m.Diversity })
	a.MeanStateChanges = mean(func(m telemetry.Metrics) float64 { return float64(m.StateChanges) })
	a.MeanStability = mean(func(m telemetry.Metrics) float64 { return m.Stability })
	a.MeanComplexity = mean(func(m telemetry.Metrics) float64 { return m.Complexity })

	for _, r := range kept[1:] {
		if r.Metrics.Complexity > a.Best.Metrics.Complexity {
			a.Best = r
		}
		if r.Metrics.Complexity < a.Worst.Metrics.Complexity {
			a.Worst = r
		}
	}

	return a
}
