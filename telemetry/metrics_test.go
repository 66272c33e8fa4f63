package telemetry

import (
	"math"
	"testing"
)

func view(state int, x, y, vx, vy, timer, sense float64) AgentView {
	return AgentView{State: state, X: x, Y: y, VelX: vx, VelY: vy, StateTimer: timer, SenseRadius: sense}
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, 800, 600, true, 1.0/60)
	if got != (Metrics{}) {
		t.Errorf("Compute(empty) = %+v, want zero value", got)
	}
}

func TestDiversity(t *testing.T) {
	tests := []struct {
		name   string
		states []int
		want   float64
	}{
		{"single state", []int{0, 0, 0, 0}, 0},
		{"two states even", []int{0, 0, 1, 1}, 1},
		{"three states even", []int{0, 1, 2, 0, 1, 2}, 1},
		{"two states skewed", []int{0, 0, 0, 1},
			-(0.75*math.Log(0.75) + 0.25*math.Log(0.25)) / math.Log(2)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			views := make([]AgentView, len(tc.states))
			for i, s := range tc.states {
				// Spread out so clustering stays quiet.
				views[i] = view(s, float64(i)*100, 0, 0, 0, 100, 10)
			}

			got := Compute(views, 10000, 10000, false, 1.0/60)
			if math.Abs(got.Diversity-tc.want) > 1e-9 {
				t.Errorf("Diversity = %v, want %v", got.Diversity, tc.want)
			}
		})
	}
}

func TestMovement(t *testing.T) {
	views := []AgentView{
		view(0, 0, 0, 3, 4, 100, 10),
		view(0, 500, 0, 0, 0, 100, 10),
	}

	got := Compute(views, 1000, 1000, false, 1.0/60)
	if math.Abs(got.Movement-2.5) > 1e-9 {
		t.Errorf("Movement = %v, want 2.5", got.Movement)
	}
}

func TestClustering(t *testing.T) {
	t.Run("tight cluster scores one", func(t *testing.T) {
		views := []AgentView{
			view(0, 100, 100, 0, 0, 100, 50),
			view(0, 101, 100, 0, 0, 100, 50),
			view(0, 100, 101, 0, 0, 100, 50),
		}
		got := Compute(views, 800, 600, false, 1.0/60)
		if math.Abs(got.Clustering-1) > 1e-9 {
			t.Errorf("Clustering = %v, want 1", got.Clustering)
		}
	})

	t.Run("scattered scores zero", func(t *testing.T) {
		views := []AgentView{
			view(0, 0, 0, 0, 0, 100, 30),
			view(0, 400, 0, 0, 0, 100, 30),
			view(0, 0, 400, 0, 0, 100, 30),
		}
		got := Compute(views, 1000, 1000, false, 1.0/60)
		if got.Clustering != 0 {
			t.Errorf("Clustering = %v, want 0", got.Clustering)
		}
	})

	t.Run("partial cluster", func(t *testing.T) {
		// A and B each see a pair split by the sense radius; C and D
		// each see one fully-connected pair.
		views := []AgentView{
			view(0, 0, 0, 0, 0, 100, 60),   // A
			view(0, 50, 0, 0, 0, 100, 60),  // B
			view(0, 25, 40, 0, 0, 100, 60), // C
			view(0, 25, -40, 0, 0, 100, 60),
		}
		// Rebase into positive coordinates.
		for i := range views {
			views[i].X += 200
			views[i].Y += 200
		}

		got := Compute(views, 800, 600, false, 1.0/60)
		want := (2.0/3.0 + 2.0/3.0 + 1.0 + 1.0) / 4.0
		if math.Abs(got.Clustering-want) > 1e-9 {
			t.Errorf("Clustering = %v, want %v", got.Clustering, want)
		}
	})
}

func TestStateChangesAndStability(t *testing.T) {
	dt := 1.0 / 60
	views := []AgentView{
		view(0, 0, 0, 0, 0, 0.05, 10), // timer below 10 ticks: recent
		view(0, 500, 0, 0, 0, 5.0, 10),
		view(1, 0, 500, 0, 0, 9.0, 10),
		view(1, 500, 500, 0, 0, 0.1, 10), // recent
	}

	got := Compute(views, 1000, 1000, false, dt)
	if got.StateChanges != 2 {
		t.Errorf("StateChanges = %d, want 2", got.StateChanges)
	}
	if math.Abs(got.Stability-0.5) > 1e-9 {
		t.Errorf("Stability = %v, want 0.5", got.Stability)
	}
}

func TestMetricsRanges(t *testing.T) {
	views := []AgentView{
		view(0, 10, 10, 5, 0, 0.01, 80),
		view(1, 20, 15, -3, 2, 4, 80),
		view(0, 30, 12, 0, 0, 0.05, 80),
		view(2, 700, 500, 1, 1, 8, 80),
		view(1, 710, 505, 0, -2, 0.02, 80),
	}

	got := Compute(views, 800, 600, true, 1.0/60)
	for name, v := range map[string]float64{
		"Clustering": got.Clustering,
		"Diversity":  got.Diversity,
		"Stability":  got.Stability,
		"Complexity": got.Complexity,
	} {
		if v < 0 || v > 1 {
			t.Errorf("%s = %v, want within [0, 1]", name, v)
		}
	}
	if want := (got.Diversity + got.Clustering) / 2; math.Abs(got.Complexity-want) > 1e-12 {
		t.Errorf("Complexity = %v, want %v", got.Complexity, want)
	}
}

func TestStateCounts(t *testing.T) {
	views := []AgentView{
		view(2, 0, 0, 0, 0, 0, 0),
		view(2, 0, 0, 0, 0, 0, 0),
		view(5, 0, 0, 0, 0, 0, 0),
	}

	counts := StateCounts(views)
	if counts[2] != 2 || counts[5] != 1 {
		t.Errorf("StateCounts = %v, want map[2:2 5:1]", counts)
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(views) {
		t.Errorf("counts sum = %d, want %d", total, len(views))
	}
}
