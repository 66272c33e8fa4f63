package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Name != "default" {
		t.Errorf("Name = %q, want default", cfg.Name)
	}
	if cfg.Physics.TickRate != 60 {
		t.Errorf("TickRate = %v, want 60", cfg.Physics.TickRate)
	}
	if len(cfg.Species) != 2 {
		t.Fatalf("len(Species) = %d, want 2", len(cfg.Species))
	}
	if got := cfg.DT(); math.Abs(got-1.0/60.0) > 1e-12 {
		t.Errorf("DT() = %v, want 1/60", got)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	src := `
name: override
world:
  width: 1000
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Name != "override" {
		t.Errorf("Name = %q, want override", cfg.Name)
	}
	if cfg.World.Width != 1000 {
		t.Errorf("World.Width = %v, want 1000", cfg.World.Width)
	}
	// Untouched keys keep their defaults.
	if cfg.World.Height != 600 {
		t.Errorf("World.Height = %v, want 600 from defaults", cfg.World.Height)
	}
	if !cfg.World.WrapEdges {
		t.Error("World.WrapEdges = false, want true from defaults")
	}
	if len(cfg.Species) != 2 {
		t.Errorf("len(Species) = %d, want 2 from defaults", len(cfg.Species))
	}
}

func TestLoadReplacesListsWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	src := `
species:
  - id: solo
    initial_state: only
    states:
      - name: only
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Species) != 1 || cfg.Species[0].ID != "solo" {
		t.Errorf("Species = %+v, want the single declared species", cfg.Species)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

func TestFallbacks(t *testing.T) {
	cfg := &Config{
		Population: PopulationConfig{Initial: 500, Max: 100},
	}
	cfg.applyFallbacks()

	if cfg.Physics.TickRate != 60 {
		t.Errorf("TickRate = %v, want 60", cfg.Physics.TickRate)
	}
	if cfg.Physics.GridCellSize != 200 {
		t.Errorf("GridCellSize = %v, want 200", cfg.Physics.GridCellSize)
	}
	if cfg.Population.Initial != 100 {
		t.Errorf("Initial = %d, want clamped to Max 100", cfg.Population.Initial)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")

	cfg := Default()
	cfg.Name = "roundtrip"
	cfg.Walls = []WallConfig{{X1: 0, Y1: 0, X2: 100, Y2: 0, Thickness: 4, Type: WallSolid}}
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if back.Name != "roundtrip" {
		t.Errorf("Name = %q, want roundtrip", back.Name)
	}
	if len(back.Walls) != 1 || back.Walls[0].Type != WallSolid {
		t.Errorf("Walls = %+v, want the single solid wall", back.Walls)
	}
}
