package trial

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/petrilab/petri/config"
)

// Output collects batch artifacts in one directory: a CSV summary row
// per trial, the full JSON result set, and the scenario that produced
// them.
type Output struct {
	dir         string
	summaryFile *os.File

	// Track if headers have been written
	summaryHeaderWritten bool
}

// SummaryRow is the flat per-trial record written to summary.csv.
type SummaryRow struct {
	Trial           string  `csv:"trial"`
	Scenario        string  `csv:"scenario"`
	Species         string  `csv:"species"`
	Seed            int64   `csv:"seed"`
	Ticks           int32   `csv:"ticks"`
	FinalPopulation int     `csv:"final_population"`
	Clustering      float64 `csv:"clustering"`
	Movement        float64 `csv:"movement"`
	Diversity       float64 `csv:"diversity"`
	StateChanges    int     `csv:"state_changes"`
	Stability       float64 `csv:"stability"`
	Complexity      float64 `csv:"complexity"`
}

func summaryRow(r Result) SummaryRow {
	return SummaryRow{
		Trial:           r.ID,
		Scenario:        r.Scenario,
		Species:         r.Species,
		Seed:            r.Seed,
		Ticks:           r.Ticks,
		FinalPopulation: r.FinalPopulation,
		Clustering:      r.Metrics.Clustering,
		Movement:        r.Metrics.Movement,
		Diversity:       r.Metrics.Diversity,
		StateChanges:    r.Metrics.StateChanges,
		Stability:       r.Metrics.Stability,
		Complexity:      r.Metrics.Complexity,
	}
}

// NewOutput creates an output collector rooted at dir.
// Returns nil if dir is empty (output disabled).
func NewOutput(dir string) (*Output, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating summary.csv: %w", err)
	}

	return &Output{dir: dir, summaryFile: f}, nil
}

// WriteSummary appends one trial's summary row to summary.csv.
func (o *Output) WriteSummary(r Result) error {
	if o == nil {
		return nil
	}

	records := []SummaryRow{summaryRow(r)}

	if !o.summaryHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, o.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		o.summaryHeaderWritten = true
	} else {
		// Subsequent writes skip headers
		if err := gocsv.MarshalWithoutHeaders(records, o.summaryFile); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	return nil
}

// WriteResults saves the full result set as results.json.
func (o *Output) WriteResults(results []Result) error {
	if o == nil {
		return nil
	}
	return Save(filepath.Join(o.dir, "results.json"), results)
}

// WriteConfig snapshots the scenario that produced the results.
func (o *Output) WriteConfig(cfg *config.Config) error {
	if o == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(o.dir, "scenario.yaml"))
}

// Dir returns the output directory path.
func (o *Output) Dir() string {
	if o == nil {
		return ""
	}
	return o.dir
}

// Close flushes and closes the summary file.
func (o *Output) Close() error {
	if o == nil || o.summaryFile == nil {
		return nil
	}
	return o.summaryFile.Close()
}
