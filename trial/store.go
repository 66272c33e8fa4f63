package trial

import (
	"encoding/json"
	"fmt"
	"os"
)

// Save writes a result set to path as pretty-printed JSON.
func Save(path string, results []Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// Load reads a result set written by Save.
func Load(path string) ([]Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var results []Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}

// Import appends the records from path that parse cleanly to existing
// and returns the merged set together with the per-record failures.
// External data never aborts the merge: a broken record (or an
// unreadable file) is reported, and every record that parses is kept.
func Import(path string, existing []Result) ([]Result, []error) {
	merged := append([]Result(nil), existing...)

	data, err := os.ReadFile(path)
	if err != nil {
		return merged, []error{fmt.Errorf("read results: %w", err)}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return merged, []error{fmt.Errorf("parse results: %w", err)}
	}

	var errs []error
	for i, msg := range raw {
		var r Result
		if err := json.Unmarshal(msg, &r); err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		merged = append(merged, r)
	}
	return merged, errs
}
