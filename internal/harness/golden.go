package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mirc/internal/ir"
)

// Snapshot returns the canonical JSON form of a scenario's output:
// {"mode": ..., "output": ..., "scenario": ...} with sorted keys.
func Snapshot(s *Scenario, result *Result) ([]byte, error) {
	// Round-trip through encoding/json so structs become the plain value
	// model MarshalCanonical accepts.
	data, err := json.Marshal(result.Output())
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}
	var output any
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("unmarshal output: %w", err)
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario": s.Name,
		"mode":     s.Mode,
		"output":   output,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
