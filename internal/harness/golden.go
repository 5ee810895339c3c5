package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/branchless/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// Run IDs are content hashes and are left out so golden files stay
// readable; seqs, masks and values pin the behavior.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunToken     string       `json:"run_token,omitempty"`
	Runs         []RunSummary `json:"runs"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles primitives, slices and maps.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	runs := make([]any, len(s.Runs))
	for i, r := range s.Runs {
		m := map[string]any{
			"program":    r.Program,
			"mode":       r.Mode,
			"body_count": r.BodyCount,
			"final":      r.Final,
		}
		if r.ErrorCode != "" {
			m["error_code"] = r.ErrorCode
		} else {
			m["seq"] = r.Seq
			m["outcome"] = r.Outcome
		}
		runs[i] = m
	}

	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = map[string]any{
			"program":   ev.Program,
			"seq":       ev.Seq,
			"iteration": ev.Iteration,
			"mask":      ev.Mask,
			"outcome":   ev.Outcome,
			"value":     ev.Value,
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"runs":          runs,
		"trace":         trace,
	}
	if s.RunToken != "" {
		result["run_token"] = s.RunToken
	}
	return result
}

// Marshal renders the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		RunToken:     scenario.RunToken,
		Runs:         result.Runs,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Runs:         result.Runs,
		Trace:        result.Trace,
	}
	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
