package harness

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// TraceSnapshot is the golden-file form of a scenario trace.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(context.Background(), scenario, filepath.Join(t.TempDir(), "harness.db"))
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares an already-obtained result's trace against
// the named golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
