package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/skelpose/internal/snapshot"
)

// TraceSnapshot is the golden form of a run: frame numbers and bone world
// poses. Hashes are left out so a change to the snapshot encoding does not
// churn every golden file; replay already checks them.
type TraceSnapshot struct {
	ScenarioName string
	RunID        string
	Trace        []TraceFrame
}

func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	frames := make([]any, len(s.Trace))
	for i, f := range s.Trace {
		bones := make([]any, len(f.Bones))
		for j, b := range f.Bones {
			bones[j] = map[string]any{
				"name":     b.Name,
				"x":        b.X,
				"y":        b.Y,
				"rotation": b.Rotation,
				"scale":    b.Scale,
			}
		}
		frames[i] = map[string]any{"seq": f.Seq, "bones": bones}
	}
	return map[string]any{
		"scenario": s.ScenarioName,
		"run_id":   s.RunID,
		"frames":   frames,
	}
}

// MarshalTrace renders the golden form of result as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	s := TraceSnapshot{ScenarioName: scenarioName, RunID: result.RunID, Trace: result.Trace}
	return snapshot.MarshalValue(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/<scenario.Name>.golden. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
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
