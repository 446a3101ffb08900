package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelpose/internal/testutil"
)

const scenarioDir = "../../testdata/scenarios"

func loadRepoScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarios(t *testing.T) {
	entries, err := os.ReadDir(scenarioDir)
	require.NoError(t, err)

	var ran int
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		ran++
		t.Run(e.Name(), func(t *testing.T) {
			s, err := LoadScenario(filepath.Join(scenarioDir, e.Name()))
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(s.Frames))
		})
	}
	assert.Positive(t, ran, "no scenarios found")
}

func TestRunWithGolden_PointerAim(t *testing.T) {
	s := loadRepoScenario(t, "pointer_aim")

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "pointer-run", result.RunID)
}

func TestRun_Deterministic(t *testing.T) {
	s := loadRepoScenario(t, "arm_reach")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	require.Len(t, second.Trace, len(first.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i].Hash, second.Trace[i].Hash, "frame %d", i+1)
		assert.Equal(t, int64(i+1), first.Trace[i].Seq)
	}

	a, err := MarshalTrace(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalTrace(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_DefaultRunID(t *testing.T) {
	s := loadRepoScenario(t, "pointer_aim")
	s.RunID = ""

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, testutil.DefaultRunID, result.RunID)
}

func TestRun_FailingAssertion(t *testing.T) {
	s := loadRepoScenario(t, "pointer_aim")
	s.Assertions = []Assertion{{Type: AssertTipNear, Frame: 1, Bone: "needle", X: 100, Y: 50}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Actual: (150, 50)")
}

func TestRun_Errors(t *testing.T) {
	t.Run("unknown skeleton", func(t *testing.T) {
		s := loadRepoScenario(t, "pointer_aim")
		s.Skeleton = "tail"
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `skeleton "tail" not found`)
	})

	t.Run("rejected frame", func(t *testing.T) {
		s := loadRepoScenario(t, "pointer_aim")
		s.Frames[1].Targets["ghost"] = s.Frames[1].Targets["mark"]
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "frame 2")
		assert.Contains(t, err.Error(), "UNKNOWN_BONE")
	})

	t.Run("broken definitions", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.cue"), []byte(`skeleton: x: bones: [{name: 1}]`), 0o644))
		s := loadRepoScenario(t, "pointer_aim")
		s.Skeletons = dir
		_, err := Run(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load skeletons")
	})
}
