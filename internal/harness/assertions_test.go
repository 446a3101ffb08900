package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceFrame {
	return []TraceFrame{
		{Seq: 1, Bones: []TraceBone{
			{Name: "upper", X: 0, Y: 0, Rotation: 180, Scale: 1, TipX: -100, TipY: 0},
		}},
		{Seq: 2, Bones: []TraceBone{
			{Name: "upper", X: 5, Y: 5, Rotation: 90, Scale: 2, TipX: 5, TipY: 205},
		}},
	}
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"world pass", Assertion{Type: AssertBoneWorld, Bone: "upper", X: 5, Y: 5.0005}, ""},
		{"world fail", Assertion{Type: AssertBoneWorld, Bone: "upper", X: 6, Y: 5}, "Expected: (6, 5) ± 0.001"},
		{"world custom tolerance", Assertion{Type: AssertBoneWorld, Bone: "upper", X: 6, Y: 5, Tolerance: 1.5}, ""},
		{"tip pass", Assertion{Type: AssertTipNear, Bone: "upper", X: 5, Y: 205}, ""},
		{"tip fail", Assertion{Type: AssertTipNear, Frame: 1, Bone: "upper", X: 100, Y: 0}, "Actual: (-100, 0)"},
		{"rotation pass", Assertion{Type: AssertBoneRotation, Bone: "upper", Rotation: 90}, ""},
		{"rotation wraps", Assertion{Type: AssertBoneRotation, Frame: 1, Bone: "upper", Rotation: -180}, ""},
		{"rotation fail", Assertion{Type: AssertBoneRotation, Bone: "upper", Rotation: 45}, "rotation 90"},
		{"scale pass", Assertion{Type: AssertBoneScale, Bone: "upper", Scale: 2}, ""},
		{"scale fail", Assertion{Type: AssertBoneScale, Frame: 1, Bone: "upper", Scale: 2}, "scale 1"},
		{"unknown bone", Assertion{Type: AssertBoneWorld, Bone: "hand"}, `bone "hand" not in frame 2`},
		{"frame out of range", Assertion{Type: AssertBoneWorld, Frame: 3, Bone: "upper"}, "frame 3 outside 1..2"},
		{"unknown type", Assertion{Type: "bone_color", Bone: "upper"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{Trace: sampleTrace()}
			errs := EvaluateAssertions(result, []Assertion{tt.a})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
			assert.Contains(t, errs[0], "assertion[0]")
		})
	}
}

func TestEvaluateAssertions_EmptyTrace(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertBoneWorld, Bone: "upper"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "no frames")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: AssertTipNear, Frame: 2, Bone: "hand", Expected: "(1, 2) ± 0.1", Actual: "(3, 4)"}
	assert.Equal(t, "Assertion failed: tip_near (frame 2, bone \"hand\")\n  Expected: (1, 2) ± 0.1\n  Actual: (3, 4)", err.Error())
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
