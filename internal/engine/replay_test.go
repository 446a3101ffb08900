package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelpose/internal/store"
)

// recordArm records a three-frame run of the arm and returns it.
func recordArm(t *testing.T) (store.Run, []store.Frame) {
	t.Helper()
	st := openStore(t)
	r := newTestRunner(t, WithSink(st))
	_, err := r.Run(t.Context(), []Frame{
		targetFrame(100, 100),
		{Constraints: map[string]ConstraintOverride{"reach": {BendDirection: ptr(-1)}}},
		{Locals: map[string]LocalOverride{"lower": {ScaleX: ptr(0.5)}}},
	})
	require.NoError(t, err)

	run, err := st.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	frames, err := st.ReadFrames(t.Context(), "run-1")
	require.NoError(t, err)
	return run, frames
}

func TestReplay_Reproduces(t *testing.T) {
	run, frames := recordArm(t)

	res, err := Replay(t.Context(), armData(), run, frames, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, "run-1", res.RunID)
}

func TestReplay_DetectsHashMismatch(t *testing.T) {
	run, frames := recordArm(t)
	frames[1].Hash = "0000"

	res, err := Replay(t.Context(), armData(), run, frames, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, int64(2), res.Mismatches[0].Seq)
	assert.Equal(t, "0000", res.Mismatches[0].Expected)
	assert.Len(t, res.Mismatches[0].Actual, 64)
}

func TestReplay_DetectsChangedDefinition(t *testing.T) {
	run, frames := recordArm(t)
	data := armData()
	data.Bones[1].Length = 80

	res, err := Replay(t.Context(), data, run, frames, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, res.DataChanged)
	assert.False(t, res.OK())
}

func TestReplay_BadInput(t *testing.T) {
	run, frames := recordArm(t)
	frames[0].Input = []byte("{not json")

	_, err := Replay(t.Context(), armData(), run, frames, WithLogger(quietLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 1")
}

func TestReplay_Empty(t *testing.T) {
	res, err := Replay(t.Context(), armData(), store.Run{ID: "empty"}, nil, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Zero(t, res.Frames)
}
