package snapshot

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/skelpose/internal/pose"
)

func armSkeleton(t *testing.T) *pose.Skeleton {
	t.Helper()
	upper := &pose.BoneData{Name: "upper", Setup: pose.IdentityTransform(), Length: 100}
	lowerSetup := pose.IdentityTransform()
	lowerSetup.X = 100
	lower := &pose.BoneData{Index: 1, Name: "lower", Parent: upper, Setup: lowerSetup, Length: 100}
	goalSetup := pose.IdentityTransform()
	goalSetup.Y = 150
	goal := &pose.BoneData{Index: 2, Name: "goal", Setup: goalSetup}
	s, err := pose.NewSkeleton(&pose.SkeletonData{
		Name:  "arm",
		Bones: []*pose.BoneData{upper, lower, goal},
		IkConstraints: []*pose.IkConstraintData{{
			Name: "reach", Bones: []*pose.BoneData{upper, lower}, Target: goal, Mix: 1, BendDirection: 1,
		}},
	})
	require.NoError(t, err)
	return s
}

func TestFromSkeleton(t *testing.T) {
	s := armSkeleton(t)
	snap := FromSkeleton("arm", 3, s)

	assert.Equal(t, "arm", snap.Skeleton)
	assert.Equal(t, int64(3), snap.Frame)
	require.Len(t, snap.Bones, 3)
	assert.Equal(t, []string{"upper", "lower", "goal"}, []string{snap.Bones[0].Name, snap.Bones[1].Name, snap.Bones[2].Name})

	lower, ok := snap.Bone("lower")
	require.True(t, ok)
	assert.InDelta(t, 66.1437827766, lower.World.X, 1e-6)
	assert.InDelta(t, 75, lower.World.Y, 1e-6)

	_, ok = snap.Bone("missing")
	assert.False(t, ok)
}

func TestFromSkeleton_RecoversStaleApplied(t *testing.T) {
	s := armSkeleton(t)
	s.SetWorld(2, pose.LocalAffine(pose.Transform{X: 5, Rotation: 30, ScaleX: 1, ScaleY: 1}))

	snap := FromSkeleton("arm", 0, s)
	assert.True(t, s.Bone(2).AppliedValid())
	assert.InDelta(t, 30, snap.Bones[2].Applied.Rotation, 1e-9)
	assert.InDelta(t, 5, snap.Bones[2].Applied.X, 1e-9)
}

func TestMarshalCanonical(t *testing.T) {
	snap := Snapshot{
		Skeleton: "arm",
		Frame:    1,
		Bones: []BoneSnapshot{{
			Name:    "root",
			World:   pose.Affine{A: 1, D: 1, X: 0.5, Y: -2},
			Applied: pose.Transform{X: 0.5, Y: -2, ScaleX: 1, ScaleY: 1},
		}},
	}

	out, err := MarshalCanonical(snap)
	require.NoError(t, err)
	assert.Equal(t,
		`{"bones":[{"applied":{"rotation":0,"scaleX":1,"scaleY":1,"shearX":0,"shearY":0,"x":0.5,"y":-2},`+
			`"name":"root","world":{"a":1,"b":0,"c":0,"d":1,"x":0.5,"y":-2}}],"frame":1,"skeleton":"arm"}`,
		string(out))
}

func TestMarshalFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{-1e-9, "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{1e-6, "0.000001"},
		{0.1234564, "0.123456"},
		{0.1234566, "0.123457"},
		{6.123233995736766e-17, "0"},
	}
	for _, tt := range tests {
		got, err := marshalFloat(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got), "marshalFloat(%v)", tt.in)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := marshalFloat(bad)
		assert.Error(t, err)
	}
}

func TestMarshalCanonical_RejectsNaN(t *testing.T) {
	snap := Snapshot{Skeleton: "bad", Bones: []BoneSnapshot{{Name: "b", World: pose.Affine{A: math.NaN()}}}}
	_, err := MarshalCanonical(snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `snapshot "bad"`)
}

func TestMarshalString(t *testing.T) {
	// Decomposed e + combining acute normalizes to the precomposed form.
	got, err := marshalString("cafe\u0301 <&>")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9 <&>\"", string(got))
}

func TestCompareUTF16(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, below U+E000.
	assert.Equal(t, -1, compareUTF16("\U00010000", "\uE000"))
	assert.Equal(t, 1, compareUTF16("b", "a"))
	assert.Equal(t, -1, compareUTF16("a", "ab"))
	assert.Equal(t, 0, compareUTF16("x", "x"))
}

func TestUnmarshal_RoundTrip(t *testing.T) {
	snap := FromSkeleton("arm", 7, armSkeleton(t))
	out, err := MarshalCanonical(snap)
	require.NoError(t, err)

	back, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, snap.Skeleton, back.Skeleton)
	assert.Equal(t, snap.Frame, back.Frame)
	require.Len(t, back.Bones, len(snap.Bones))
	for i := range snap.Bones {
		assert.True(t, snap.Bones[i].World.ApproxEqual(back.Bones[i].World, 1e-6), snap.Bones[i].Name)
	}

	again, err := MarshalCanonical(back)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))

	_, err = Unmarshal([]byte("{"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	a := FromSkeleton("arm", 1, armSkeleton(t))
	b := FromSkeleton("arm", 1, armSkeleton(t))

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	canonical, err := MarshalCanonical(a)
	require.NoError(t, err)
	assert.Equal(t, ha, HashCanonical(canonical))

	a.Frame = 2
	hc, err := Hash(a)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestHash_DomainSeparated(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainSnapshot, data), hashWithDomain(DomainSkeleton, data))
	assert.True(t, strings.HasPrefix(DomainSnapshot, "skelpose/"))
}

func TestDataHash(t *testing.T) {
	s := armSkeleton(t)
	h1, err := DataHash(s.Data)
	require.NoError(t, err)

	s.Data.Bones[1].Length = 90
	h2, err := DataHash(s.Data)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestMarshalValue(t *testing.T) {
	out, err := MarshalValue(map[string]any{
		"seq":   int64(3),
		"bones": []any{map[string]any{"y": -0.0, "x": 0.5, "ok": true}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"bones":[{"ok":true,"x":0.5,"y":0}],"seq":3}`, string(out))

	_, err = MarshalValue(map[string]any{"v": []string{"typed slices are not canonical"}})
	assert.Error(t, err)
}
