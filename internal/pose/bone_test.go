package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pairData is a root "parent" with a fixed pose and a child "child".
func pairData(parent, child Transform) *SkeletonData {
	p := &BoneData{Index: 0, Name: "parent", Setup: parent, Length: 10}
	c := &BoneData{Index: 1, Name: "child", Parent: p, Setup: child, Length: 10}
	return &SkeletonData{Name: "pair", Bones: []*BoneData{p, c}}
}

func TestBone_WorldComposition(t *testing.T) {
	s, err := NewSkeleton(pairData(
		Transform{X: 10, Y: 20, Rotation: 30, ScaleX: 2, ScaleY: 1.5},
		Transform{X: 5, Y: 6, Rotation: 40, ScaleX: 1.2, ScaleY: 0.8, ShearX: 10, ShearY: 25},
	), WithPosition(3, 4), WithScale(1, -1))
	require.NoError(t, err)

	for i := range s.Bones() {
		assert.True(t, s.Bone(i).World.ApproxEqual(composedFrom(s, i), 1e-12), "bone %d", i)
		assert.True(t, s.Bone(i).AppliedValid())
		assert.Equal(t, s.Bone(i).Local, s.Bone(i).Applied)
	}
}

func TestBone_RootUsesSkeletonPlacement(t *testing.T) {
	s, err := NewSkeleton(pairData(IdentityTransform(), IdentityTransform()), WithPosition(50, -20), WithScale(2, 3))
	require.NoError(t, err)

	root := s.FindBone("parent")
	assert.Equal(t, Affine{A: 2, D: 3, X: 50, Y: -20}, root.World)

	x, y := root.Tip()
	assert.InDelta(t, 70, x, 1e-9)
	assert.InDelta(t, -20, y, 1e-9)
}

func TestBone_WorldAccessors(t *testing.T) {
	s, err := NewSkeleton(pairData(Transform{Rotation: 30, ScaleX: 2, ScaleY: 3}, IdentityTransform()))
	require.NoError(t, err)

	b := s.FindBone("parent")
	assert.InDelta(t, 30, b.WorldRotationX(), 1e-9)
	assert.InDelta(t, 120, b.WorldRotationY(), 1e-9)
	assert.InDelta(t, 2, b.WorldScaleX(), 1e-9)
	assert.InDelta(t, 3, b.WorldScaleY(), 1e-9)

	wx, wy := b.LocalToWorld(4, -2)
	lx, ly := b.WorldToLocal(wx, wy)
	assert.InDelta(t, 4, lx, 1e-9)
	assert.InDelta(t, -2, ly, 1e-9)
}

func TestBone_WorldToLocal_Degenerate(t *testing.T) {
	s, err := NewSkeleton(pairData(Transform{X: 5, Y: 5, ScaleX: 0, ScaleY: 1}, IdentityTransform()))
	require.NoError(t, err)

	x, y := s.FindBone("parent").WorldToLocal(8, 9)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestBone_UpdateAppliedTransform_RoundTrip(t *testing.T) {
	parent := Transform{X: 10, Y: 20, Rotation: 30, ScaleX: 2, ScaleY: 1.5}
	tests := []struct {
		name string
		in   Transform
		want Transform
	}{
		{
			name: "plain",
			in:   Transform{X: 5, Y: 6, Rotation: 40, ScaleX: 1.2, ScaleY: 0.8},
			want: Transform{X: 5, Y: 6, Rotation: 40, ScaleX: 1.2, ScaleY: 0.8},
		},
		{
			name: "shear folds into rotation and shearY",
			in:   Transform{X: 5, Y: 6, Rotation: 40, ScaleX: 1.2, ScaleY: 0.8, ShearX: 10, ShearY: 25},
			want: Transform{X: 5, Y: 6, Rotation: 50, ScaleX: 1.2, ScaleY: 0.8, ShearY: 15},
		},
		{
			name: "negative scaleX becomes rotated negative scaleY",
			in:   Transform{X: 5, Y: 6, Rotation: 40, ScaleX: -1, ScaleY: 1},
			want: Transform{X: 5, Y: 6, Rotation: -140, ScaleX: 1, ScaleY: -1},
		},
		{
			name: "negative scaleY with shear",
			in:   Transform{X: 5, Y: 6, Rotation: -120, ScaleX: 1, ScaleY: -2, ShearY: 15},
			want: Transform{X: 5, Y: 6, Rotation: -120, ScaleX: 1, ScaleY: -2, ShearY: 15},
		},
		{
			name: "zero scaleX",
			in:   Transform{ScaleX: 0, ScaleY: 1},
			want: Transform{ScaleX: 0, ScaleY: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSkeleton(pairData(parent, tt.in))
			require.NoError(t, err)

			child := s.FindBoneIndex("child")
			world := s.Bone(child).World
			s.SetWorld(child, world)
			require.False(t, s.Bone(child).AppliedValid())

			s.UpdateAppliedTransform(child)
			got := s.Bone(child).Applied
			assert.True(t, s.Bone(child).AppliedValid())
			assertTransform(t, tt.want, got)

			// Recomposing the decomposition reproduces the matrix.
			assert.True(t, LocalAffine(got).ApproxEqual(LocalAffine(tt.in), 1e-9))
			assert.True(t, composedFrom(s, child).ApproxEqual(world, 1e-9))
		})
	}
}

func TestBone_UpdateAppliedTransform_SingularParent(t *testing.T) {
	s, err := NewSkeleton(pairData(
		Transform{ScaleX: 0, ScaleY: 0},
		Transform{X: 1, Rotation: 45, ScaleX: 1, ScaleY: 1},
	))
	require.NoError(t, err)

	child := s.FindBoneIndex("child")
	before := s.Bone(child).Applied
	s.SetWorld(child, Affine{A: 5, D: 5, X: 9, Y: 9})
	s.UpdateAppliedTransform(child)

	assert.Equal(t, before, s.Bone(child).Applied)
	assert.True(t, s.Bone(child).AppliedValid())
}

func TestBone_SetWorldInvalidatesApplied(t *testing.T) {
	s, err := NewSkeleton(pairData(IdentityTransform(), IdentityTransform()))
	require.NoError(t, err)

	m := LocalAffine(Transform{X: 3, Rotation: 90, ScaleX: 1, ScaleY: 1})
	s.SetWorld(1, m)
	assert.False(t, s.Bone(1).AppliedValid())
	assert.Equal(t, m, s.Bone(1).World)

	s.ensureApplied(1)
	assert.True(t, s.Bone(1).AppliedValid())
	assert.InDelta(t, 90, s.Bone(1).Applied.Rotation, 1e-9)
	assert.InDelta(t, 3, s.Bone(1).Applied.X, 1e-9)
}

func TestBone_SetToSetupPose(t *testing.T) {
	s, err := NewSkeleton(pairData(Transform{X: 1, ScaleX: 1, ScaleY: 1}, IdentityTransform()))
	require.NoError(t, err)

	b := s.FindBone("parent")
	b.Local.X = 99
	b.SetToSetupPose()
	assert.Equal(t, 1.0, b.Local.X)
}

func assertTransform(t *testing.T, want, got Transform) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "X")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "Y")
	assert.InDelta(t, want.Rotation, got.Rotation, 1e-9, "Rotation")
	assert.InDelta(t, want.ScaleX, got.ScaleX, 1e-9, "ScaleX")
	assert.InDelta(t, want.ScaleY, got.ScaleY, 1e-9, "ScaleY")
	assert.InDelta(t, want.ShearX, got.ShearX, 1e-9, "ShearX")
	assert.InDelta(t, want.ShearY, got.ShearY, 1e-9, "ShearY")
}
