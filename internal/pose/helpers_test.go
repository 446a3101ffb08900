package pose

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const tol = 1e-4

// armData builds a two-bone arm: "upper" at the origin, "lower" 100 units
// along it, both 100 long, and a free root bone "goal" used as IK target.
func armData() *SkeletonData {
	upper := &BoneData{Index: 0, Name: "upper", Setup: IdentityTransform(), Length: 100}
	lowerSetup := IdentityTransform()
	lowerSetup.X = 100
	lower := &BoneData{Index: 1, Name: "lower", Parent: upper, Setup: lowerSetup, Length: 100}
	goal := &BoneData{Index: 2, Name: "goal", Setup: IdentityTransform()}
	return &SkeletonData{
		Name:  "arm",
		Bones: []*BoneData{upper, lower, goal},
		IkConstraints: []*IkConstraintData{{
			Name:          "reach",
			Order:         0,
			Bones:         []*BoneData{upper, lower},
			Target:        goal,
			Mix:           1,
			BendDirection: 1,
		}},
	}
}

// newArm builds the arm skeleton and moves the goal to (tx, ty).
func newArm(t *testing.T, tx, ty float64) *Skeleton {
	t.Helper()
	s, err := NewSkeleton(armData())
	require.NoError(t, err)
	moveGoal(s, tx, ty)
	return s
}

func moveGoal(s *Skeleton, tx, ty float64) {
	g := s.FindBone("goal")
	g.Local.X, g.Local.Y = tx, ty
	s.UpdateWorldTransform()
}

func tipOf(s *Skeleton, name string) (float64, float64) {
	return s.FindBone(name).Tip()
}

// composedFrom reports the matrix a bone's world transform should equal
// when composed from its applied transform.
func composedFrom(s *Skeleton, i int) Affine {
	return s.parentWorld(i).Multiply(LocalAffine(s.bones[i].Applied))
}
