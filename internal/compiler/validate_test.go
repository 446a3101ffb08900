package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/skelpose/internal/pose"
)

// validArm returns a skeleton that passes validation.
func validArm() *pose.SkeletonData {
	upper := &pose.BoneData{Index: 0, Name: "upper", Setup: pose.IdentityTransform(), Length: 100}
	lower := &pose.BoneData{Index: 1, Name: "lower", Parent: upper, Setup: pose.IdentityTransform(), Length: 100}
	goal := &pose.BoneData{Index: 2, Name: "goal", Setup: pose.IdentityTransform()}
	return &pose.SkeletonData{
		Name:  "arm",
		Bones: []*pose.BoneData{upper, lower, goal},
		IkConstraints: []*pose.IkConstraintData{{
			Name: "reach", Bones: []*pose.BoneData{upper, lower}, Target: goal, Mix: 1, BendDirection: 1,
		}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validArm()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *pose.SkeletonData)
		want   []string
	}{
		{"empty name", func(d *pose.SkeletonData) { d.Name = " " }, []string{ErrSkeletonNameEmpty}},
		{"no bones", func(d *pose.SkeletonData) { d.Bones = nil; d.IkConstraints = nil }, []string{ErrNoBones}},
		{"empty bone name", func(d *pose.SkeletonData) { d.Bones[2].Name = "" }, []string{ErrBoneNameEmpty}},
		{"duplicate bone", func(d *pose.SkeletonData) { d.Bones[2].Name = "upper" }, []string{ErrDuplicateBone}},
		{"negative length", func(d *pose.SkeletonData) { d.Bones[0].Length = -1 }, []string{ErrNegativeLength}},
		{
			"unknown parent",
			func(d *pose.SkeletonData) { d.Bones[2].Parent = &pose.BoneData{Name: "ghost"} },
			[]string{ErrUnknownParent},
		},
		{
			"parent after child",
			func(d *pose.SkeletonData) { d.Bones[0].Parent = d.Bones[2] },
			[]string{ErrParentOrder},
		},
		{
			"cycle",
			func(d *pose.SkeletonData) { d.Bones[0].Parent = d.Bones[1] },
			[]string{ErrParentOrder},
		},
		{"empty ik name", func(d *pose.SkeletonData) { d.IkConstraints[0].Name = "" }, []string{ErrIkNameEmpty}},
		{
			"three bones",
			func(d *pose.SkeletonData) { d.IkConstraints[0].Bones = append(d.IkConstraints[0].Bones, d.Bones[2]) },
			[]string{ErrIkBoneCount, ErrIkTargetIsChained},
		},
		{
			"no bones in ik",
			func(d *pose.SkeletonData) { d.IkConstraints[0].Bones = nil },
			[]string{ErrIkBoneCount},
		},
		{
			"foreign ik bone",
			func(d *pose.SkeletonData) { d.IkConstraints[0].Bones[1] = &pose.BoneData{Name: "ghost"} },
			[]string{ErrIkUnknownBone},
		},
		{
			"not a child",
			func(d *pose.SkeletonData) {
				d.IkConstraints[0].Bones[1] = d.Bones[2]
				d.IkConstraints[0].Target = d.Bones[1]
			},
			[]string{ErrIkNotChild},
		},
		{"nil target", func(d *pose.SkeletonData) { d.IkConstraints[0].Target = nil }, []string{ErrIkUnknownTarget}},
		{
			"target in chain",
			func(d *pose.SkeletonData) { d.IkConstraints[0].Target = d.Bones[1] },
			[]string{ErrIkTargetIsChained},
		},
		{"mix above one", func(d *pose.SkeletonData) { d.IkConstraints[0].Mix = 1.5 }, []string{ErrIkMixRange}},
		{"mix negative", func(d *pose.SkeletonData) { d.IkConstraints[0].Mix = -0.1 }, []string{ErrIkMixRange}},
		{"bend zero", func(d *pose.SkeletonData) { d.IkConstraints[0].BendDirection = 0 }, []string{ErrIkBendDirection}},
		{
			"duplicate ik",
			func(d *pose.SkeletonData) {
				dup := *d.IkConstraints[0]
				dup.Order = 1
				d.IkConstraints = append(d.IkConstraints, &dup)
			},
			[]string{ErrDuplicateIk},
		},
		{
			"duplicate order",
			func(d *pose.SkeletonData) {
				other := *d.IkConstraints[0]
				other.Name = "reach2"
				d.IkConstraints = append(d.IkConstraints, &other)
			},
			[]string{ErrDuplicateIkOrder},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validArm()
			tt.mutate(d)
			assert.Equal(t, tt.want, codes(Validate(d)))
		})
	}
}

func TestValidateCollectsAll(t *testing.T) {
	d := validArm()
	d.Name = ""
	d.IkConstraints[0].Mix = 2
	d.IkConstraints[0].BendDirection = 3

	errs := Validate(d)
	assert.Equal(t, []string{ErrSkeletonNameEmpty, ErrIkMixRange, ErrIkBendDirection}, codes(errs))
	assert.Equal(t, "ik[0].mix", errs[1].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "bones[0].name", Message: "bone name is required", Code: ErrBoneNameEmpty}
	assert.Equal(t, "[E203] bones[0].name: bone name is required", e.Error())

	e.Line = 4
	assert.Equal(t, "[E203] line 4: bones[0].name: bone name is required", e.Error())
}

func TestValidatedSkeletonsBuild(t *testing.T) {
	d := validArm()
	assert.Empty(t, Validate(d))
	_, err := pose.NewSkeleton(d)
	assert.NoError(t, err)
}
