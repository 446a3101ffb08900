package pose

// Transform is a decomposed local placement. Angles are in degrees.
type Transform struct {
	X, Y           float64
	Rotation       float64
	ScaleX, ScaleY float64
	ShearX, ShearY float64
}

// IdentityTransform returns a transform with unit scale and nothing else.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// BoneData is the immutable template of a bone, shared by every skeleton
// built from the same SkeletonData.
type BoneData struct {
	Index  int
	Name   string
	Parent *BoneData // nil for a root bone
	Setup  Transform
	Length float64
}

// IkConstraintData is the immutable template of an IK constraint.
type IkConstraintData struct {
	Name  string
	Order int

	// Bones lists one or two constrained bones, parent first.
	Bones  []*BoneData
	Target *BoneData

	Mix           float64
	BendDirection int // +1 or -1
	Compress      bool
	Stretch       bool
	Uniform       bool
}

// SkeletonData is the loaded, validated description of a skeleton. Bones
// are ordered so that every parent precedes its children.
type SkeletonData struct {
	Name          string
	Bones         []*BoneData
	IkConstraints []*IkConstraintData
}

// FindBone returns the bone template with the given name, or nil.
func (d *SkeletonData) FindBone(name string) *BoneData {
	for _, b := range d.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// FindIkConstraint returns the IK template with the given name, or nil.
func (d *SkeletonData) FindIkConstraint(name string) *IkConstraintData {
	for _, c := range d.IkConstraints {
		if c.Name == name {
			return c
		}
	}
	return nil
}
