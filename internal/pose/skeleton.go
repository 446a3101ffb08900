package pose

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
)

// Skeleton is one posable instance of a SkeletonData.
//
// INVARIANTS:
//   - bones[i].Parent < i for every non-root bone
//   - constraints are sorted by Order and orders are unique
//   - after UpdateWorldTransform, every bone's World equals its parent's
//     World times LocalAffine(Applied)
type Skeleton struct {
	Data *SkeletonData

	// X, Y, ScaleX and ScaleY place the whole skeleton. Root bones compose
	// against this placement. Negative scales flip the skeleton.
	X, Y           float64
	ScaleX, ScaleY float64

	bones       []Bone
	byName      map[string]int
	constraints []Constraint

	cache      []updateStep
	cacheReset []int
}

// updateStep is one entry of the flattened evaluation order: either a bone
// to compose from its Local pose or a constraint to apply.
type updateStep struct {
	bone       int
	constraint Constraint
}

// Option configures a Skeleton at construction.
type Option func(*Skeleton)

// WithPosition places the skeleton origin.
func WithPosition(x, y float64) Option {
	return func(s *Skeleton) {
		s.X, s.Y = x, y
	}
}

// WithScale scales the skeleton. Negative values flip it.
func WithScale(sx, sy float64) Option {
	return func(s *Skeleton) {
		s.ScaleX, s.ScaleY = sx, sy
	}
}

// NewSkeleton instantiates data: one Bone per BoneData, one constraint per
// constraint template, and the update cache. Bones start in the setup pose
// and world transforms are composed once before returning.
func NewSkeleton(data *SkeletonData, opts ...Option) (*Skeleton, error) {
	if data == nil {
		return nil, &Error{Code: ErrCodeNilData, Message: "skeleton data cannot be nil"}
	}

	s := &Skeleton{
		Data:   data,
		ScaleX: 1,
		ScaleY: 1,
		bones:  make([]Bone, len(data.Bones)),
		byName: make(map[string]int, len(data.Bones)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i, bd := range data.Bones {
		if bd == nil {
			return nil, &Error{Code: ErrCodeNilData, Message: fmt.Sprintf("bone data %d is nil", i)}
		}
		if _, dup := s.byName[bd.Name]; dup {
			return nil, &Error{Code: ErrCodeDuplicateBone, Message: "bone name is not unique", Bone: bd.Name}
		}
		parent := -1
		if bd.Parent != nil {
			p, ok := s.byName[bd.Parent.Name]
			if !ok {
				return nil, &Error{
					Code:    ErrCodeBadParentOrder,
					Message: fmt.Sprintf("parent %q must precede its children", bd.Parent.Name),
					Bone:    bd.Name,
				}
			}
			parent = p
			s.bones[p].Children = append(s.bones[p].Children, i)
		}
		s.bones[i] = Bone{
			Data:   bd,
			Index:  i,
			Parent: parent,
			Local:  bd.Setup,
		}
		s.byName[bd.Name] = i
	}

	names := make(map[string]bool, len(data.IkConstraints))
	for _, cd := range data.IkConstraints {
		c, err := NewIkConstraint(cd, s)
		if err != nil {
			return nil, fmt.Errorf("skeleton %q: %w", data.Name, err)
		}
		if names[cd.Name] {
			return nil, &Error{Code: ErrCodeDuplicateConstraint, Message: "constraint name is not unique", Constraint: cd.Name}
		}
		names[cd.Name] = true
		s.constraints = append(s.constraints, c)
	}

	if err := s.UpdateCache(); err != nil {
		return nil, fmt.Errorf("skeleton %q: %w", data.Name, err)
	}
	s.UpdateWorldTransform()

	Logger().Info("skeleton created",
		slog.String("skeleton", data.Name),
		slog.Int("bones", len(s.bones)),
		slog.Int("constraints", len(s.constraints)),
	)
	return s, nil
}

// AddConstraint registers a constraint built outside the package and
// rebuilds the update cache.
func (s *Skeleton) AddConstraint(c Constraint) error {
	for _, existing := range s.constraints {
		if existing.Name() == c.Name() {
			return &Error{Code: ErrCodeDuplicateConstraint, Message: "constraint name is not unique", Constraint: c.Name()}
		}
	}
	s.constraints = append(s.constraints, c)
	if err := s.UpdateCache(); err != nil {
		s.constraints = slices.DeleteFunc(s.constraints, func(x Constraint) bool { return x == c })
		// The remaining constraints built a valid cache before c was added.
		if rerr := s.UpdateCache(); rerr != nil {
			return errors.Join(err, fmt.Errorf("restore update cache: %w", rerr))
		}
		return err
	}
	return nil
}

// UpdateCache rebuilds the flattened evaluation order. It must be called
// after constraints are added. Constraints are sorted by Order; two
// constraints with the same order are an error.
//
// For each constraint, its input bones and its first constrained bone are
// placed (with their ancestors) before it. The descendants of the first
// constrained bone are placed again after it, since the constraint changes
// their parent. The remaining constrained bones are composed by the
// constraint itself.
func (s *Skeleton) UpdateCache() error {
	sort.SliceStable(s.constraints, func(i, j int) bool {
		return s.constraints[i].Order() < s.constraints[j].Order()
	})
	for i := 1; i < len(s.constraints); i++ {
		if s.constraints[i].Order() == s.constraints[i-1].Order() {
			return &Error{
				Code:       ErrCodeDuplicateOrder,
				Message:    fmt.Sprintf("order %d is used by %q and %q", s.constraints[i].Order(), s.constraints[i-1].Name(), s.constraints[i].Name()),
				Constraint: s.constraints[i].Name(),
			}
		}
	}

	s.cache = s.cache[:0]
	s.cacheReset = s.cacheReset[:0]
	for i := range s.bones {
		s.bones[i].sorted = false
	}

	for _, c := range s.constraints {
		for _, in := range c.Inputs() {
			s.sortBone(in)
		}
		constrained := c.Constrained()
		if len(constrained) == 0 {
			s.cache = append(s.cache, updateStep{bone: -1, constraint: c})
			continue
		}
		s.sortBone(constrained[0])
		for _, b := range constrained[1:] {
			if !s.inCache(b) {
				s.cacheReset = append(s.cacheReset, b)
			}
		}
		s.cache = append(s.cache, updateStep{bone: -1, constraint: c})
		s.sortReset(s.bones[constrained[0]].Children)
		for _, b := range constrained[1:] {
			s.bones[b].sorted = true
		}
	}
	for i := range s.bones {
		s.sortBone(i)
	}
	return nil
}

func (s *Skeleton) sortBone(i int) {
	b := &s.bones[i]
	if b.sorted {
		return
	}
	if b.Parent >= 0 {
		s.sortBone(b.Parent)
	}
	s.cache = append(s.cache, updateStep{bone: i})
	b.sorted = true
}

func (s *Skeleton) sortReset(bones []int) {
	for _, i := range bones {
		b := &s.bones[i]
		if b.sorted {
			s.sortReset(b.Children)
		}
		b.sorted = false
	}
}

func (s *Skeleton) inCache(bone int) bool {
	for _, step := range s.cache {
		if step.constraint == nil && step.bone == bone {
			return true
		}
	}
	return false
}

// UpdateWorldTransform evaluates the pose: every bone is composed from its
// Local transform in parent-before-child order and constraints run in
// ascending order, with bones below a constrained bone recomposed after it.
func (s *Skeleton) UpdateWorldTransform() {
	for _, i := range s.cacheReset {
		b := &s.bones[i]
		b.Applied = b.Local
		b.appliedValid = true
	}
	for _, step := range s.cache {
		if step.constraint == nil {
			s.ComposeWorld(step.bone)
			continue
		}
		if step.constraint.IsActive() {
			step.constraint.Apply()
			continue
		}
		// An inactive constraint still owns the composition of its
		// constrained bones below the first.
		constrained := step.constraint.Constrained()
		for j := 1; j < len(constrained); j++ {
			s.ComposeWorld(constrained[j])
		}
	}
}

// UpdateOrder describes the update cache, one entry per step, as
// "bone:<name>" or "constraint:<name>".
func (s *Skeleton) UpdateOrder() []string {
	order := make([]string, 0, len(s.cache))
	for _, step := range s.cache {
		if step.constraint != nil {
			order = append(order, "constraint:"+step.constraint.Name())
		} else {
			order = append(order, "bone:"+s.bones[step.bone].Data.Name)
		}
	}
	return order
}

// SetToSetupPose resets bones and constraints to their templates.
func (s *Skeleton) SetToSetupPose() {
	s.SetBonesToSetupPose()
	s.SetConstraintsToSetupPose()
}

// SetBonesToSetupPose copies every bone's setup transform into Local.
func (s *Skeleton) SetBonesToSetupPose() {
	for i := range s.bones {
		s.bones[i].SetToSetupPose()
	}
}

// SetConstraintsToSetupPose restores constraint settings from templates.
func (s *Skeleton) SetConstraintsToSetupPose() {
	for _, c := range s.constraints {
		if r, ok := c.(interface{ SetToSetupPose() }); ok {
			r.SetToSetupPose()
		}
	}
}

func (s *Skeleton) rootAffine() Affine {
	return Affine{A: s.ScaleX, D: s.ScaleY, X: s.X, Y: s.Y}
}

// Bones returns the bone arena. Callers may modify Local fields; indices
// are stable for the skeleton's lifetime.
func (s *Skeleton) Bones() []Bone { return s.bones }

// Bone returns the bone at index i.
func (s *Skeleton) Bone(i int) *Bone { return &s.bones[i] }

// Constraints returns the constraints in evaluation order.
func (s *Skeleton) Constraints() []Constraint { return s.constraints }

// FindBoneIndex returns the arena index of the named bone, or -1.
func (s *Skeleton) FindBoneIndex(name string) int {
	if i, ok := s.byName[name]; ok {
		return i
	}
	return -1
}

// FindBone returns the named bone, or nil.
func (s *Skeleton) FindBone(name string) *Bone {
	if i, ok := s.byName[name]; ok {
		return &s.bones[i]
	}
	return nil
}

// FindConstraint returns the named constraint, or nil.
func (s *Skeleton) FindConstraint(name string) Constraint {
	for _, c := range s.constraints {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// FindIkConstraint returns the named IK constraint, or nil.
func (s *Skeleton) FindIkConstraint(name string) *IkConstraint {
	ik, _ := s.FindConstraint(name).(*IkConstraint)
	return ik
}
