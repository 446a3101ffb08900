package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/roach88/skelpose/internal/pose"
)

// Frame is the input of one evaluation step. Inputs persist: a bone's local
// pose or a constraint setting keeps its value until a later frame changes
// it or Setup resets it.
type Frame struct {
	// Setup resets every bone and constraint to the setup pose before the
	// other inputs apply.
	Setup bool `json:"setup,omitempty" yaml:"setup,omitempty"`

	// Locals overrides fields of bones' local transforms.
	Locals map[string]LocalOverride `json:"locals,omitempty" yaml:"locals,omitempty"`

	// Targets moves bones, usually IK targets, by setting their local X and Y.
	Targets map[string]Point `json:"targets,omitempty" yaml:"targets,omitempty"`

	// Constraints overrides IK constraint settings.
	Constraints map[string]ConstraintOverride `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Point is a position in the parent bone's space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// LocalOverride sets the non-nil fields of a bone's local transform.
type LocalOverride struct {
	X        *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y        *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Rotation *float64 `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	ScaleX   *float64 `json:"scaleX,omitempty" yaml:"scaleX,omitempty"`
	ScaleY   *float64 `json:"scaleY,omitempty" yaml:"scaleY,omitempty"`
	ShearX   *float64 `json:"shearX,omitempty" yaml:"shearX,omitempty"`
	ShearY   *float64 `json:"shearY,omitempty" yaml:"shearY,omitempty"`
}

// ConstraintOverride sets the non-nil runtime settings of an IK constraint.
type ConstraintOverride struct {
	Mix           *float64 `json:"mix,omitempty" yaml:"mix,omitempty"`
	BendDirection *int     `json:"bend,omitempty" yaml:"bend,omitempty"`
	Compress      *bool    `json:"compress,omitempty" yaml:"compress,omitempty"`
	Stretch       *bool    `json:"stretch,omitempty" yaml:"stretch,omitempty"`
}

// Apply writes the set fields into t.
func (o LocalOverride) Apply(t *pose.Transform) {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&t.X, o.X)
	set(&t.Y, o.Y)
	set(&t.Rotation, o.Rotation)
	set(&t.ScaleX, o.ScaleX)
	set(&t.ScaleY, o.ScaleY)
	set(&t.ShearX, o.ShearX)
	set(&t.ShearY, o.ShearY)
}

func (o LocalOverride) values() []*float64 {
	return []*float64{o.X, o.Y, o.Rotation, o.ScaleX, o.ScaleY, o.ShearX, o.ShearY}
}

// Apply writes the set fields into cfg.
func (o ConstraintOverride) Apply(cfg *pose.IkConfig) {
	if o.Mix != nil {
		cfg.Mix = *o.Mix
	}
	if o.BendDirection != nil {
		cfg.BendDirection = *o.BendDirection
	}
	if o.Compress != nil {
		cfg.Compress = *o.Compress
	}
	if o.Stretch != nil {
		cfg.Stretch = *o.Stretch
	}
}

// MarshalFrame encodes f as JSON. Map keys are sorted, so equal frames
// encode to equal bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}
	return data, nil
}

// UnmarshalFrame decodes a frame recorded with MarshalFrame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("unmarshal frame: %w", err)
	}
	return f, nil
}

// resolvedFrame is a Frame with every name resolved against a skeleton.
type resolvedFrame struct {
	setup       bool
	locals      []resolvedLocal
	targets     []resolvedTarget
	constraints []resolvedConstraint
}

type resolvedLocal struct {
	bone int
	o    LocalOverride
}

type resolvedTarget struct {
	bone int
	p    Point
}

type resolvedConstraint struct {
	ik *pose.IkConstraint
	o  ConstraintOverride
}

// resolve checks every name and value in f. Names are visited in sorted
// order so the reported error does not depend on map iteration.
func resolve(f Frame, s *pose.Skeleton) (resolvedFrame, error) {
	rf := resolvedFrame{setup: f.Setup}

	for _, name := range sortedKeys(f.Locals) {
		i := s.FindBoneIndex(name)
		if i < 0 {
			return rf, &RuntimeError{Code: ErrCodeUnknownBone, Message: "local override for unknown bone", Name: name}
		}
		o := f.Locals[name]
		for _, v := range o.values() {
			if v != nil && !finite(*v) {
				return rf, &RuntimeError{Code: ErrCodeInvalidFrame, Message: "local transform must be finite", Name: name}
			}
		}
		rf.locals = append(rf.locals, resolvedLocal{bone: i, o: o})
	}

	for _, name := range sortedKeys(f.Targets) {
		i := s.FindBoneIndex(name)
		if i < 0 {
			return rf, &RuntimeError{Code: ErrCodeUnknownBone, Message: "target position for unknown bone", Name: name}
		}
		p := f.Targets[name]
		if !finite(p.X) || !finite(p.Y) {
			return rf, &RuntimeError{Code: ErrCodeInvalidFrame, Message: "target position must be finite", Name: name}
		}
		rf.targets = append(rf.targets, resolvedTarget{bone: i, p: p})
	}

	for _, name := range sortedKeys(f.Constraints) {
		ik := s.FindIkConstraint(name)
		if ik == nil {
			return rf, &RuntimeError{Code: ErrCodeUnknownConstraint, Message: "override for unknown ik constraint", Name: name}
		}
		o := f.Constraints[name]
		if o.Mix != nil && (!finite(*o.Mix) || *o.Mix < 0 || *o.Mix > 1) {
			return rf, &RuntimeError{Code: ErrCodeInvalidFrame, Message: fmt.Sprintf("mix %v outside [0, 1]", *o.Mix), Name: name}
		}
		if o.BendDirection != nil && *o.BendDirection != 1 && *o.BendDirection != -1 {
			return rf, &RuntimeError{Code: ErrCodeInvalidFrame, Message: fmt.Sprintf("bend direction %d is not 1 or -1", *o.BendDirection), Name: name}
		}
		rf.constraints = append(rf.constraints, resolvedConstraint{ik: ik, o: o})
	}
	return rf, nil
}

// apply writes the resolved inputs into s.
func (rf resolvedFrame) apply(s *pose.Skeleton) {
	if rf.setup {
		s.SetToSetupPose()
	}
	for _, l := range rf.locals {
		l.o.Apply(&s.Bone(l.bone).Local)
	}
	for _, t := range rf.targets {
		b := s.Bone(t.bone)
		b.Local.X, b.Local.Y = t.p.X, t.p.Y
	}
	for _, c := range rf.constraints {
		c.o.Apply(&c.ik.IkConfig)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
