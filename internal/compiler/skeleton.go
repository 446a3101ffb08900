package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/skelpose/internal/pose"
)

// Definition is a compiled skeleton plus the placement it is instantiated
// with.
type Definition struct {
	Data *pose.SkeletonData

	X, Y           float64
	ScaleX, ScaleY float64
}

// Options returns the pose options that apply the definition's placement.
func (d *Definition) Options() []pose.Option {
	return []pose.Option{
		pose.WithPosition(d.X, d.Y),
		pose.WithScale(d.ScaleX, d.ScaleY),
	}
}

// NewSkeleton instantiates the definition. Extra options apply after the
// definition's placement.
func (d *Definition) NewSkeleton(opts ...pose.Option) (*pose.Skeleton, error) {
	return pose.NewSkeleton(d.Data, append(d.Options(), opts...)...)
}

// CompileSkeleton parses a CUE value into a Definition.
//
// The CUE value should be the skeleton struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`skeleton: arm: { bones: [...] }`)
//	def, err := CompileSkeleton(v.LookupPath(cue.ParsePath("skeleton.arm")))
//
// Bone parents and IK references are resolved by name. The result is not
// validated; see Validate.
func CompileSkeleton(v cue.Value) (*Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema, err := skeletonSchema(v.Context())
	if err != nil {
		return nil, err
	}
	u := schema.Unify(v)
	if err := u.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	data := &pose.SkeletonData{}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		sel := labels[len(labels)-1]
		if sel.LabelType() == cue.StringLabel {
			data.Name = sel.Unquoted()
		} else {
			data.Name = sel.String()
		}
	}

	def := &Definition{Data: data}
	for _, f := range []struct {
		path string
		dst  *float64
	}{
		{"x", &def.X},
		{"y", &def.Y},
		{"scaleX", &def.ScaleX},
		{"scaleY", &def.ScaleY},
	} {
		if *f.dst, err = floatField(u, f.path); err != nil {
			return nil, err
		}
	}

	if data.Bones, err = parseBones(u, v); err != nil {
		return nil, err
	}
	if data.IkConstraints, err = parseIk(u, v, data); err != nil {
		return nil, err
	}
	return def, nil
}

// parseBones reads the bone list from the unified value v. Parents are
// resolved after every bone is known, so a parent listed after its child
// still resolves and is reported by Validate instead. Positions come from
// src, the value as written.
func parseBones(v, src cue.Value) ([]*pose.BoneData, error) {
	iter, err := v.LookupPath(cue.ParsePath("bones")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var bones []*pose.BoneData
	var parents []string
	for i := 0; iter.Next(); i++ {
		bv := iter.Value()
		name, err := stringField(bv, "name")
		if err != nil {
			return nil, err
		}
		b := &pose.BoneData{Index: i, Name: name}
		t := &b.Setup
		for _, f := range []struct {
			path string
			dst  *float64
		}{
			{"x", &t.X},
			{"y", &t.Y},
			{"rotation", &t.Rotation},
			{"scaleX", &t.ScaleX},
			{"scaleY", &t.ScaleY},
			{"shearX", &t.ShearX},
			{"shearY", &t.ShearY},
			{"length", &b.Length},
		} {
			if *f.dst, err = floatField(bv, f.path); err != nil {
				return nil, err
			}
		}

		parent := ""
		if pv := bv.LookupPath(cue.ParsePath("parent")); pv.Exists() && pv.IsConcrete() {
			if parent, err = pv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
		bones = append(bones, b)
		parents = append(parents, parent)
	}

	byName := make(map[string]*pose.BoneData, len(bones))
	for _, b := range bones {
		if _, dup := byName[b.Name]; !dup {
			byName[b.Name] = b
		}
	}
	for i, parent := range parents {
		if parent == "" {
			continue
		}
		p, ok := byName[parent]
		if !ok {
			return nil, &CompileError{
				Field:   fmt.Sprintf("bones[%d].parent", i),
				Message: fmt.Sprintf("unknown parent bone %q", parent),
				Pos:     src.LookupPath(cue.MakePath(cue.Str("bones"), cue.Index(i), cue.Str("parent"))).Pos(),
			}
		}
		bones[i].Parent = p
	}
	return bones, nil
}

func parseIk(v, src cue.Value, data *pose.SkeletonData) ([]*pose.IkConstraintData, error) {
	iter, err := v.LookupPath(cue.ParsePath("ik")).List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var iks []*pose.IkConstraintData
	for i := 0; iter.Next(); i++ {
		cv := iter.Value()
		c := &pose.IkConstraintData{}
		if c.Name, err = stringField(cv, "name"); err != nil {
			return nil, err
		}
		order, err := intField(cv, "order")
		if err != nil {
			return nil, err
		}
		c.Order = int(order)
		if c.Mix, err = floatField(cv, "mix"); err != nil {
			return nil, err
		}
		bendPositive, err := boolField(cv, "bendPositive")
		if err != nil {
			return nil, err
		}
		c.BendDirection = -1
		if bendPositive {
			c.BendDirection = 1
		}
		if c.Compress, err = boolField(cv, "compress"); err != nil {
			return nil, err
		}
		if c.Stretch, err = boolField(cv, "stretch"); err != nil {
			return nil, err
		}
		if c.Uniform, err = boolField(cv, "uniform"); err != nil {
			return nil, err
		}

		bonesIter, err := cv.LookupPath(cue.ParsePath("bones")).List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for j := 0; bonesIter.Next(); j++ {
			name, err := bonesIter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			b := data.FindBone(name)
			if b == nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("ik[%d].bones[%d]", i, j),
					Message: fmt.Sprintf("unknown bone %q", name),
					Pos:     src.LookupPath(cue.MakePath(cue.Str("ik"), cue.Index(i), cue.Str("bones"), cue.Index(j))).Pos(),
				}
			}
			c.Bones = append(c.Bones, b)
		}

		target, err := stringField(cv, "target")
		if err != nil {
			return nil, err
		}
		if c.Target = data.FindBone(target); c.Target == nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("ik[%d].target", i),
				Message: fmt.Sprintf("unknown target bone %q", target),
				Pos:     src.LookupPath(cue.MakePath(cue.Str("ik"), cue.Index(i), cue.Str("target"))).Pos(),
			}
		}
		iks = append(iks, c)
	}
	return iks, nil
}

// lookup resolves path in v and applies its default, if any. A field
// without a concrete value after defaults is reported as missing.
func lookup(v cue.Value, path string) (cue.Value, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if f.Exists() {
		f, _ = f.Default()
	}
	if !f.Exists() || !f.IsConcrete() {
		return f, &CompileError{Field: path, Message: "field is required", Pos: v.Pos()}
	}
	return f, nil
}

func floatField(v cue.Value, path string) (float64, error) {
	f, err := lookup(v, path)
	if err != nil {
		return 0, err
	}
	x, err := f.Float64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return x, nil
}

func intField(v cue.Value, path string) (int64, error) {
	f, err := lookup(v, path)
	if err != nil {
		return 0, err
	}
	x, err := f.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return x, nil
}

func boolField(v cue.Value, path string) (bool, error) {
	f, err := lookup(v, path)
	if err != nil {
		return false, err
	}
	x, err := f.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return x, nil
}

func stringField(v cue.Value, path string) (string, error) {
	f, err := lookup(v, path)
	if err != nil {
		return "", err
	}
	x, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return x, nil
}

// CompileError reports a definition that could not be compiled, with the
// CUE source position when one is known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
