package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/skelpose/internal/compiler"
	"github.com/roach88/skelpose/internal/engine"
)

// FrameFlags are the pose inputs shared by eval and render.
type FrameFlags struct {
	Targets   []string // bone=x,y
	Rotations []string // bone=degrees
	Mixes     []string // constraint=mix
	Bends     []string // constraint=1|-1
}

func (ff *FrameFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&ff.Targets, "target", nil, "move a bone: bone=x,y (repeatable)")
	cmd.Flags().StringArrayVar(&ff.Rotations, "rotate", nil, "set a bone's local rotation: bone=degrees (repeatable)")
	cmd.Flags().StringArrayVar(&ff.Mixes, "mix", nil, "set an IK mix: constraint=0..1 (repeatable)")
	cmd.Flags().StringArrayVar(&ff.Bends, "bend", nil, "set an IK bend direction: constraint=1|-1 (repeatable)")
}

// Frame converts the flags into one engine frame.
func (ff *FrameFlags) Frame() (engine.Frame, error) {
	var f engine.Frame

	for _, s := range ff.Targets {
		name, value, err := splitAssign("target", s)
		if err != nil {
			return f, err
		}
		xs, ys, ok := strings.Cut(value, ",")
		if !ok {
			return f, fmt.Errorf("--target %q: want bone=x,y", s)
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err := errors.Join(errX, errY); err != nil {
			return f, fmt.Errorf("--target %q: %w", s, err)
		}
		if f.Targets == nil {
			f.Targets = map[string]engine.Point{}
		}
		f.Targets[name] = engine.Point{X: x, Y: y}
	}

	for _, s := range ff.Rotations {
		name, value, err := splitAssign("rotate", s)
		if err != nil {
			return f, err
		}
		deg, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return f, fmt.Errorf("--rotate %q: %w", s, err)
		}
		if f.Locals == nil {
			f.Locals = map[string]engine.LocalOverride{}
		}
		f.Locals[name] = engine.LocalOverride{Rotation: &deg}
	}

	override := func(name string) engine.ConstraintOverride {
		if f.Constraints == nil {
			f.Constraints = map[string]engine.ConstraintOverride{}
		}
		return f.Constraints[name]
	}
	for _, s := range ff.Mixes {
		name, value, err := splitAssign("mix", s)
		if err != nil {
			return f, err
		}
		mix, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return f, fmt.Errorf("--mix %q: %w", s, err)
		}
		o := override(name)
		o.Mix = &mix
		f.Constraints[name] = o
	}
	for _, s := range ff.Bends {
		name, value, err := splitAssign("bend", s)
		if err != nil {
			return f, err
		}
		bend, err := strconv.Atoi(value)
		if err != nil {
			return f, fmt.Errorf("--bend %q: %w", s, err)
		}
		o := override(name)
		o.BendDirection = &bend
		f.Constraints[name] = o
	}
	return f, nil
}

func splitAssign(flag, s string) (string, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return "", "", fmt.Errorf("--%s %q: want name=value", flag, s)
	}
	return name, value, nil
}

// loadDefinition loads dir and returns the named skeleton. When name is
// empty and dir holds exactly one skeleton, that one is returned.
func loadDefinition(dir, name string) (*compiler.Definition, error) {
	loaded, errs := compiler.LoadDir(dir, compiler.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError, "failed to load skeletons", errs[0])
	}
	if name == "" {
		if len(loaded.Skeletons) == 1 {
			return loaded.Skeletons[0], nil
		}
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("--skeleton is required: %s defines %v", dir, loaded.Names()))
	}
	def := loaded.Find(name)
	if def == nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("skeleton %q not found in %s (have %v)", name, dir, loaded.Names()))
	}
	return def, nil
}
