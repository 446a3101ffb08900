package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/skelpose/internal/pose"
)

// Validation error codes (E200-E299)
const (
	// Skeleton errors (E201-E209)
	ErrSkeletonNameEmpty = "E201" // skeleton name is required
	ErrNoBones           = "E202" // at least one bone required
	ErrBoneNameEmpty     = "E203" // bone name is required
	ErrDuplicateBone     = "E204" // bone names must be unique
	ErrUnknownParent     = "E205" // parent is not a bone of this skeleton
	ErrParentOrder       = "E206" // parent must come before its children
	ErrNegativeLength    = "E207" // bone length must be >= 0

	// IK errors (E210-E219)
	ErrIkNameEmpty       = "E210" // constraint name is required
	ErrDuplicateIk       = "E211" // constraint names must be unique
	ErrIkBoneCount       = "E212" // one or two bones required
	ErrIkUnknownBone     = "E213" // constrained bone not in skeleton
	ErrIkNotChild        = "E214" // second bone must be a direct child of the first
	ErrIkUnknownTarget   = "E215" // target not in skeleton
	ErrIkMixRange        = "E216" // mix must be within [0, 1]
	ErrIkBendDirection   = "E217" // bend direction must be +1 or -1
	ErrDuplicateIkOrder  = "E218" // constraint orders must be unique
	ErrIkTargetIsChained = "E219" // target cannot be one of the constrained bones
)

// ValidationError represents a skeleton validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled skeleton against the rules pose.NewSkeleton
// relies on. Returns all errors found (does not fail-fast).
func Validate(data *pose.SkeletonData) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(data.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "skeleton name is required and must be non-empty",
			Code:    ErrSkeletonNameEmpty,
		})
	}
	if len(data.Bones) == 0 {
		errs = append(errs, ValidationError{
			Field:   "bones",
			Message: "at least one bone is required",
			Code:    ErrNoBones,
		})
	}

	// position of each bone template in the list
	index := make(map[*pose.BoneData]int, len(data.Bones))
	for i, b := range data.Bones {
		index[b] = i
	}

	names := make(map[string]bool, len(data.Bones))
	for i, b := range data.Bones {
		field := fmt.Sprintf("bones[%d]", i)
		if strings.TrimSpace(b.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "bone name is required",
				Code:    ErrBoneNameEmpty,
			})
		} else if names[b.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate bone name: %q", b.Name),
				Code:    ErrDuplicateBone,
			})
		}
		names[b.Name] = true

		if b.Length < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".length",
				Message: fmt.Sprintf("bone %q has negative length %v", b.Name, b.Length),
				Code:    ErrNegativeLength,
			})
		}

		if b.Parent == nil {
			continue
		}
		// Requiring parents to come first also rules out cycles.
		p, ok := index[b.Parent]
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("parent %q of bone %q is not in this skeleton", b.Parent.Name, b.Name),
				Code:    ErrUnknownParent,
			})
		case p >= i:
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("parent %q must come before bone %q", b.Parent.Name, b.Name),
				Code:    ErrParentOrder,
			})
		}
	}

	errs = append(errs, validateIk(data, index)...)
	return errs
}

func validateIk(data *pose.SkeletonData, index map[*pose.BoneData]int) []ValidationError {
	var errs []ValidationError
	names := make(map[string]bool, len(data.IkConstraints))
	orders := make(map[int]string, len(data.IkConstraints))

	for i, c := range data.IkConstraints {
		field := fmt.Sprintf("ik[%d]", i)

		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "constraint name is required",
				Code:    ErrIkNameEmpty,
			})
		} else if names[c.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate constraint name: %q", c.Name),
				Code:    ErrDuplicateIk,
			})
		}
		names[c.Name] = true

		if other, dup := orders[c.Order]; dup {
			errs = append(errs, ValidationError{
				Field:   field + ".order",
				Message: fmt.Sprintf("order %d is already used by %q", c.Order, other),
				Code:    ErrDuplicateIkOrder,
			})
		} else {
			orders[c.Order] = c.Name
		}

		if n := len(c.Bones); n < 1 || n > 2 {
			errs = append(errs, ValidationError{
				Field:   field + ".bones",
				Message: fmt.Sprintf("constraint %q needs 1 or 2 bones, got %d", c.Name, n),
				Code:    ErrIkBoneCount,
			})
		}
		known := true
		for j, b := range c.Bones {
			if _, ok := index[b]; b == nil || !ok {
				known = false
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.bones[%d]", field, j),
					Message: fmt.Sprintf("constraint %q references a bone outside the skeleton", c.Name),
					Code:    ErrIkUnknownBone,
				})
			}
		}
		if known && len(c.Bones) == 2 && c.Bones[1].Parent != c.Bones[0] {
			errs = append(errs, ValidationError{
				Field:   field + ".bones[1]",
				Message: fmt.Sprintf("bone %q is not a direct child of %q", c.Bones[1].Name, c.Bones[0].Name),
				Code:    ErrIkNotChild,
			})
		}

		if _, ok := index[c.Target]; c.Target == nil || !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".target",
				Message: fmt.Sprintf("constraint %q has no target bone in the skeleton", c.Name),
				Code:    ErrIkUnknownTarget,
			})
		} else {
			for _, b := range c.Bones {
				if b == c.Target {
					errs = append(errs, ValidationError{
						Field:   field + ".target",
						Message: fmt.Sprintf("target %q is also a constrained bone", c.Target.Name),
						Code:    ErrIkTargetIsChained,
					})
				}
			}
		}

		if c.Mix < 0 || c.Mix > 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".mix",
				Message: fmt.Sprintf("mix %v is outside [0, 1]", c.Mix),
				Code:    ErrIkMixRange,
			})
		}
		if c.BendDirection != 1 && c.BendDirection != -1 {
			errs = append(errs, ValidationError{
				Field:   field + ".bendDirection",
				Message: fmt.Sprintf("bend direction must be +1 or -1, got %d", c.BendDirection),
				Code:    ErrIkBendDirection,
			})
		}
	}
	return errs
}
