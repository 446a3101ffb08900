package pose

import (
	"errors"
	"fmt"
)

// Error reports a skeleton or constraint that could not be built.
//
// Construction errors are fatal for the object being built: NewSkeleton and
// NewIkConstraint return nil alongside them. Numeric degeneracies during
// evaluation are never reported as errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Constraint names the constraint being built, if any.
	Constraint string

	// Bone names the offending bone reference, if any.
	Bone string
}

// ErrorCode categorizes construction errors.
type ErrorCode string

const (
	ErrCodeNilData             ErrorCode = "NIL_DATA"
	ErrCodeNilSkeleton         ErrorCode = "NIL_SKELETON"
	ErrCodeUnknownBone         ErrorCode = "UNKNOWN_BONE"
	ErrCodeUnknownTarget       ErrorCode = "UNKNOWN_TARGET"
	ErrCodeBadBoneCount        ErrorCode = "BAD_BONE_COUNT"
	ErrCodeNotAChild           ErrorCode = "NOT_A_CHILD"
	ErrCodeBadParentOrder      ErrorCode = "BAD_PARENT_ORDER"
	ErrCodeDuplicateBone       ErrorCode = "DUPLICATE_BONE"
	ErrCodeDuplicateOrder      ErrorCode = "DUPLICATE_ORDER"
	ErrCodeDuplicateConstraint ErrorCode = "DUPLICATE_CONSTRAINT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Constraint != "" && e.Bone != "":
		return fmt.Sprintf("%s: %s (constraint=%s, bone=%s)", e.Code, e.Message, e.Constraint, e.Bone)
	case e.Constraint != "":
		return fmt.Sprintf("%s: %s (constraint=%s)", e.Code, e.Message, e.Constraint)
	case e.Bone != "":
		return fmt.Sprintf("%s: %s (bone=%s)", e.Code, e.Message, e.Bone)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConstructionError reports whether err is, or wraps, a pose construction
// error.
func IsConstructionError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// ErrorCodeOf returns the code of a wrapped construction error, or "" when
// err is not one.
func ErrorCodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
