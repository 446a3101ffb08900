package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an input problem detected while stepping a frame. The
// frame is rejected as a whole: nothing is applied and the clock does not
// advance.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Name is the bone or constraint the input referred to.
	Name string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownBone indicates a local or target input names no bone.
	ErrCodeUnknownBone RuntimeErrorCode = "UNKNOWN_BONE"

	// ErrCodeUnknownConstraint indicates an override names no IK constraint.
	ErrCodeUnknownConstraint RuntimeErrorCode = "UNKNOWN_CONSTRAINT"

	// ErrCodeInvalidFrame indicates an input value is out of range.
	ErrCodeInvalidFrame RuntimeErrorCode = "INVALID_FRAME"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	return msg
}

// IsUnknownNameError reports whether err is an unknown bone or constraint
// error.
func IsUnknownNameError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnknownBone || re.Code == ErrCodeUnknownConstraint
	}
	return false
}

// IsInvalidFrameError reports whether err is an out-of-range input error.
func IsInvalidFrameError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidFrame
	}
	return false
}
