package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/skelpose/internal/pose"
)

// AssertionError is returned when an assertion fails. It carries the frame
// and bone so the message points at the offending pose.
type AssertionError struct {
	Type     string
	Frame    int
	Bone     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (frame %d, bone %q)\n", e.Type, e.Frame, e.Bone)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result's trace.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result.Trace, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(trace []TraceFrame, a Assertion) error {
	if len(trace) == 0 {
		return fmt.Errorf("no frames were evaluated")
	}
	frame := a.Frame
	if frame == 0 {
		frame = len(trace)
	}
	if frame < 1 || frame > len(trace) {
		return fmt.Errorf("frame %d outside 1..%d", frame, len(trace))
	}
	b, ok := trace[frame-1].Bone(a.Bone)
	if !ok {
		return fmt.Errorf("bone %q not in frame %d", a.Bone, frame)
	}

	tol := a.Tolerance
	if tol == 0 {
		tol = DefaultTolerance
	}
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Frame: frame, Bone: a.Bone, Expected: expected, Actual: actual}
	}

	switch a.Type {
	case AssertBoneWorld:
		if math.Hypot(b.X-a.X, b.Y-a.Y) > tol {
			return fail(point(a.X, a.Y, tol), point(b.X, b.Y, 0))
		}
	case AssertTipNear:
		if math.Hypot(b.TipX-a.X, b.TipY-a.Y) > tol {
			return fail(point(a.X, a.Y, tol), point(b.TipX, b.TipY, 0))
		}
	case AssertBoneRotation:
		// Compare on the circle so 180 and -180 agree.
		if math.Abs(pose.NormalizeDegrees(b.Rotation-a.Rotation)) > tol {
			return fail(fmt.Sprintf("rotation %g ± %g", a.Rotation, tol), fmt.Sprintf("rotation %g", b.Rotation))
		}
	case AssertBoneScale:
		if math.Abs(b.Scale-a.Scale) > tol {
			return fail(fmt.Sprintf("scale %g ± %g", a.Scale, tol), fmt.Sprintf("scale %g", b.Scale))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func point(x, y, tol float64) string {
	if tol > 0 {
		return fmt.Sprintf("(%g, %g) ± %g", x, y, tol)
	}
	return fmt.Sprintf("(%g, %g)", x, y)
}
