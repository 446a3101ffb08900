package pose

import "math"

// Affine is a 2D affine transformation in column convention:
//
//	| A  B  X |
//	| C  D  Y |
//
// which maps a point as
//
//	x' = A*x + B*y + X
//	y' = C*x + D*y + Y
//
// The first column (A, C) is the bone's X axis in world space and the second
// column (B, D) its Y axis.
type Affine struct {
	A, B, C, D float64
	X, Y       float64
}

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// LocalAffine builds the matrix of a local transform: shear and scale form
// the axes, which are then rotated and translated by (X, Y).
func LocalAffine(t Transform) Affine {
	rotationY := t.Rotation + 90 + t.ShearY
	return Affine{
		A: cosDeg(t.Rotation+t.ShearX) * t.ScaleX,
		B: cosDeg(rotationY) * t.ScaleY,
		C: sinDeg(t.Rotation+t.ShearX) * t.ScaleX,
		D: sinDeg(rotationY) * t.ScaleY,
		X: t.X,
		Y: t.Y,
	}
}

// Multiply returns m * other, the transform that applies other first.
func (m Affine) Multiply(other Affine) Affine {
	return Affine{
		A: m.A*other.A + m.B*other.C,
		B: m.A*other.B + m.B*other.D,
		C: m.C*other.A + m.D*other.C,
		D: m.C*other.B + m.D*other.D,
		X: m.A*other.X + m.B*other.Y + m.X,
		Y: m.C*other.X + m.D*other.Y + m.Y,
	}
}

// Det returns the determinant of the linear part.
func (m Affine) Det() float64 {
	return m.A*m.D - m.B*m.C
}

// Singular reports whether the linear part cannot be inverted.
func (m Affine) Singular() bool {
	return math.Abs(m.Det()) < singularEpsilon
}

// TransformPoint maps a point from local to world space.
func (m Affine) TransformPoint(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.X, m.C*x + m.D*y + m.Y
}

// InverseTransformPoint maps a world point into the local space of m.
// ok is false when m is singular, in which case the point is returned as is.
func (m Affine) InverseTransformPoint(x, y float64) (lx, ly float64, ok bool) {
	det := m.Det()
	if math.Abs(det) < singularEpsilon {
		return x, y, false
	}
	inv := 1 / det
	x -= m.X
	y -= m.Y
	return (x*m.D - y*m.B) * inv, (y*m.A - x*m.C) * inv, true
}

// Invert returns the inverse matrix.
// Returns the identity matrix if m is not invertible.
func (m Affine) Invert() Affine {
	det := m.Det()
	if math.Abs(det) < singularEpsilon {
		return Identity()
	}
	inv := 1 / det
	return Affine{
		A: m.D * inv,
		B: -m.B * inv,
		C: -m.C * inv,
		D: m.A * inv,
		X: (m.B*m.Y - m.D*m.X) * inv,
		Y: (m.C*m.X - m.A*m.Y) * inv,
	}
}

// ApproxEqual reports whether every component of m and other differs by at
// most tolerance.
func (m Affine) ApproxEqual(other Affine, tolerance float64) bool {
	return math.Abs(m.A-other.A) <= tolerance &&
		math.Abs(m.B-other.B) <= tolerance &&
		math.Abs(m.C-other.C) <= tolerance &&
		math.Abs(m.D-other.D) <= tolerance &&
		math.Abs(m.X-other.X) <= tolerance &&
		math.Abs(m.Y-other.Y) <= tolerance
}
