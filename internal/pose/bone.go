package pose

import (
	"log/slog"
	"math"
)

// Bone is one node of a skeleton instance. Bones live in the skeleton's
// arena and refer to each other by index.
type Bone struct {
	Data *BoneData

	// Index is the bone's position in the skeleton arena.
	Index int

	// Parent is the arena index of the parent bone, or -1 for a root.
	Parent int

	// Children holds the arena indices of direct children in data order.
	Children []int

	// Local is the pose input for the next UpdateWorldTransform.
	Local Transform

	// Applied is the local transform World was composed from. It is only
	// meaningful while AppliedValid reports true.
	Applied Transform

	// World is the composed world transform.
	World Affine

	appliedValid bool
	sorted       bool
}

// Name returns the bone's template name.
func (b *Bone) Name() string { return b.Data.Name }

// AppliedValid reports whether Applied matches World.
func (b *Bone) AppliedValid() bool { return b.appliedValid }

// SetToSetupPose copies the template's setup transform into Local.
func (b *Bone) SetToSetupPose() {
	b.Local = b.Data.Setup
}

// WorldRotationX returns the world rotation of the bone's X axis in degrees.
func (b *Bone) WorldRotationX() float64 {
	return math.Atan2(b.World.C, b.World.A) * radDeg
}

// WorldRotationY returns the world rotation of the bone's Y axis in degrees.
func (b *Bone) WorldRotationY() float64 {
	return math.Atan2(b.World.D, b.World.B) * radDeg
}

// WorldScaleX returns the length of the bone's world X axis.
func (b *Bone) WorldScaleX() float64 {
	return math.Hypot(b.World.A, b.World.C)
}

// WorldScaleY returns the length of the bone's world Y axis.
func (b *Bone) WorldScaleY() float64 {
	return math.Hypot(b.World.B, b.World.D)
}

// WorldToLocal maps a world point into the bone's own coordinate system.
// A degenerate bone returns the point relative to its world origin.
func (b *Bone) WorldToLocal(x, y float64) (float64, float64) {
	lx, ly, ok := b.World.InverseTransformPoint(x, y)
	if !ok {
		return x - b.World.X, y - b.World.Y
	}
	return lx, ly
}

// LocalToWorld maps a point in the bone's coordinate system to world space.
func (b *Bone) LocalToWorld(x, y float64) (float64, float64) {
	return b.World.TransformPoint(x, y)
}

// Tip returns the world position of the bone's end point.
func (b *Bone) Tip() (float64, float64) {
	return b.World.TransformPoint(b.Data.Length, 0)
}

// parentWorld returns the world matrix bone i composes against. Root bones
// compose against the skeleton placement.
func (s *Skeleton) parentWorld(i int) Affine {
	if p := s.bones[i].Parent; p >= 0 {
		return s.bones[p].World
	}
	return s.rootAffine()
}

// ComposeWorld composes bone i's world transform from its Local pose.
func (s *Skeleton) ComposeWorld(i int) {
	s.ComposeWorldWith(i, s.bones[i].Local)
}

// ComposeWorldWith composes bone i's world transform from t and records t as
// the applied transform. The parent's world transform must be current.
func (s *Skeleton) ComposeWorldWith(i int, t Transform) {
	b := &s.bones[i]
	b.Applied = t
	b.appliedValid = true
	b.World = s.parentWorld(i).Multiply(LocalAffine(t))
}

// SetWorld overwrites bone i's world transform without touching Applied,
// which becomes stale until UpdateAppliedTransform runs.
func (s *Skeleton) SetWorld(i int, m Affine) {
	b := &s.bones[i]
	b.World = m
	b.appliedValid = false
}

// UpdateAppliedTransform recomputes bone i's Applied transform from its
// world matrix and its parent's. The result has no X shear; a mirrored
// matrix decomposes to a negative ScaleY. A singular parent leaves Applied
// unchanged.
func (s *Skeleton) UpdateAppliedTransform(i int) {
	b := &s.bones[i]
	b.appliedValid = true

	p := s.parentWorld(i)
	det := p.Det()
	if math.Abs(det) < singularEpsilon {
		Logger().Debug("singular parent, keeping applied transform",
			slog.String("bone", b.Data.Name),
			slog.Float64("det", det),
		)
		return
	}

	pid := 1 / det
	dx, dy := b.World.X-p.X, b.World.Y-p.Y
	a := &b.Applied
	a.X = (dx*p.D - dy*p.B) * pid
	a.Y = (dy*p.A - dx*p.C) * pid

	// Local linear part: inverse(parent) * world.
	ia, ib, ic, id := pid*p.D, pid*p.B, pid*p.C, pid*p.A
	w := b.World
	ra := ia*w.A - ib*w.C
	rb := ia*w.B - ib*w.D
	rc := id*w.C - ic*w.A
	rd := id*w.D - ic*w.B

	a.ShearX = 0
	a.ScaleX = math.Hypot(ra, rc)
	if a.ScaleX > minLength {
		ldet := ra*rd - rb*rc
		a.ScaleY = math.Hypot(rb, rd)
		if ldet < 0 {
			a.ScaleY = -a.ScaleY
		}
		// For col1 = sx*(cos r, sin r) and col2 = sy*(-sin(r+sh), cos(r+sh)):
		// det = sx*sy*cos(sh) and dot = -sx*sy*sin(sh).
		sign := 1.0
		if a.ScaleY < 0 {
			sign = -1
		}
		a.ShearY = math.Atan2(-(ra*rb+rc*rd)*sign, ldet*sign) * radDeg
		a.Rotation = math.Atan2(rc, ra) * radDeg
		return
	}
	a.ScaleX = 0
	a.ScaleY = math.Hypot(rb, rd)
	a.ShearY = 0
	a.Rotation = math.Atan2(rd, rb)*radDeg - 90
}

// ensureApplied decomposes bone i's world matrix if Applied is stale.
func (s *Skeleton) ensureApplied(i int) {
	if !s.bones[i].appliedValid {
		s.UpdateAppliedTransform(i)
	}
}
