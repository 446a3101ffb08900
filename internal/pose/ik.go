package pose

import (
	"fmt"
	"log/slog"
	"math"
)

// IkConfig holds the per-instance settings of an IK constraint. It starts as
// a copy of the template and is only reset by SetToSetupPose.
type IkConfig struct {
	Mix           float64
	BendDirection int
	Compress      bool
	Stretch       bool
}

// IkConstraint rotates one or two bones so the tip of the chain reaches a
// target bone's world position.
type IkConstraint struct {
	Data *IkConstraintData
	IkConfig

	skeleton *Skeleton
	bones    []int
	target   int
}

var _ Constraint = (*IkConstraint)(nil)

// NewIkConstraint resolves data's bone and target names against skel.
func NewIkConstraint(data *IkConstraintData, skel *Skeleton) (*IkConstraint, error) {
	if data == nil {
		return nil, &Error{Code: ErrCodeNilData, Message: "ik constraint data cannot be nil"}
	}
	if skel == nil {
		return nil, &Error{Code: ErrCodeNilSkeleton, Message: "skeleton cannot be nil", Constraint: data.Name}
	}
	if n := len(data.Bones); n < 1 || n > 2 {
		return nil, &Error{
			Code:       ErrCodeBadBoneCount,
			Message:    fmt.Sprintf("ik constraint needs 1 or 2 bones, got %d", n),
			Constraint: data.Name,
		}
	}

	c := &IkConstraint{
		Data:     data,
		IkConfig: configFromData(data),
		skeleton: skel,
		bones:    make([]int, 0, len(data.Bones)),
	}
	for _, bd := range data.Bones {
		if bd == nil {
			return nil, &Error{Code: ErrCodeUnknownBone, Message: "nil bone reference", Constraint: data.Name}
		}
		i := skel.FindBoneIndex(bd.Name)
		if i < 0 {
			return nil, &Error{Code: ErrCodeUnknownBone, Message: "bone not found", Constraint: data.Name, Bone: bd.Name}
		}
		c.bones = append(c.bones, i)
	}
	if data.Target == nil {
		return nil, &Error{Code: ErrCodeUnknownTarget, Message: "nil target reference", Constraint: data.Name}
	}
	c.target = skel.FindBoneIndex(data.Target.Name)
	if c.target < 0 {
		return nil, &Error{Code: ErrCodeUnknownTarget, Message: "target bone not found", Constraint: data.Name, Bone: data.Target.Name}
	}
	if len(c.bones) == 2 && skel.bones[c.bones[1]].Parent != c.bones[0] {
		return nil, &Error{
			Code:       ErrCodeNotAChild,
			Message:    fmt.Sprintf("bone is not a direct child of %q", data.Bones[0].Name),
			Constraint: data.Name,
			Bone:       data.Bones[1].Name,
		}
	}
	return c, nil
}

func configFromData(data *IkConstraintData) IkConfig {
	bend := data.BendDirection
	if bend == 0 {
		bend = 1
	}
	return IkConfig{
		Mix:           data.Mix,
		BendDirection: bend,
		Compress:      data.Compress,
		Stretch:       data.Stretch,
	}
}

// Name returns the template name.
func (c *IkConstraint) Name() string { return c.Data.Name }

// Order returns the declared evaluation order.
func (c *IkConstraint) Order() int { return c.Data.Order }

// Inputs returns the target bone index.
func (c *IkConstraint) Inputs() []int { return []int{c.target} }

// Constrained returns the constrained bone indices, parent first.
func (c *IkConstraint) Constrained() []int { return c.bones }

// Target returns the target bone.
func (c *IkConstraint) Target() *Bone { return &c.skeleton.bones[c.target] }

// IsActive reports whether the constraint has any effect: the mix is
// positive.
func (c *IkConstraint) IsActive() bool { return c.Mix > 0 }

// SetToSetupPose restores the runtime settings from the template.
func (c *IkConstraint) SetToSetupPose() {
	c.IkConfig = configFromData(c.Data)
}

// Apply solves the chain toward the target's current world position.
func (c *IkConstraint) Apply() {
	target := &c.skeleton.bones[c.target]
	tx, ty := target.World.X, target.World.Y
	switch len(c.bones) {
	case 1:
		c.skeleton.ApplyOne(c.bones[0], tx, ty, c.Compress, c.Stretch, c.Data.Uniform, c.Mix)
	case 2:
		c.skeleton.ApplyTwo(c.bones[0], c.bones[1], tx, ty, c.BendDirection, c.Stretch, c.Mix)
	}
}

// ApplyOne rotates bone so its X axis points at the world position
// (targetX, targetY), blended by alpha. With compress or stretch the bone's
// X scale also changes so its tip reaches the target; uniform scales Y with
// it.
func (s *Skeleton) ApplyOne(bone int, targetX, targetY float64, compress, stretch, uniform bool, alpha float64) {
	s.ensureApplied(bone)
	b := &s.bones[bone]
	a := b.Applied

	tx, ty, ok := s.parentWorld(bone).InverseTransformPoint(targetX, targetY)
	if !ok {
		Logger().Debug("ik: singular parent, skipping solve", slog.String("bone", b.Data.Name))
		s.ComposeWorldWith(bone, a)
		return
	}
	tx -= a.X
	ty -= a.Y

	rotationIK := math.Atan2(ty, tx)*radDeg - a.ShearX - a.Rotation
	if a.ScaleX < 0 {
		rotationIK += 180
	}
	rotationIK = NormalizeDegrees(rotationIK)

	sx, sy := a.ScaleX, a.ScaleY
	if compress || stretch {
		length := b.Data.Length * sx
		if length > minLength {
			dd := math.Hypot(tx, ty)
			if (compress && dd < length) || (stretch && dd > length) {
				scale := (dd/length-1)*alpha + 1
				sx *= scale
				if uniform {
					sy *= scale
				}
			}
		}
	}

	s.ComposeWorldWith(bone, Transform{
		X:        a.X,
		Y:        a.Y,
		Rotation: a.Rotation + rotationIK*alpha,
		ScaleX:   sx,
		ScaleY:   sy,
		ShearX:   a.ShearX,
		ShearY:   a.ShearY,
	})
}

// ApplyTwo rotates parent and child so the child's tip reaches the world
// position (targetX, targetY) as closely as possible. child must be a direct
// child of parent. bendDir (+1 or -1) picks which side of the
// parent-to-target line the joint bends toward. With stretch the parent's X
// scale grows when the target is beyond the chain's reach.
func (s *Skeleton) ApplyTwo(parent, child int, targetX, targetY float64, bendDir int, stretch bool, alpha float64) {
	if alpha == 0 {
		s.ComposeWorld(child)
		return
	}
	s.ensureApplied(parent)
	s.ensureApplied(child)
	pb, cb := &s.bones[parent], &s.bones[child]
	pa, ca := pb.Applied, cb.Applied
	bend := float64(bendDir)
	if bend == 0 {
		bend = 1
	}

	// Solve with positive scales and mirror the angles back afterwards.
	px, py := pa.X, pa.Y
	psx, psy, csx := pa.ScaleX, pa.ScaleY, ca.ScaleX
	sx := psx
	var os1, os2, s2 float64
	if psx < 0 {
		psx = -psx
		os1 = 180
		s2 = -1
	} else {
		os1 = 0
		s2 = 1
	}
	if psy < 0 {
		psy = -psy
		s2 = -s2
	}
	if csx < 0 {
		csx = -csx
		os2 = 180
	} else {
		os2 = 0
	}

	// Child origin in world space. With non-uniform parent scale the child's
	// Y offset cannot be kept, so it is dropped.
	pw := pb.World
	cx := ca.X
	var cy, cwx, cwy float64
	uniform := math.Abs(psx-psy) <= minLength
	if !uniform {
		cy = 0
		cwx = pw.A*cx + pw.X
		cwy = pw.C*cx + pw.Y
	} else {
		cy = ca.Y
		cwx = pw.A*cx + pw.B*cy + pw.X
		cwy = pw.C*cx + pw.D*cy + pw.Y
	}

	pp := s.parentWorld(parent)
	tx, ty, ok := pp.InverseTransformPoint(targetX, targetY)
	if !ok {
		Logger().Debug("ik: singular grandparent, skipping solve",
			slog.String("parent", pb.Data.Name),
			slog.String("child", cb.Data.Name),
		)
		s.ComposeWorldWith(parent, pa)
		s.ComposeWorldWith(child, ca)
		return
	}
	tx -= px
	ty -= py
	dd := tx*tx + ty*ty

	dx, dy, _ := pp.InverseTransformPoint(cwx, cwy)
	dx -= px
	dy -= py
	l1 := math.Sqrt(dx*dx + dy*dy)
	l2 := cb.Data.Length * csx

	var a1, a2 float64
	if uniform {
		l2 *= psx
		cos := 1.0
		if denom := 2 * l1 * l2; denom != 0 {
			cos = (dd - l1*l1 - l2*l2) / denom
		} else {
			Logger().Debug("ik: zero-length segment",
				slog.String("parent", pb.Data.Name),
				slog.Float64("l1", l1),
				slog.Float64("l2", l2),
			)
		}
		if cos < -1 {
			cos = -1
		} else if cos > 1 {
			cos = 1
			if stretch && l1+l2 > minLength {
				sx *= (math.Sqrt(dd)/(l1+l2)-1)*alpha + 1
			}
		}
		a2 = math.Acos(cos) * bend
		a := l1 + l2*cos
		b := l2 * math.Sin(a2)
		a1 = math.Atan2(ty*a-tx*b, tx*a+ty*b)
	} else {
		a1, a2 = solveEllipse(l1, l2, psx, psy, tx, ty, dd, bend)
	}

	offset := math.Atan2(cy, cx) * s2

	rotation := pa.Rotation
	a1 = NormalizeDegrees((a1-offset)*radDeg + os1 - rotation)
	s.ComposeWorldWith(parent, Transform{
		X:        px,
		Y:        py,
		Rotation: rotation + a1*alpha,
		ScaleX:   sx,
		ScaleY:   pa.ScaleY,
	})

	rotation = ca.Rotation
	a2 = NormalizeDegrees(((a2+offset)*radDeg-ca.ShearX)*s2 + os2 - rotation)
	s.ComposeWorldWith(child, Transform{
		X:        cx,
		Y:        cy,
		Rotation: rotation + a2*alpha,
		ScaleX:   ca.ScaleX,
		ScaleY:   ca.ScaleY,
		ShearX:   ca.ShearX,
		ShearY:   ca.ShearY,
	})
}

// solveEllipse handles a parent with non-uniform scale. The child's tip
// then moves on an ellipse with semi-axes (psx*l2, psy*l2) centered l1 along
// the parent's X axis. It returns the parent and child angles in radians.
//
// An exact intersection with the circle of radius sqrt(dd) around the parent
// origin is found from the quadratic
//
//	(bb-aa)x² - 2*bb*l1*x + bb*l1² + aa*dd - aa*bb = 0
//
// using the root of smaller magnitude. Without a usable root the nearest or
// farthest point of the ellipse is used, whichever distance dd is closer to.
func solveEllipse(l1, l2, psx, psy, tx, ty, dd, bend float64) (a1, a2 float64) {
	a := psx * l2
	b := psy * l2
	aa, bb := a*a, b*b
	ta := math.Atan2(ty, tx)

	c := bb*l1*l1 + aa*dd - aa*bb
	c1 := -2 * bb * l1
	c2 := bb - aa
	if d := c1*c1 - 4*c2*c; d >= 0 && c2 != 0 {
		q := math.Sqrt(d)
		if c1 < 0 {
			q = -q
		}
		q = -(c1 + q) / 2
		r := q / c2
		if q != 0 {
			if r1 := c / q; math.Abs(r1) < math.Abs(r) {
				r = r1
			}
		}
		if r*r <= dd {
			y := math.Sqrt(dd-r*r) * bend
			return ta - math.Atan2(y, r), math.Atan2(y/psy, (r-l1)/psx)
		}
	}

	minAngle, minX, minY := math.Pi, l1-a, 0.0
	minDist := minX * minX
	maxAngle, maxX, maxY := 0.0, l1+a, 0.0
	maxDist := maxX * maxX
	if aa != bb {
		if c = -a * l1 / (aa - bb); c >= -1 && c <= 1 {
			angle := math.Acos(c)
			x := a*math.Cos(angle) + l1
			y := b * math.Sin(angle)
			d := x*x + y*y
			if d < minDist {
				minAngle, minDist, minX, minY = angle, d, x, y
			}
			if d > maxDist {
				maxAngle, maxDist, maxX, maxY = angle, d, x, y
			}
		}
	}
	if dd <= (minDist+maxDist)/2 {
		return ta - math.Atan2(minY*bend, minX), minAngle * bend
	}
	return ta - math.Atan2(maxY*bend, maxX), maxAngle * bend
}
