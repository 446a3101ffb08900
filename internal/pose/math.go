package pose

import "math"

const (
	degRad = math.Pi / 180
	radDeg = 180 / math.Pi

	// singularEpsilon is the determinant magnitude below which a 2x2 linear
	// part is treated as non-invertible.
	singularEpsilon = 1e-10

	// minLength is the smallest segment length the solvers divide by.
	minLength = 0.0001
)

func cosDeg(degrees float64) float64 { return math.Cos(degrees * degRad) }
func sinDeg(degrees float64) float64 { return math.Sin(degrees * degRad) }

// NormalizeDegrees wraps an angle in degrees into (-180, 180].
func NormalizeDegrees(degrees float64) float64 {
	degrees = math.Mod(degrees, 360)
	if degrees > 180 {
		degrees -= 360
	} else if degrees <= -180 {
		degrees += 360
	}
	return degrees
}
