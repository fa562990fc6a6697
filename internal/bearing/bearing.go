// Package bearing implements compass arithmetic on the 360° circle used to turn
// the navigation camera and the puck.
package bearing

import "math"

// Normalize wraps a bearing into [0,360).
func Normalize(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// AngularDistance is the rotation needed to get from before to after turning in
// the given direction. The clockwise and counter-clockwise distances of a pair
// sum to 360, except for equal bearings where both are 0.
func AngularDistance(before, after float64, clockwise bool) float64 {
	if clockwise {
		return Normalize(after - before)
	}
	return Normalize(before - after)
}

// ShortestDirection reports whether turning clockwise is the shorter way from
// before to after. Antipodal bearings turn counter-clockwise.
func ShortestDirection(before, after float64) bool {
	return AngularDistance(before, after, true) < AngularDistance(before, after, false)
}

// Interpolate moves phase of the way from before to after in the given direction.
func Interpolate(before, after float64, clockwise bool, phase float64) float64 {
	d := AngularDistance(before, after, clockwise) * phase
	if clockwise {
		return Normalize(before + d)
	}
	return Normalize(before - d)
}
