package camera

// Ease moves pitch and zoom from before toward after as the remaining distance
// to the transition point shrinks from maxDistance to 0. Fields after leaves
// unset stay at before. A non-positive maxDistance means the transition point is
// already reached.
func Ease(before PitchZoom, after Target, distanceRemaining, maxDistance float64) PitchZoom {
	phase := 1.0
	if maxDistance > 0 {
		phase = 1 - clamp(distanceRemaining, 0, maxDistance)/maxDistance
	}
	out := before
	if after.Pitch != nil {
		out.Pitch = easeValue(before.Pitch, *after.Pitch, phase)
	}
	if after.Zoom != nil {
		out.Zoom = easeValue(before.Zoom, *after.Zoom, phase)
	}
	return out
}

// easeValue interpolates between the lower and upper of the two values, running
// the phase backwards when the value decreases so it always ends on to.
func easeValue(from, to, phase float64) float64 {
	lo, hi := min(from, to), max(from, to)
	if to < from {
		phase = 1 - phase
	}
	return scale(phase, 0, 1, lo, hi)
}

func scale(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMax
	}
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
