package bearing

const (
	smoothThreshold = 5.0 // degrees
	smoothMinPhase  = 0.05
	smoothMaxPhase  = 0.5
)

// Smooth moves current toward target by a fraction that grows as the two align:
// 5% of the gap when 5° or more apart, up to half of it when nearly aligned.
// It never stalls and never overshoots.
func Smooth(current, target float64) float64 {
	clockwise := ShortestDirection(current, target)
	d := min(AngularDistance(current, target, clockwise), smoothThreshold)
	phase := scale(smoothThreshold-d, 0, smoothThreshold, smoothMinPhase, smoothMaxPhase)
	return Interpolate(current, target, clockwise, phase)
}

func scale(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
