package player

import (
	"time"

	"navigation-simulator/internal/bearing"
	"navigation-simulator/internal/route"
)

// maneuverTimeDivisor calibrates how long a turn in place takes:
// degrees * multiplier / divisor milliseconds.
const maneuverTimeDivisor = 10

// transition rotates the camera and the puck in place at a maneuver vertex.
type transition struct {
	maneuver  route.Maneuver
	before    float64
	after     float64
	clockwise bool
	duration  time.Duration

	started bool
	start   time.Duration
}

// newTransition prepares the turn from the maneuver's incoming bearing to its
// outgoing bearing. It returns nil with the incoming bearing when the maneuver
// needs no rotation.
func newTransition(m route.Maneuver, multiplier float64) (*transition, float64) {
	before := bearing.Normalize(m.BearingBefore)
	if m.Modifier == "" || m.Modifier == route.ModifierStraight {
		return nil, before
	}
	after := bearing.Normalize(m.BearingAfter)
	cw := bearing.ShortestDirection(before, after)
	ms := bearing.AngularDistance(before, after, cw) * multiplier / maneuverTimeDivisor
	return &transition{
		maneuver:  m,
		before:    before,
		after:     after,
		clockwise: cw,
		duration:  msDuration(ms),
	}, before
}

// frame advances the rotation to now. It returns the bearing reached and true
// once the rotation is over; no side effect happens on that final frame.
func (t *transition) frame(now time.Duration, r Renderer, mk Markers) (float64, bool) {
	if !t.started {
		t.started = true
		t.start = now
	}
	if t.duration <= 0 {
		return t.after, true
	}
	phase := float64(now-t.start) / float64(t.duration)
	if phase > 1 {
		return t.after, true
	}
	b := bearing.Interpolate(t.before, t.after, t.clockwise, phase)
	mk.SetPuckLocation(t.maneuver.Location, b)
	r.SetBearing(b)
	return b, false
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
