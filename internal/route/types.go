package route

import "github.com/paulmach/orb"

// Maneuver types that change playback behaviour.
const (
	TypeArrive = "arrive"
	TypeDepart = "depart"
	TypeTurn   = "turn"
)

// ModifierStraight marks a maneuver that needs no rotation in place.
const ModifierStraight = "straight"

type Route struct {
	Legs []Leg `json:"legs"`
}

type Leg struct {
	Steps []Step `json:"steps"`
}

type Step struct {
	Geometry orb.LineString `json:"geometry"`
	Distance float64        `json:"distance"` // meters
	Duration float64        `json:"duration"` // seconds
	Maneuver Maneuver       `json:"maneuver"`
}

type Maneuver struct {
	Type          string    `json:"type"`
	Modifier      string    `json:"modifier,omitempty"` // optional: left, right, straight, uturn, slight left, ...
	BearingBefore float64   `json:"bearingBefore"`
	BearingAfter  float64   `json:"bearingAfter"`
	Location      orb.Point `json:"location"` // lng, lat
}

// Steps returns every step in playback order: legs in order, steps within each leg in order.
func (r Route) Steps() []Step {
	var steps []Step
	for _, leg := range r.Legs {
		steps = append(steps, leg.Steps...)
	}
	return steps
}

// Empty reports whether the route has no step to play.
func (r Route) Empty() bool {
	for _, leg := range r.Legs {
		if len(leg.Steps) > 0 {
			return false
		}
	}
	return true
}

// Coordinates concatenates the step geometries into a single route line.
func (r Route) Coordinates() orb.LineString {
	var ls orb.LineString
	for _, leg := range r.Legs {
		for _, s := range leg.Steps {
			ls = append(ls, s.Geometry...)
		}
	}
	return ls
}

// Start returns the position and heading a playback begins from.
func (r Route) Start() (orb.Point, float64) {
	steps := r.Steps()
	if len(steps) == 0 {
		return orb.Point{}, 0
	}
	first := steps[0]
	return first.StartPoint(), first.Maneuver.BearingAfter
}

// Final returns the last step of the route and false when the route is empty.
func (r Route) Final() (Step, bool) {
	for i := len(r.Legs) - 1; i >= 0; i-- {
		if n := len(r.Legs[i].Steps); n > 0 {
			return r.Legs[i].Steps[n-1], true
		}
	}
	return Step{}, false
}

// StartPoint is the first vertex of the step, falling back to the maneuver location.
func (s Step) StartPoint() orb.Point {
	if len(s.Geometry) > 0 {
		return s.Geometry[0]
	}
	return s.Maneuver.Location
}

// EndPoint is the last vertex of the step, falling back to the maneuver location.
func (s Step) EndPoint() orb.Point {
	if n := len(s.Geometry); n > 0 {
		return s.Geometry[n-1]
	}
	return s.Maneuver.Location
}

// Speed is the average speed over the step in m/s. A step without duration has speed 0.
func (s Step) Speed() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.Distance / s.Duration
}
