package player

import (
	"time"

	"github.com/paulmach/orb"

	"navigation-simulator/internal/bearing"
	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/geo"
	"navigation-simulator/internal/route"
)

// lookAheadPhase is how far past the current position the camera target bearing
// is measured, as a fraction of the step.
const lookAheadPhase = 0.01

type regime int

const (
	regimeSteady regime = iota
	regimeEaseIn
	regimeEaseOut
)

// segment animates the travel along one step's geometry.
type segment struct {
	step     route.Step
	upcoming string // type of the maneuver that ends this step
	opts     camera.RoutingOptions
	ahead    camera.Target
	path     *geo.Path
	duration time.Duration

	started bool
	start   time.Duration

	bearing float64 // smoothed camera bearing
	target  float64 // last raw look-ahead bearing

	easeInFrom  *camera.PitchZoom
	easeOutFrom *camera.PitchZoom
}

func newSegment(step route.Step, upcoming string, policy camera.Policy, startBearing float64) *segment {
	opts := policy.Effective(step.Speed())
	return &segment{
		step:     step,
		upcoming: upcoming,
		opts:     opts,
		ahead:    policy.Maneuvers.Lookup(upcoming).Or(opts),
		path:     geo.NewPath(step.Geometry),
		duration: msDuration(step.Duration * policy.DurationMultiplier),
		bearing:  startBearing,
		target:   startBearing,
	}
}

// frame renders the travel at time now. It returns true once the step is done;
// the completing frame pushes nothing.
func (s *segment) frame(now time.Duration, r Renderer, mk Markers) bool {
	if !s.started {
		s.started = true
		s.start = now
	}
	if s.duration <= 0 {
		return true
	}
	phase := float64(now-s.start) / float64(s.duration)
	if phase > 1 {
		return true
	}

	length := s.path.Length()
	along, next := s.path.Along(length * phase)
	ahead, _ := s.path.Along(length * min(phase+lookAheadPhase, 1))
	if ahead != along {
		s.target = geo.RhumbBearing(along, ahead)
	}
	s.bearing = bearing.Smooth(s.bearing, s.target)

	mk.SetPuckLocation(along, s.puckBearing(along, next))

	pz := s.pitchZoom(phase, r)
	r.SetPose(camera.Pose{Center: along, Bearing: s.bearing, Pitch: pz.Pitch, Zoom: pz.Zoom})
	return false
}

// puckBearing points the puck at the next vertex without smoothing.
func (s *segment) puckBearing(along orb.Point, next int) float64 {
	to := s.path.Vertex(next)
	if to == along && next > 0 {
		return geo.RhumbBearing(s.path.Vertex(next-1), to)
	}
	if to == along {
		return s.target
	}
	return geo.RhumbBearing(along, to)
}

func (s *segment) regime(phase float64) regime {
	lead := s.opts.LeadDistance
	switch {
	case s.step.Distance*(1-phase) <= lead:
		return regimeEaseIn
	case s.step.Distance*phase <= lead:
		return regimeEaseOut
	default:
		return regimeSteady
	}
}

// pitchZoom picks the frame's pitch and zoom. Ease-in wins over ease-out when a
// short step sits inside the lead distance of both of its maneuvers.
func (s *segment) pitchZoom(phase float64, r Renderer) camera.PitchZoom {
	lead := s.opts.LeadDistance
	maxDist := min(lead, s.step.Distance)
	switch s.regime(phase) {
	case regimeEaseIn:
		if s.easeInFrom == nil {
			from := r.Pose().PitchZoom()
			s.easeInFrom = &from
		}
		return camera.Ease(*s.easeInFrom, s.ahead, s.step.Distance*(1-phase), maxDist)
	case regimeEaseOut:
		if s.easeOutFrom == nil {
			from := r.Pose().PitchZoom()
			s.easeOutFrom = &from
		}
		return camera.Ease(*s.easeOutFrom, s.opts.Steady(), lead-s.step.Distance*phase, maxDist)
	default:
		return camera.PitchZoom{Pitch: s.opts.Pitch, Zoom: s.opts.Zoom}
	}
}
