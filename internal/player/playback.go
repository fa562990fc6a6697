package player

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"navigation-simulator/internal/bearing"
	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/route"
)

// PrimeDuration is how long the camera takes to ease onto the route start.
const PrimeDuration = time.Second

// Session identifies one playback. Starting a new playback replaces the live
// session, which makes every older playback stop at its next frame.
type Session = uuid.UUID

// State is the phase a playback is in.
type State int

const (
	StatePriming State = iota
	StateManeuver
	StateTraveling
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePriming:
		return "priming"
	case StateManeuver:
		return "maneuver"
	case StateTraveling:
		return "traveling"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Result summarises a finished playback.
type Result struct {
	Session       Session `json:"session"`
	RouteComplete bool    `json:"routeComplete"`
	Superseded    bool    `json:"superseded"`
	Steps         int     `json:"steps"`  // steps fully played
	Frames        int     `json:"frames"` // frames that pushed a pose or bearing
}

// Playback is the state machine for one route: priming, then for every step a
// maneuver rotation followed by travel, then completed. It is advanced only by
// Frame, so the whole run is a function of the timestamps fed in.
type Playback struct {
	session  Session
	live     func() Session
	steps    []route.Step
	policy   camera.Policy
	renderer Renderer
	markers  Markers
	metrics  Metrics
	log      *zap.Logger

	state   State
	idx     int
	primed  bool
	primeAt time.Duration
	trans   *transition
	seg     *segment
	result  Result
}

func newPlayback(session Session, live func() Session, rt route.Route, policy camera.Policy, r Renderer, mk Markers, m Metrics, log *zap.Logger) *Playback {
	return &Playback{
		session:  session,
		live:     live,
		steps:    rt.Steps(),
		policy:   policy,
		renderer: r,
		markers:  mk,
		metrics:  m,
		log:      log.With(zap.String("session", session.String())),
		result:   Result{Session: session},
	}
}

func (p *Playback) Session() Session { return p.session }
func (p *Playback) State() State     { return p.state }
func (p *Playback) Result() Result   { return p.result }

// Step returns the index of the step being played.
func (p *Playback) Step() int { return p.idx }

// StepCount returns the number of steps in the route.
func (p *Playback) StepCount() int { return len(p.steps) }

// Frame advances the playback to now and reports whether it has finished.
// Timestamps must not go backwards.
func (p *Playback) Frame(now time.Duration) bool {
	switch p.state {
	case StateCompleted:
		return true
	case StatePriming:
		return p.prime(now)
	}

	if p.superseded() {
		return p.complete()
	}

	switch p.state {
	case StateManeuver:
		b, done := p.trans.frame(now, p.renderer, p.markers)
		if !done {
			p.result.Frames++
			return false
		}
		p.seg.bearing, p.seg.target = b, b
		p.state = StateTraveling
		return false
	case StateTraveling:
		if !p.seg.frame(now, p.renderer, p.markers) {
			p.result.Frames++
			return false
		}
		p.stepDone()
		return p.begin(p.idx + 1)
	}
	return false
}

// prime eases the camera onto the route start. It cannot be superseded.
func (p *Playback) prime(now time.Duration) bool {
	if !p.primed {
		p.primed = true
		p.primeAt = now
		p.renderer.EaseTo(p.startPose(), PrimeDuration)
		return false
	}
	if now-p.primeAt < PrimeDuration {
		return false
	}
	p.placeMarkers()
	p.log.Debug("playback primed", zap.Int("steps", len(p.steps)))
	return p.begin(0)
}

func (p *Playback) startPose() camera.Pose {
	first := p.steps[0]
	opts := p.policy.Effective(first.Speed())
	return camera.Pose{
		Center:  first.StartPoint(),
		Bearing: bearing.Normalize(first.Maneuver.BearingAfter),
		Pitch:   opts.Pitch,
		Zoom:    opts.Zoom,
	}
}

func (p *Playback) placeMarkers() {
	if err := p.markers.RemoveMarker(DestinationMarker); err != nil {
		p.log.Warn("remove destination marker", zap.Error(err))
		p.metrics.MarkerError()
	}
	final := p.steps[len(p.steps)-1]
	if final.Maneuver.Type == route.TypeArrive {
		if err := p.markers.PlaceMarker(DestinationMarker, final.Maneuver.Location, Layout{Anchor: "bottom"}); err != nil {
			p.log.Warn("place destination marker", zap.Error(err))
			p.metrics.MarkerError()
		}
	}
	first := p.steps[0]
	layout := Layout{RotationAlignment: "map", Rotate: bearing.Normalize(first.Maneuver.BearingAfter)}
	if err := p.markers.PlaceMarker(PuckMarker, first.StartPoint(), layout); err != nil {
		p.log.Warn("place puck marker", zap.Error(err))
		p.metrics.MarkerError()
	}
}

// begin sets up step i. Arrivals finish on the spot and maneuvers that need no
// rotation go straight to travel; animated states start on the next frame.
// The session is checked before every step.
func (p *Playback) begin(i int) bool {
	for ; i < len(p.steps); i++ {
		if p.superseded() {
			return p.complete()
		}
		step := p.steps[i]
		p.idx = i
		if step.Maneuver.Type == route.TypeArrive {
			p.log.Debug("arrived", zap.Int("step", i))
			p.stepDone()
			continue
		}
		trans, b := newTransition(step.Maneuver, p.policy.DurationMultiplier)
		p.trans = trans
		p.seg = newSegment(step, p.upcoming(i), p.policy, b)
		if trans != nil {
			p.state = StateManeuver
		} else {
			p.state = StateTraveling
		}
		p.log.Debug("step started",
			zap.Int("step", i),
			zap.String("maneuver", step.Maneuver.Type),
			zap.String("modifier", step.Maneuver.Modifier),
			zap.Float64("distance", step.Distance),
			zap.Float64("duration", step.Duration),
		)
		return false
	}
	p.idx = len(p.steps)
	return p.complete()
}

func (p *Playback) stepDone() {
	p.result.Steps++
	p.metrics.StepPlayed(p.steps[p.idx].Maneuver.Type)
}

// upcoming returns the maneuver type at the end of step i: the next step's
// maneuver, or the step's own on the last step.
func (p *Playback) upcoming(i int) string {
	if i+1 < len(p.steps) {
		return p.steps[i+1].Maneuver.Type
	}
	return p.steps[i].Maneuver.Type
}

// superseded reports whether a newer playback has taken over the session.
func (p *Playback) superseded() bool {
	if p.live() == p.session {
		return false
	}
	p.result.Superseded = true
	p.log.Info("playback superseded", zap.Int("step", p.idx))
	return true
}

func (p *Playback) complete() bool {
	p.state = StateCompleted
	p.result.RouteComplete = true
	p.trans = nil
	p.seg = nil
	return true
}
