package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/route"
)

// Player drives route playbacks against one renderer. Only the most recently
// started playback is live.
type Player struct {
	renderer Renderer
	markers  Markers
	policy   camera.Policy
	newClock func() FrameClock
	metrics  Metrics
	log      *zap.Logger

	mu      sync.Mutex
	session Session
	status  Status
}

// Status is a snapshot of the live playback.
type Status struct {
	Session   Session `json:"session"`
	State     string  `json:"state"`
	Step      int     `json:"step"`
	StepCount int     `json:"stepCount"`
	Frames    int     `json:"frames"`
}

type Option func(*Player)

// WithClock sets the frame clock factory; every playback gets its own clock.
func WithClock(f func() FrameClock) Option {
	return func(p *Player) { p.newClock = f }
}

func WithMetrics(m Metrics) Option {
	return func(p *Player) {
		if m != nil {
			p.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Player) {
		if l != nil {
			p.log = l
		}
	}
}

func New(r Renderer, mk Markers, policy camera.Policy, opts ...Option) *Player {
	p := &Player{
		renderer: r,
		markers:  mk,
		policy:   policy,
		newClock: func() FrameClock { return NewTickerClock(60) },
		metrics:  nopMetrics{},
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Session returns the live session.
func (p *Player) Session() Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Status returns the last recorded state of the live playback.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Start makes a new playback for rt the live one, superseding any other. It
// returns nil for a route without steps and leaves the live session untouched.
func (p *Player) Start(rt route.Route) *Playback {
	if rt.Empty() {
		return nil
	}
	id := uuid.New()
	pb := newPlayback(id, p.Session, rt, p.policy, p.renderer, p.markers, p.metrics, p.log)
	p.mu.Lock()
	p.session = id
	p.status = Status{Session: id, State: StatePriming.String(), StepCount: pb.StepCount()}
	p.mu.Unlock()
	p.metrics.PlaybackStarted()
	p.log.Info("playback started", zap.String("session", id.String()), zap.Int("steps", pb.StepCount()))
	return pb
}

// Play starts a playback for rt and runs it to the end. A route without steps
// is a no-op returning a zero Result.
func (p *Player) Play(ctx context.Context, rt route.Route) (Result, error) {
	pb := p.Start(rt)
	if pb == nil {
		return Result{}, nil
	}
	return p.Run(ctx, pb)
}

// Run feeds frames to pb until it finishes or ctx is done.
func (p *Player) Run(ctx context.Context, pb *Playback) (Result, error) {
	clock := p.newClock()
	defer clock.Stop()
	for {
		now, err := clock.Next(ctx)
		if err != nil {
			p.log.Info("playback stopped", zap.String("session", pb.Session().String()), zap.Error(err))
			p.metrics.PlaybackFinished(false)
			return pb.Result(), err
		}
		frameStart := time.Now()
		done := pb.Frame(now)
		p.metrics.FrameObserve(time.Since(frameStart))
		p.record(pb)
		if done {
			res := pb.Result()
			p.metrics.PlaybackFinished(res.Superseded)
			p.log.Info("playback finished",
				zap.String("session", res.Session.String()),
				zap.Bool("superseded", res.Superseded),
				zap.Int("steps", res.Steps),
				zap.Int("frames", res.Frames),
			)
			return res, nil
		}
	}
}

func (p *Player) record(pb *Playback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != pb.Session() {
		return
	}
	res := pb.Result()
	p.status = Status{
		Session:   pb.Session(),
		State:     pb.State().String(),
		Step:      pb.Step(),
		StepCount: pb.StepCount(),
		Frames:    res.Frames,
	}
}
