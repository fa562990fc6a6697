package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/route"
)

// turnThenArrive is one leg of two steps: a 100 m left turn from east to north
// taking 10 s, then the arrival.
func turnThenArrive() route.Route {
	return route.Route{Legs: []route.Leg{{Steps: []route.Step{
		{
			Geometry: orb.LineString{{0, 0}, {0, 0.0009}},
			Distance: 100,
			Duration: 10,
			Maneuver: route.Maneuver{Type: route.TypeTurn, Modifier: "left", BearingBefore: 90, BearingAfter: 0, Location: orb.Point{0, 0}},
		},
		{
			Geometry: orb.LineString{{0, 0.0009}, {0, 0.0009}},
			Distance: 50,
			Duration: 5,
			Maneuver: route.Maneuver{Type: route.TypeArrive, BearingBefore: 0, Location: orb.Point{0, 0.0009}},
		},
	}}}}
}

func scenarioPolicy() camera.Policy {
	p := camera.DefaultPolicy()
	p.DurationMultiplier = 50
	return p
}

func newTestPlayer(r Renderer, mk Markers, policy camera.Policy, opts ...Option) *Player {
	opts = append([]Option{WithClock(func() FrameClock { return NewSteppedClock(10 * time.Millisecond) })}, opts...)
	return New(r, mk, policy, opts...)
}

func TestPlayTurnThenArrive(t *testing.T) {
	// priming leaves the camera facing north; the turn still rotates from east
	r := &fakeRenderer{}
	mk := &fakeMarkers{}
	m := &fakeMetrics{}
	p := newTestPlayer(r, mk, scenarioPolicy(), WithMetrics(m))

	res, err := p.Play(context.Background(), turnThenArrive())
	require.NoError(t, err)
	assert.True(t, res.RouteComplete)
	assert.False(t, res.Superseded)
	assert.Equal(t, 2, res.Steps)

	// 450 ms turn (90° * 50 / 10) at 10 ms frames, then 500 ms of travel (10 s * 50)
	require.Len(t, r.bearings, 46)
	require.Len(t, r.poses, 51)
	assert.Equal(t, 97, res.Frames)

	assert.InDelta(t, 90, r.bearings[0], 1e-9)
	assert.InDelta(t, 0, r.bearings[len(r.bearings)-1], 1e-9)
	for i := 1; i < len(r.bearings); i++ {
		assert.Less(t, r.bearings[i], r.bearings[i-1], "counter-clockwise from 90 toward 0")
	}

	first, last := r.poses[0], r.poses[len(r.poses)-1]
	assert.Equal(t, orb.Point{0, 0}, first.Center)
	assert.Equal(t, orb.Point{0, 0.0009}, last.Center)
	assert.InDelta(t, 0, last.Bearing, 1e-9)
	// arriving: pitch eases to the arrive setting
	assert.InDelta(t, 60, first.Pitch, 1e-9)
	assert.InDelta(t, 0, last.Pitch, 1e-9)
	assert.InDelta(t, 16.5, last.Zoom, 1e-9)

	require.Len(t, r.eases, 1)
	assert.Equal(t, camera.Pose{Center: orb.Point{0, 0}, Bearing: 0, Pitch: 60, Zoom: 15.5}, r.eases[0])

	require.Len(t, mk.placed, 2)
	assert.Equal(t, DestinationMarker, mk.placed[0].id)
	assert.Equal(t, orb.Point{0, 0.0009}, mk.placed[0].p)
	assert.Equal(t, "bottom", mk.placed[0].layout.Anchor)
	assert.Equal(t, PuckMarker, mk.placed[1].id)
	assert.Equal(t, orb.Point{0, 0}, mk.placed[1].p)
	assert.Equal(t, []string{DestinationMarker}, mk.removed)

	assert.Equal(t, 1, m.started)
	assert.Equal(t, 1, m.finished)
	assert.Equal(t, 0, m.supersede)
	assert.Equal(t, []string{route.TypeTurn, route.TypeArrive}, m.steps)
}

func TestArriveStepEmitsNoPose(t *testing.T) {
	rt := route.Route{Legs: []route.Leg{{Steps: []route.Step{
		{Distance: 50, Duration: 5, Maneuver: route.Maneuver{Type: route.TypeArrive, Modifier: "left", BearingAfter: 180, Location: orb.Point{1, 1}}},
	}}}}
	r := &fakeRenderer{}
	mk := &fakeMarkers{}
	p := newTestPlayer(r, mk, scenarioPolicy())

	res, err := p.Play(context.Background(), rt)
	require.NoError(t, err)
	assert.True(t, res.RouteComplete)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, 0, res.Frames)
	assert.Empty(t, r.poses)
	assert.Empty(t, r.bearings)
	assert.Empty(t, mk.puck)
}

func TestPlaybackSuperseded(t *testing.T) {
	r := &fakeRenderer{}
	mk := &fakeMarkers{}
	p := newTestPlayer(r, mk, scenarioPolicy())

	rt := route.Route{Legs: []route.Leg{{Steps: []route.Step{northStep(1000, 100)}}}}
	pb := p.Start(rt)
	require.NotNil(t, pb)

	now := time.Duration(0)
	for ; now <= PrimeDuration+50*time.Millisecond; now += 10 * time.Millisecond {
		require.False(t, pb.Frame(now))
	}
	assert.Equal(t, StateTraveling, pb.State())
	emitted := len(r.poses)
	require.Greater(t, emitted, 0)

	other := p.Start(rt)
	require.NotNil(t, other)
	assert.NotEqual(t, pb.Session(), p.Session())

	assert.True(t, pb.Frame(now))
	assert.Len(t, r.poses, emitted, "no pose after supersession")
	res := pb.Result()
	assert.True(t, res.RouteComplete)
	assert.True(t, res.Superseded)
	assert.Equal(t, StateCompleted, pb.State())
	assert.True(t, pb.Frame(now+time.Second))
}

func TestPrimingIsNotCancelled(t *testing.T) {
	r := &fakeRenderer{}
	p := newTestPlayer(r, &fakeMarkers{}, scenarioPolicy())
	rt := route.Route{Legs: []route.Leg{{Steps: []route.Step{northStep(1000, 100)}}}}

	pb := p.Start(rt)
	require.False(t, pb.Frame(0))
	p.Start(rt)
	assert.False(t, pb.Frame(500*time.Millisecond), "priming ignores the newer session")
	assert.Equal(t, StatePriming, pb.State())
	assert.True(t, pb.Frame(PrimeDuration))
	assert.True(t, pb.Result().Superseded)
}

func TestPlaySupersededMidRun(t *testing.T) {
	r := &fakeRenderer{}
	mk := &fakeMarkers{}
	p := newTestPlayer(r, mk, scenarioPolicy())
	rt := route.Route{Legs: []route.Leg{{Steps: []route.Step{northStep(1000, 100)}}}}

	r.onSetPose = func(n int) {
		if n == 5 {
			p.Start(rt)
		}
	}
	res, err := p.Play(context.Background(), rt)
	require.NoError(t, err)
	assert.True(t, res.Superseded)
	assert.True(t, res.RouteComplete)
	assert.Equal(t, 0, res.Steps)
	assert.Len(t, r.poses, 5)
}

func TestPlayEmptyRoute(t *testing.T) {
	r := &fakeRenderer{}
	mk := &fakeMarkers{}
	p := newTestPlayer(r, mk, scenarioPolicy())

	for _, rt := range []route.Route{{}, {Legs: []route.Leg{{}, {}}}} {
		res, err := p.Play(context.Background(), rt)
		require.NoError(t, err)
		assert.Equal(t, Result{}, res)
	}
	assert.Equal(t, uuid.Nil, p.Session())
	assert.Empty(t, r.eases)
	assert.Empty(t, mk.placed)
}

func TestPlayContextCancelled(t *testing.T) {
	p := newTestPlayer(&fakeRenderer{}, &fakeMarkers{}, scenarioPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Play(ctx, turnThenArrive())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStraightManeuverSkipsRotation(t *testing.T) {
	step := northStep(500, 10)
	step.Maneuver = route.Maneuver{Type: route.TypeTurn, Modifier: route.ModifierStraight, BearingBefore: 90, BearingAfter: 0}
	r := &fakeRenderer{}
	p := newTestPlayer(r, &fakeMarkers{}, scenarioPolicy())

	res, err := p.Play(context.Background(), route.Route{Legs: []route.Leg{{Steps: []route.Step{step}}}})
	require.NoError(t, err)
	assert.Empty(t, r.bearings)
	require.NotEmpty(t, r.poses)
	// travel starts from the incoming bearing and smooths toward north
	assert.InDelta(t, 85.5, r.poses[0].Bearing, 1e-9)
	assert.Equal(t, 1, res.Steps)
}

func TestMarkerFailureDoesNotStopPlayback(t *testing.T) {
	mk := &fakeMarkers{placeErr: errors.New("image not loaded")}
	m := &fakeMetrics{}
	p := newTestPlayer(&fakeRenderer{}, mk, scenarioPolicy(), WithMetrics(m))
	res, err := p.Play(context.Background(), turnThenArrive())
	require.NoError(t, err)
	assert.True(t, res.RouteComplete)
	assert.Equal(t, 2, res.Steps)
	assert.Equal(t, 2, m.markerErr, "destination and puck")
}

func TestStatusTracksLivePlayback(t *testing.T) {
	p := newTestPlayer(&fakeRenderer{}, &fakeMarkers{}, scenarioPolicy())
	res, err := p.Play(context.Background(), turnThenArrive())
	require.NoError(t, err)
	st := p.Status()
	assert.Equal(t, res.Session, st.Session)
	assert.Equal(t, StateCompleted.String(), st.State)
	assert.Equal(t, 2, st.StepCount)
	assert.Equal(t, res.Frames, st.Frames)
}
