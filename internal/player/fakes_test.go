package player

import (
	"sync"
	"time"

	"github.com/paulmach/orb"

	"navigation-simulator/internal/camera"
)

type fakeRenderer struct {
	mu        sync.Mutex
	pose      camera.Pose
	poses     []camera.Pose
	bearings  []float64
	eases     []camera.Pose
	onSetPose func(n int)
}

func (r *fakeRenderer) Pose() camera.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

func (r *fakeRenderer) SetPose(p camera.Pose) {
	r.mu.Lock()
	r.pose = p
	r.poses = append(r.poses, p)
	n := len(r.poses)
	hook := r.onSetPose
	r.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

func (r *fakeRenderer) SetBearing(b float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pose.Bearing = b
	r.bearings = append(r.bearings, b)
}

func (r *fakeRenderer) EaseTo(p camera.Pose, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.eases = append(r.eases, p)
	r.pose = p
}

type placed struct {
	id     string
	p      orb.Point
	layout Layout
}

type puckUpdate struct {
	p       orb.Point
	bearing float64
}

type fakeMarkers struct {
	mu       sync.Mutex
	placed   []placed
	removed  []string
	puck     []puckUpdate
	placeErr error
}

func (m *fakeMarkers) SetPuckLocation(p orb.Point, bearing float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puck = append(m.puck, puckUpdate{p: p, bearing: bearing})
}

func (m *fakeMarkers) PlaceMarker(id string, p orb.Point, layout Layout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeErr != nil {
		return m.placeErr
	}
	m.placed = append(m.placed, placed{id: id, p: p, layout: layout})
	return nil
}

func (m *fakeMarkers) RemoveMarker(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	started   int
	finished  int
	supersede int
	steps     []string
	frames    int
	markerErr int
}

func (m *fakeMetrics) PlaybackStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *fakeMetrics) PlaybackFinished(superseded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished++
	if superseded {
		m.supersede++
	}
}

func (m *fakeMetrics) StepPlayed(t string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, t)
}

func (m *fakeMetrics) FrameObserve(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
}

func (m *fakeMetrics) MarkerError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markerErr++
}
