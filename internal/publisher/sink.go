package publisher

import (
	"sync"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"navigation-simulator/internal/camera"
	"navigation-simulator/internal/player"
)

// Camera message kinds.
const (
	KindJump    = "jump"
	KindRotate  = "rotate"
	KindEase    = "ease"
	ActionPlace = "place"
	ActionDrop  = "remove"
)

type CameraMessage struct {
	Session    string      `json:"session"`
	Kind       string      `json:"kind"`
	Timestamp  time.Time   `json:"timestamp"`
	Pose       camera.Pose `json:"pose"`
	DurationMs int64       `json:"durationMs,omitempty"`
}

type PuckMessage struct {
	Session   string    `json:"session"`
	Timestamp time.Time `json:"timestamp"`
	Lon       float64   `json:"lon"`
	Lat       float64   `json:"lat"`
	Bearing   float64   `json:"bearing"`
}

type MarkerMessage struct {
	Session   string         `json:"session"`
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	ID        string         `json:"id"`
	Location  *orb.Point     `json:"location,omitempty"`
	Layout    *player.Layout `json:"layout,omitempty"`
}

// Sink is a map renderer that lives on the other side of a message bus. It keeps
// the last camera pose it sent so a playback can read it back, and publishes
// every change under <prefix>.<session>.
type Sink struct {
	pub     Publisher
	prefix  string
	log     *zap.Logger
	now     func() time.Time
	session func() string

	mu      sync.Mutex
	pose    camera.Pose
	markers map[string]orb.Point
}

func NewSink(pub Publisher, prefix string, initial camera.Pose, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{
		pub:     pub,
		prefix:  prefix,
		log:     log,
		now:     time.Now,
		session: func() string { return "" },
		pose:    initial,
		markers: make(map[string]orb.Point),
	}
}

// Bind names the session messages are published under.
func (s *Sink) Bind(session func() string) { s.session = session }

func (s *Sink) subject(kind string) string {
	return s.prefix + "." + subjectToken(s.session()) + "." + kind
}

func (s *Sink) Pose() camera.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

func (s *Sink) SetPose(p camera.Pose) {
	s.mu.Lock()
	s.pose = p
	s.mu.Unlock()
	s.sendCamera(KindJump, p, 0)
}

func (s *Sink) SetBearing(b float64) {
	s.mu.Lock()
	s.pose.Bearing = b
	p := s.pose
	s.mu.Unlock()
	s.sendCamera(KindRotate, p, 0)
}

// EaseTo publishes the animation and takes target as the resulting pose.
func (s *Sink) EaseTo(target camera.Pose, d time.Duration) {
	s.mu.Lock()
	s.pose = target
	s.mu.Unlock()
	s.sendCamera(KindEase, target, d.Milliseconds())
}

func (s *Sink) sendCamera(kind string, p camera.Pose, ms int64) {
	msg := CameraMessage{Session: s.session(), Kind: kind, Timestamp: s.now(), Pose: p, DurationMs: ms}
	if err := s.pub.Publish(s.subject("camera"), msg); err != nil {
		s.log.Warn("publish camera", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Sink) SetPuckLocation(p orb.Point, bearing float64) {
	msg := PuckMessage{Session: s.session(), Timestamp: s.now(), Lon: p.Lon(), Lat: p.Lat(), Bearing: bearing}
	if err := s.pub.Publish(s.subject("puck"), msg); err != nil {
		s.log.Warn("publish puck", zap.Error(err))
	}
}

func (s *Sink) PlaceMarker(id string, p orb.Point, layout player.Layout) error {
	msg := MarkerMessage{Session: s.session(), Timestamp: s.now(), Action: ActionPlace, ID: id, Location: &p, Layout: &layout}
	if err := s.pub.Publish(s.subject("marker"), msg); err != nil {
		return err
	}
	s.mu.Lock()
	s.markers[id] = p
	s.mu.Unlock()
	return nil
}

// RemoveMarker drops a marker. Removing an unknown id is not an error.
func (s *Sink) RemoveMarker(id string) error {
	s.mu.Lock()
	_, ok := s.markers[id]
	delete(s.markers, id)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	msg := MarkerMessage{Session: s.session(), Timestamp: s.now(), Action: ActionDrop, ID: id}
	return s.pub.Publish(s.subject("marker"), msg)
}

// Markers returns the ids of the markers currently placed.
func (s *Sink) Markers() map[string]orb.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]orb.Point, len(s.markers))
	for k, v := range s.markers {
		out[k] = v
	}
	return out
}

var (
	_ player.Renderer = (*Sink)(nil)
	_ player.Markers  = (*Sink)(nil)
)
