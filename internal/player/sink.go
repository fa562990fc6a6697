package player

import (
	"time"

	"github.com/paulmach/orb"

	"navigation-simulator/internal/camera"
)

// Marker ids placed by a playback.
const (
	PuckMarker        = "puck"
	DestinationMarker = "destination-pin"
)

// Renderer is the map camera a playback drives. Implementations must be safe for
// use from several goroutines: a superseded playback may emit one more frame.
type Renderer interface {
	Pose() camera.Pose
	SetPose(camera.Pose)
	SetBearing(bearing float64)
	EaseTo(target camera.Pose, d time.Duration)
}

// Markers places and moves the symbols drawn on top of the map.
type Markers interface {
	SetPuckLocation(p orb.Point, bearing float64)
	PlaceMarker(id string, p orb.Point, layout Layout) error
	RemoveMarker(id string) error
}

// Layout carries the symbol orientation and anchoring for a placed marker.
type Layout struct {
	Anchor            string  `json:"anchor,omitempty"`            // e.g. "bottom"
	RotationAlignment string  `json:"rotationAlignment,omitempty"` // "map" or "viewport"
	Rotate            float64 `json:"rotate"`
}

// Metrics receives playback lifecycle events. All methods must tolerate concurrent calls.
type Metrics interface {
	PlaybackStarted()
	PlaybackFinished(superseded bool)
	StepPlayed(maneuverType string)
	FrameObserve(d time.Duration)
	MarkerError()
}

type nopMetrics struct{}

func (nopMetrics) PlaybackStarted()           {}
func (nopMetrics) PlaybackFinished(bool)      {}
func (nopMetrics) StepPlayed(string)          {}
func (nopMetrics) FrameObserve(time.Duration) {}
func (nopMetrics) MarkerError()               {}
