package camera

import "github.com/paulmach/orb"

// Pose is a full camera state as pushed to the renderer once per frame.
type Pose struct {
	Center  orb.Point `json:"center"` // lng, lat
	Bearing float64   `json:"bearing"`
	Pitch   float64   `json:"pitch"`
	Zoom    float64   `json:"zoom"`
}

// PitchZoom is the pair of scalar camera parameters eased around maneuvers.
type PitchZoom struct {
	Pitch float64
	Zoom  float64
}

func (p Pose) PitchZoom() PitchZoom {
	return PitchZoom{Pitch: p.Pitch, Zoom: p.Zoom}
}
