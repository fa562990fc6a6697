package camera

// Wildcard keys a ManeuverOptions entry that applies to every maneuver type
// without an entry of its own.
const Wildcard = "*"

// RoutingOptions is the steady-state camera policy along a route.
type RoutingOptions struct {
	Pitch        float64 `yaml:"pitch" validate:"gte=0,lte=85"`
	Zoom         float64 `yaml:"zoom" validate:"gte=0,lte=24"`
	LeadDistance float64 `yaml:"leadDistance" validate:"gte=0"` // meters
}

// Target is a partial pitch/zoom setting. Nil fields are left alone.
type Target struct {
	Pitch *float64 `yaml:"pitch,omitempty" validate:"omitempty,gte=0,lte=85"`
	Zoom  *float64 `yaml:"zoom,omitempty" validate:"omitempty,gte=0,lte=24"`
}

// ManeuverOptions maps a maneuver type to the camera setting eased into ahead of it.
type ManeuverOptions map[string]Target

// SpeedOptions replaces routing options on steps driven faster than Speed (m/s).
type SpeedOptions struct {
	Speed        float64  `yaml:"speed" validate:"gte=0"`
	Pitch        *float64 `yaml:"pitch,omitempty" validate:"omitempty,gte=0,lte=85"`
	Zoom         *float64 `yaml:"zoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	LeadDistance *float64 `yaml:"leadDistance,omitempty" validate:"omitempty,gte=0"`
}

// Policy bundles the camera configuration a playback reads. It is never mutated
// by the engine.
type Policy struct {
	DurationMultiplier float64         `yaml:"durationMultiplier" validate:"gt=0"`
	Routing            RoutingOptions  `yaml:"routingOptions"`
	Maneuvers          ManeuverOptions `yaml:"maneuverOptions" validate:"dive"`
	Speed              *SpeedOptions   `yaml:"speedOptions,omitempty"`
}

// DefaultPolicy mirrors the published demo configuration.
func DefaultPolicy() Policy {
	return Policy{
		DurationMultiplier: 50,
		Routing:            RoutingOptions{Pitch: 60, Zoom: 15.5, LeadDistance: 125},
		Maneuvers: ManeuverOptions{
			"turn":   {Pitch: Float(45), Zoom: Float(16.5)},
			"arrive": {Pitch: Float(0), Zoom: Float(16.5)},
		},
		Speed: &SpeedOptions{Speed: 17.5, Zoom: Float(13.5), LeadDistance: Float(225)},
	}
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 { return &v }

// Effective returns the routing options for a step travelled at speed (m/s):
// the speed options override every field they set once speed exceeds their threshold.
func (p Policy) Effective(speed float64) RoutingOptions {
	opts := p.Routing
	s := p.Speed
	if s == nil || !(s.Speed < speed) {
		return opts
	}
	if s.Pitch != nil {
		opts.Pitch = *s.Pitch
	}
	if s.Zoom != nil {
		opts.Zoom = *s.Zoom
	}
	if s.LeadDistance != nil {
		opts.LeadDistance = *s.LeadDistance
	}
	return opts
}

// Lookup returns the target for a maneuver type, falling back to the wildcard entry.
func (m ManeuverOptions) Lookup(maneuverType string) Target {
	if t, ok := m[maneuverType]; ok {
		return t
	}
	return m[Wildcard]
}

// Or fills the fields t leaves unset from opts.
func (t Target) Or(opts RoutingOptions) Target {
	if t.Pitch == nil {
		t.Pitch = Float(opts.Pitch)
	}
	if t.Zoom == nil {
		t.Zoom = Float(opts.Zoom)
	}
	return t
}

// Steady is the target holding the options' own pitch and zoom.
func (o RoutingOptions) Steady() Target {
	return Target{Pitch: Float(o.Pitch), Zoom: Float(o.Zoom)}
}
