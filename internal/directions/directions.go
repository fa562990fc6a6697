// Package directions requests driving routes from the Mapbox Directions API and
// decodes them into playable routes.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"navigation-simulator/internal/route"
)

// DefaultBaseURL is the driving profile endpoint.
const DefaultBaseURL = "https://api.mapbox.com/directions/v5/mapbox/driving"

var (
	// ErrNoRoute is returned when a response carries no route.
	ErrNoRoute = errors.New("directions: no route")
	// ErrTooFewLocations is returned when fewer than two locations are requested.
	ErrTooFewLocations = errors.New("directions: at least two locations are required")
)

// Metrics counts directions requests.
type Metrics interface {
	DirectionsRequest(ok bool)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	metrics Metrics
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithMetrics(m Metrics) Option         { return func(c *Client) { c.metrics = m } }
func WithLogger(l *zap.Logger) Option      { return func(c *Client) { c.log = l } }

func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// URL builds the request for a route through locations, in order.
func (c *Client) URL(locations ...orb.Point) (string, error) {
	if len(locations) < 2 {
		return "", ErrTooFewLocations
	}
	coords := make([]string, len(locations))
	for i, p := range locations {
		coords[i] = formatCoord(p.Lon()) + "," + formatCoord(p.Lat())
	}
	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("steps", "true")
	q.Set("access_token", c.token)
	return c.baseURL + "/" + strings.Join(coords, ";") + "?" + q.Encode(), nil
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Fetch requests a route through locations. The raw response body is returned
// alongside the decoded route so callers can store it.
func (c *Client) Fetch(ctx context.Context, locations ...orb.Point) (route.Route, []byte, error) {
	rt, body, err := c.fetch(ctx, locations)
	if c.metrics != nil {
		c.metrics.DirectionsRequest(err == nil)
	}
	return rt, body, err
}

func (c *Client) fetch(ctx context.Context, locations []orb.Point) (route.Route, []byte, error) {
	u, err := c.URL(locations...)
	if err != nil {
		return route.Route{}, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return route.Route{}, nil, fmt.Errorf("build request: %w", err)
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return route.Route{}, nil, fmt.Errorf("request directions: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return route.Route{}, nil, fmt.Errorf("read directions: %w", err)
	}
	c.log.Debug("directions fetched",
		zap.Int("status", resp.StatusCode),
		zap.Int("locations", len(locations)),
		zap.Duration("took", time.Since(start)))
	if resp.StatusCode != http.StatusOK {
		var e response
		if json.Unmarshal(body, &e) == nil && e.Message != "" {
			return route.Route{}, body, fmt.Errorf("directions: %s: %s", resp.Status, e.Message)
		}
		return route.Route{}, body, fmt.Errorf("directions: %s", resp.Status)
	}
	rt, err := Decode(body)
	return rt, body, err
}

type response struct {
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Routes  []apiRoute `json:"routes"`
}

type apiRoute struct {
	Legs []struct {
		Steps []apiStep `json:"steps"`
	} `json:"legs"`
}

type apiStep struct {
	Geometry *geojson.Geometry `json:"geometry"`
	Distance float64           `json:"distance"`
	Duration float64           `json:"duration"`
	Maneuver struct {
		Type          string    `json:"type"`
		Modifier      string    `json:"modifier"`
		BearingBefore float64   `json:"bearing_before"`
		BearingAfter  float64   `json:"bearing_after"`
		Location      orb.Point `json:"location"`
	} `json:"maneuver"`
}

// Decode parses a directions response. Only the first route is kept;
// alternatives are ignored.
func Decode(body []byte) (route.Route, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return route.Route{}, fmt.Errorf("decode directions: %w", err)
	}
	if len(r.Routes) == 0 {
		if r.Code != "" && r.Code != "Ok" {
			return route.Route{}, fmt.Errorf("%w: %s", ErrNoRoute, r.Code)
		}
		return route.Route{}, ErrNoRoute
	}

	var rt route.Route
	for li, l := range r.Routes[0].Legs {
		leg := route.Leg{Steps: make([]route.Step, 0, len(l.Steps))}
		for si, s := range l.Steps {
			line, err := lineString(s.Geometry)
			if err != nil {
				return route.Route{}, fmt.Errorf("leg %d step %d: %w", li, si, err)
			}
			leg.Steps = append(leg.Steps, route.Step{
				Geometry: line,
				Distance: s.Distance,
				Duration: s.Duration,
				Maneuver: route.Maneuver{
					Type:          s.Maneuver.Type,
					Modifier:      s.Maneuver.Modifier,
					BearingBefore: s.Maneuver.BearingBefore,
					BearingAfter:  s.Maneuver.BearingAfter,
					Location:      s.Maneuver.Location,
				},
			})
		}
		rt.Legs = append(rt.Legs, leg)
	}
	return rt, nil
}

func lineString(g *geojson.Geometry) (orb.LineString, error) {
	if g == nil || g.Coordinates == nil {
		return nil, nil
	}
	switch c := g.Coordinates.(type) {
	case orb.LineString:
		return c, nil
	case orb.Point:
		return orb.LineString{c}, nil
	default:
		return nil, fmt.Errorf("unexpected step geometry %s", g.Type)
	}
}

// RouteLine returns the route as a feature collection with one line feature per
// step, ready to be drawn as the route layer.
func RouteLine(rt route.Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, s := range rt.Steps() {
		if len(s.Geometry) == 0 {
			continue
		}
		f := geojson.NewFeature(s.Geometry)
		f.Properties["step"] = i
		f.Properties["maneuver"] = s.Maneuver.Type
		fc.Append(f)
	}
	return fc
}
