package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Path is a line string with precomputed cumulative haversine distances in meters.
type Path struct {
	pts orb.LineString
	cum []float64
}

func NewPath(ls orb.LineString) *Path {
	return &Path{pts: ls, cum: CumDistances(ls)}
}

// Length returns the total path length in meters.
func (p *Path) Length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// Vertex returns the i-th vertex, clamped to the path.
func (p *Path) Vertex(i int) orb.Point {
	if len(p.pts) == 0 {
		return orb.Point{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(p.pts) {
		i = len(p.pts) - 1
	}
	return p.pts[i]
}

// Len returns the number of vertices.
func (p *Path) Len() int { return len(p.pts) }

// Along returns the point at the given distance along the path and the index of
// the next vertex ahead of it. Distances outside [0, Length] clamp to the ends.
func (p *Path) Along(dist float64) (orb.Point, int) {
	n := len(p.pts)
	if n == 0 {
		return orb.Point{}, 0
	}
	if n == 1 || dist <= 0 {
		return p.pts[0], min(1, n-1)
	}
	total := p.cum[n-1]
	if dist >= total {
		return p.pts[n-1], n - 1
	}
	// find segment
	i := 1
	for i < n && p.cum[i] < dist {
		i++
	}
	d0 := p.cum[i-1]
	d1 := p.cum[i]
	p0 := p.pts[i-1]
	p1 := p.pts[i]
	if d1 == d0 {
		return p0, i
	}
	if dist == d1 {
		return p1, min(i+1, n-1)
	}
	return geo.PointAtBearingAndDistance(p0, geo.Bearing(p0, p1), dist-d0), i
}

// CumDistances builds cumulative haversine distances for the line's vertices.
func CumDistances(ls orb.LineString) []float64 {
	n := len(ls)
	if n == 0 {
		return nil
	}
	cum := make([]float64, n)
	sum := 0.0
	for i := 1; i < n; i++ {
		sum += geo.DistanceHaversine(ls[i-1], ls[i])
		cum[i] = sum
	}
	return cum
}

// RhumbBearing returns the constant-heading bearing from a to b in degrees [0,360).
func RhumbBearing(a, b orb.Point) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLon := toRad(b.Lon()) - toRad(a.Lon())
	dPhi := math.Log(math.Tan(toRad(b.Lat())/2+math.Pi/4) / math.Tan(toRad(a.Lat())/2+math.Pi/4))
	// take the short way round the antimeridian
	if math.Abs(dLon) > math.Pi {
		if dLon > 0 {
			dLon = -(2*math.Pi - dLon)
		} else {
			dLon = 2*math.Pi + dLon
		}
	}
	brng := math.Atan2(dLon, dPhi) * 180 / math.Pi
	return math.Mod(brng+360, 360)
}
