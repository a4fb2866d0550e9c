package domain

import "math"

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an axis-aligned latitude/longitude box, inclusive on every edge.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside or on the edge of b.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// BoundsOf returns the smallest box enclosing every point.
// The zero Bounds is returned for an empty slice.
func BoundsOf(points []GeoPoint) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// GateLine is the segment drawn across a waterway that traffic is counted
// against. Construct it with NewGateLine.
type GateLine struct {
	P1 GeoPoint `json:"p1"`
	P2 GeoPoint `json:"p2"`
}

// NewGateLine builds a gate from two endpoints. Coincident endpoints are
// rejected with ErrDegenerateGate.
func NewGateLine(lat1, lon1, lat2, lon2 float64) (GateLine, error) {
	if lat1 == lat2 && lon1 == lon2 {
		return GateLine{}, ErrDegenerateGate
	}
	return GateLine{
		P1: GeoPoint{Lat: lat1, Lon: lon1},
		P2: GeoPoint{Lat: lat2, Lon: lon2},
	}, nil
}

// Center is the midpoint of the gate in coordinate space.
func (g GateLine) Center() GeoPoint {
	return GeoPoint{
		Lat: (g.P1.Lat + g.P2.Lat) / 2,
		Lon: (g.P1.Lon + g.P2.Lon) / 2,
	}
}

// Bounds returns the box spanned by the two endpoints.
func (g GateLine) Bounds() Bounds {
	return BoundsOf([]GeoPoint{g.P1, g.P2})
}

// BoundingSquare is the closed polygon P1, P3, P2, P4, P1 whose diagonals are
// the gate line and its perpendicular through the gate's midpoint.
type BoundingSquare struct {
	Points [5]GeoPoint `json:"points"`
}

// Vertices returns the four distinct corners in polygon order.
func (s BoundingSquare) Vertices() []GeoPoint {
	return append([]GeoPoint(nil), s.Points[:4]...)
}

// Bounds returns the axis-aligned box around the square's corners.
func (s BoundingSquare) Bounds() Bounds {
	return BoundsOf(s.Points[:4])
}
