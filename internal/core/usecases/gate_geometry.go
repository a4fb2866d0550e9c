package usecases

import (
	"math"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
)

// BuildGateSquare derives the square whose diagonal is the gate line.
//
// The second diagonal passes through the gate's midpoint C with slope
// k = -1/m and the same length L, so its endpoints sit at
// lon = C.lon ± (L/2)/sqrt(1+k²). Each paired latitude follows from the
// quarter-area identity (lat-C.lat)(lon-C.lon) = -(lat1-C.lat)(lon1-C.lon),
// which for this construction reduces to lat = C.lat + k(lon-C.lon).
//
// Points are returned as P1, P3, P2, P4, P1, every coordinate rounded to
// geospatial.CoordinatePrecision. Gates parallel to either axis have no
// finite perpendicular slope and fail with domain.ErrDegenerateGate.
func BuildGateSquare(gate domain.GateLine) (domain.BoundingSquare, error) {
	p1, p2 := gate.P1, gate.P2
	if p1.Lat == p2.Lat || p1.Lon == p2.Lon {
		return domain.BoundingSquare{}, domain.ErrDegenerateGate
	}

	m, err := geospatial.LineSlope(p1.Lat, p1.Lon, p2.Lat, p2.Lon)
	if err != nil {
		return domain.BoundingSquare{}, domain.ErrDegenerateGate
	}
	k := -1 / m

	c := gate.Center()
	half := math.Hypot(p2.Lat-p1.Lat, p2.Lon-p1.Lon) / 2
	dLon := half / math.Sqrt(1+k*k)

	p3 := domain.GeoPoint{Lat: c.Lat + k*dLon, Lon: c.Lon + dLon}
	p4 := domain.GeoPoint{Lat: c.Lat - k*dLon, Lon: c.Lon - dLon}

	r1, r2, r3, r4 := roundPoint(p1), roundPoint(p2), roundPoint(p3), roundPoint(p4)
	return domain.BoundingSquare{Points: [5]domain.GeoPoint{r1, r3, r2, r4, r1}}, nil
}

// SquareSideLengths returns the great-circle length in nautical miles of each
// of the square's four edges, in polygon order.
func SquareSideLengths(square domain.BoundingSquare) []float64 {
	sides := make([]float64, 0, 4)
	for i := 0; i < 4; i++ {
		a, b := square.Points[i], square.Points[i+1]
		sides = append(sides, geospatial.HaversineNM(a.Lat, a.Lon, b.Lat, b.Lon))
	}
	return sides
}

func roundPoint(p domain.GeoPoint) domain.GeoPoint {
	return domain.GeoPoint{Lat: geospatial.Round(p.Lat), Lon: geospatial.Round(p.Lon)}
}
