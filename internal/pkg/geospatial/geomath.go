package geospatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	earthRadiusKm = 6371.0
	kmPerNM       = 1.852

	// CoordinatePrecision is the number of decimals kept for every derived
	// coordinate and converted angle.
	CoordinatePrecision = 6
)

// ErrVerticalLine is returned when a slope is requested for a line whose
// endpoints share the same longitude.
var ErrVerticalLine = errors.New("geospatial: slope undefined for vertical line")

var precisionScale = math.Pow10(CoordinatePrecision)

// Round rounds v to CoordinatePrecision decimals.
func Round(v float64) float64 {
	return math.Round(v*precisionScale) / precisionScale
}

// DegreesToDecimal converts a sexagesimal angle into decimal degrees.
// Omitted components are passed as zero.
func DegreesToDecimal(degree, minute, second float64) float64 {
	return Round(degree + minute/60 + second/3600)
}

// ParseAngle parses "deg", "deg:min" or "deg:min:sec" into decimal degrees.
// A leading minus sign applies to the whole angle.
func ParseAngle(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse angle: empty value")
	}

	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse angle %q: too many components", s)
	}

	var comp [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("parse angle %q: %w", s, err)
		}
		comp[i] = v
	}

	return sign * DegreesToDecimal(comp[0], comp[1], comp[2]), nil
}

// LineSlope returns the latitude-over-longitude slope of the line through
// two points.
func LineSlope(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if lon1 == lon2 {
		return 0, ErrVerticalLine
	}
	return (lat2 - lat1) / (lon2 - lon1), nil
}

// LineBearing returns the undirected orientation of a line with the given
// slope, in [0, 180). Reciprocal directions collapse to the same value.
func LineBearing(slope float64) float64 {
	deg := math.Atan(slope) * 180 / math.Pi
	return math.Mod(deg+180, 180)
}

// HaversineNM calculates the great-circle distance in nautical miles between
// two points.
func HaversineNM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c / kmPerNM
}

// NormalizeCourse maps any angle onto [0, 360).
func NormalizeCourse(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
