package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// String formats the coordinate as "lat,lng"
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Latitude, c.Longitude)
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula. NaN or infinite inputs yield NaN.
func Distance(a, b Coordinate) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// rounding can push h a hair past 1 for antipodal points
	if h > 1 {
		h = 1
	}

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// DistanceFrom returns the distance from origin to target, or 0 when origin is nil.
func DistanceFrom(origin *Coordinate, target Coordinate) float64 {
	if origin == nil {
		return 0
	}
	return Distance(*origin, target)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
