package geo

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/nearby/internal/domain"
)

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// Point is a WGS84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// NewPoint builds a Point and validates it.
func NewPoint(lat, lon float64) (Point, error) {
	p := Point{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}

// Validate checks that the point is finite, latitude is in [-90,90] and longitude in [-180,180].
func (p Point) Validate() error {
	if !ValidateCoordinates(p.Lat, p.Lon) {
		return fmt.Errorf("%w: (%v, %v)", domain.ErrInvalidInput, p.Lat, p.Lon)
	}
	return nil
}

// String formats the point as "lat,lon", the form providers accept in query strings.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Haversine returns the great-circle distance in kilometers between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceKm returns the great-circle distance between a and b.
// NaN coordinates yield NaN; callers validate points at the boundary.
func DistanceKm(a, b Point) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
// NaN and infinities fail both range checks.
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
