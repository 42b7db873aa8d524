package kernel

import (
	"errors"
	"fmt"
	"math"

	"mensajero/internal/pkg/errs"
	"mensajero/internal/pkg/guard"
)

const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// EarthRadiusMeters is the spherical Earth radius used by the haversine formula.
	EarthRadiusMeters = 6371000.0
)

// ErrGeoPointIsNotConstructed is returned when a zero-value GeoPoint is used.
var ErrGeoPointIsNotConstructed = errs.NewValueIsRequiredError("geo point must be created via NewGeoPoint constructor")

// GeoPoint is an immutable latitude/longitude pair in decimal degrees.
// The zero value is invalid; use NewGeoPoint.
//
// Example:
//
//	pickup, err := kernel.NewGeoPoint(23.1136, -82.3666)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pickup) // GeoPoint(23.113600,-82.366600)
type GeoPoint struct { //nolint:recvcheck //using for validation
	lat   float64
	lon   float64
	guard guard.ConstructorGuard
}

// NewGeoPoint validates and creates a GeoPoint. Latitude must be within
// [MinLatitude..MaxLatitude] and longitude within [MinLongitude..MaxLongitude].
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(p.setLatitude(lat), p.setLongitude(lon)); err != nil {
		return GeoPoint{}, err
	}

	return p, nil
}

// Validate reports whether the point was built by NewGeoPoint.
func (p GeoPoint) Validate() error {
	return p.guard.Validate(ErrGeoPointIsNotConstructed)
}

// Latitude returns the latitude in decimal degrees.
func (p GeoPoint) Latitude() float64 {
	return p.lat
}

// Longitude returns the longitude in decimal degrees.
func (p GeoPoint) Longitude() float64 {
	return p.lon
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%f,%f)", p.lat, p.lon)
}

// IsEqual compares coordinates of two constructed points.
func (p GeoPoint) IsEqual(other GeoPoint) (bool, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return p.lat == other.lat && p.lon == other.lon, nil
}

// DistanceTo returns the great-circle distance in meters between p and other,
// using the haversine formula on a sphere of radius EarthRadiusMeters:
//
//	a = sin²(Δφ/2) + cos(φ1)·cos(φ2)·sin²(Δλ/2)
//	c = 2·atan2(√a, √(1-a))
//	d = R·c
//
// The result is symmetric and 0 for identical points.
func (p GeoPoint) DistanceTo(other GeoPoint) (float64, error) {
	if err := errors.Join(p.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	phi1 := radians(p.lat)
	phi2 := radians(other.lat)
	dPhi := radians(other.lat - p.lat)
	dLambda := radians(other.lon - p.lon)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c, nil
}

func (p *GeoPoint) setLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", lat, MinLatitude, MaxLatitude)
	}

	p.lat = lat
	return nil
}

func (p *GeoPoint) setLongitude(lon float64) error {
	if math.IsNaN(lon) || lon < MinLongitude || lon > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", lon, MinLongitude, MaxLongitude)
	}

	p.lon = lon
	return nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
