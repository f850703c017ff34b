package domain

import "math"

const (
	// EarthRadiusKm is the fixed mean Earth radius used for box derivation.
	EarthRadiusKm = 6371.0

	// MaxGeoResults caps every proximity search.
	MaxGeoResults = 50

	// below this cos(lat) the longitude delta is treated as unbounded
	poleEpsilon = 1e-9
)

// BoundingBox is a rectangular latitude/longitude pre-filter.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLng float64 `json:"max_lng"`
}

// NewBoundingBox derives the box around (lat, lng) for radiusKm:
//
//	latDelta = radiusKm/6371 * 180/π
//	lngDelta = latDelta / cos(lat·π/180)
//
// Near the poles lngDelta diverges, so a box that reaches a pole spans every
// longitude and its latitude bounds are clamped to [-90, 90]. Boxes crossing
// the antimeridian keep their raw longitudes.
func NewBoundingBox(lat, lng, radiusKm float64) BoundingBox {
	latDelta := (radiusKm / EarthRadiusKm) * (180 / math.Pi)

	box := BoundingBox{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(lat)+latDelta >= 90 || cosLat < poleEpsilon {
		box.MinLng, box.MaxLng = -180, 180
		return box
	}

	lngDelta := latDelta / cosLat
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ApproxDistance is the Manhattan distance in degree space between two points.
// It is a ranking proxy, not a geodesic distance.
func ApproxDistance(lat1, lng1, lat2, lng2 float64) float64 {
	return math.Abs(lat1-lat2) + math.Abs(lng1-lng2)
}

// GeoSearchRequest describes a proximity search.
type GeoSearchRequest struct {
	Latitude          float64
	Longitude         float64
	RadiusKm          float64
	ServiceCategories []string
}

// Validate checks coordinate ranges and a positive radius.
func (r GeoSearchRequest) Validate() error {
	switch {
	case math.IsNaN(r.Latitude) || r.Latitude < -90 || r.Latitude > 90:
		return NewValidationError("latitude", "must be between -90 and 90")
	case math.IsNaN(r.Longitude) || r.Longitude < -180 || r.Longitude > 180:
		return NewValidationError("longitude", "must be between -180 and 180")
	case math.IsNaN(r.RadiusKm) || r.RadiusKm <= 0:
		return NewValidationError("radius_km", "must be positive")
	}
	return nil
}

// Box returns the request's bounding box.
func (r GeoSearchRequest) Box() BoundingBox {
	return NewBoundingBox(r.Latitude, r.Longitude, r.RadiusKm)
}
