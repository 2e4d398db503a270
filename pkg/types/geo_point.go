package types

// GeoPoint is a WGS84 coordinate pair. Stored as jsonb; requests created while
// the geocoding collaborator is unavailable simply omit it.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are inside the WGS84 envelope.
// Callers must check this before asking the estimator for a distance.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
