// Package geo computes great-circle distances and coarse delivery ETAs.
// Everything here is pure; callers validate coordinates up front and handle
// the no-coordinates fallback themselves (see Default* constants).
package geo

import (
	"fmt"
	"math"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

const earthRadiusKm = 6371.0

// Handling overhead added to every ETA: loading at pickup plus handoff at
// dropoff, independent of distance.
const handlingOverheadMinutes = 20.0

// Fallback values served when neither endpoint could be geocoded. Callers
// must log the degradation; silently substituting these for a computed
// estimate is a bug.
const (
	DefaultDistanceKm = 5.3
	DefaultETAWindow  = "30-45 minutes"
)

// speed table in km/h per vehicle class
var averageSpeedKmh = map[enums.VehicleClass]float64{
	enums.VehicleClassBike:  25,
	enums.VehicleClassTruck: 30,
	enums.VehicleClassVan:   35,
	enums.VehicleClassFuel:  30,
}

// DistanceKm returns the haversine distance between two points, rounded to
// two decimal places. Total over all valid coordinate pairs.
func DistanceKm(origin, destination types.GeoPoint) float64 {
	lat1 := origin.Lat * math.Pi / 180
	lat2 := destination.Lat * math.Pi / 180
	dLat := (destination.Lat - origin.Lat) * math.Pi / 180
	dLng := (destination.Lng - origin.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return math.Round(earthRadiusKm*c*100) / 100
}

// ETAMinutes estimates door-to-door minutes for the given distance and
// vehicle class using the average-speed table plus the fixed handling
// overhead, rounded to the nearest minute.
func ETAMinutes(distanceKm float64, class enums.VehicleClass) (int, error) {
	speed, ok := averageSpeedKmh[class]
	if !ok {
		return 0, fmt.Errorf("no speed profile for vehicle class %q", class)
	}
	minutes := distanceKm/speed*60 + handlingOverheadMinutes
	return int(math.Round(minutes)), nil
}
