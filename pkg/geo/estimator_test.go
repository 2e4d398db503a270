package geo

import (
	"math"
	"testing"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

var (
	ikeja       = types.GeoPoint{Lat: 6.5244, Lng: 3.3792}
	lagosIsland = types.GeoPoint{Lat: 6.4281, Lng: 3.4219}
)

func TestDistanceSymmetry(t *testing.T) {
	forward := DistanceKm(ikeja, lagosIsland)
	backward := DistanceKm(lagosIsland, ikeja)
	if forward != backward {
		t.Fatalf("distance not symmetric: %v vs %v", forward, backward)
	}
}

func TestDistanceIdentity(t *testing.T) {
	points := []types.GeoPoint{
		{},
		ikeja,
		{Lat: -90, Lng: 180},
		{Lat: 51.5007, Lng: -0.1246},
	}
	for _, p := range points {
		if d := DistanceKm(p, p); d != 0 {
			t.Fatalf("distance(p, p) = %v, want 0", d)
		}
	}
}

func TestDistanceLagosFixture(t *testing.T) {
	d := DistanceKm(ikeja, lagosIsland)
	// Haversine with R=6371 gives ~11.7 km for these two points.
	if d < 11 || d > 12.5 {
		t.Fatalf("unexpected distance %v km", d)
	}
	if math.Round(d*100)/100 != d {
		t.Fatalf("distance %v not rounded to 2 decimals", d)
	}
}

func TestETAFollowsSpeedTable(t *testing.T) {
	cases := []struct {
		class enums.VehicleClass
		speed float64
	}{
		{enums.VehicleClassBike, 25},
		{enums.VehicleClassTruck, 30},
		{enums.VehicleClassVan, 35},
		{enums.VehicleClassFuel, 30},
	}
	d := DistanceKm(ikeja, lagosIsland)
	for _, tc := range cases {
		got, err := ETAMinutes(d, tc.class)
		if err != nil {
			t.Fatalf("%s: %v", tc.class, err)
		}
		want := int(math.Round(d/tc.speed*60 + 20))
		if got != want {
			t.Fatalf("%s: eta = %d, want %d", tc.class, got, want)
		}
	}
}

func TestETAUnknownClass(t *testing.T) {
	if _, err := ETAMinutes(10, enums.VehicleClass("hoverboard")); err == nil {
		t.Fatal("expected error for unknown vehicle class")
	}
}

func TestETAZeroDistanceIsOverheadOnly(t *testing.T) {
	got, err := ETAMinutes(0, enums.VehicleClassBike)
	if err != nil {
		t.Fatal(err)
	}
	if got != 20 {
		t.Fatalf("expected handling overhead 20, got %d", got)
	}
}
