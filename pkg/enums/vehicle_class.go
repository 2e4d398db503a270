package enums

import "fmt"

// VehicleClass is the carrier vehicle category a requester books.
type VehicleClass string

const (
	VehicleClassBike  VehicleClass = "bike"
	VehicleClassTruck VehicleClass = "truck"
	VehicleClassVan   VehicleClass = "van"
	VehicleClassFuel  VehicleClass = "fuel"
)

var validVehicleClasses = []VehicleClass{
	VehicleClassBike,
	VehicleClassTruck,
	VehicleClassVan,
	VehicleClassFuel,
}

// String implements fmt.Stringer.
func (v VehicleClass) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleClass.
func (v VehicleClass) IsValid() bool {
	for _, candidate := range validVehicleClasses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleClass converts raw input into a VehicleClass.
func ParseVehicleClass(value string) (VehicleClass, error) {
	for _, candidate := range validVehicleClasses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle class %q", value)
}
