package types

// Contact is the person reachable at a pickup or dropoff point.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
