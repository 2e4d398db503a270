package enums

import "fmt"

// RequestStatus is the canonical lifecycle state of a delivery request. It is
// the single source of truth; the legacy multi-field representation is only
// ever produced or consumed by the projection layer.
type RequestStatus string

const (
	RequestStatusCreated          RequestStatus = "created"
	RequestStatusOpenForBids      RequestStatus = "open_for_bids"
	RequestStatusBidAccepted      RequestStatus = "bid_accepted"
	RequestStatusPaymentPending   RequestStatus = "payment_pending"
	RequestStatusPaymentConfirmed RequestStatus = "payment_confirmed"
	RequestStatusRiderAssigned    RequestStatus = "rider_assigned"
	RequestStatusPickupReady      RequestStatus = "pickup_ready"
	RequestStatusInTransit        RequestStatus = "in_transit"
	RequestStatusDelivered        RequestStatus = "delivered"
	RequestStatusCancelled        RequestStatus = "cancelled"
)

var validRequestStatuses = []RequestStatus{
	RequestStatusCreated,
	RequestStatusOpenForBids,
	RequestStatusBidAccepted,
	RequestStatusPaymentPending,
	RequestStatusPaymentConfirmed,
	RequestStatusRiderAssigned,
	RequestStatusPickupReady,
	RequestStatusInTransit,
	RequestStatusDelivered,
	RequestStatusCancelled,
}

// requestStatusRank orders the forward progression. Cancelled sits outside the
// forward order and gets no rank.
var requestStatusRank = map[RequestStatus]int{
	RequestStatusCreated:          0,
	RequestStatusOpenForBids:      1,
	RequestStatusBidAccepted:      2,
	RequestStatusPaymentPending:   3,
	RequestStatusPaymentConfirmed: 4,
	RequestStatusRiderAssigned:    5,
	RequestStatusPickupReady:      6,
	RequestStatusInTransit:        7,
	RequestStatusDelivered:        8,
}

// String implements fmt.Stringer.
func (s RequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RequestStatus.
func (s RequestStatus) IsValid() bool {
	for _, candidate := range validRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusDelivered || s == RequestStatusCancelled
}

// Cancellable reports whether Cancel may still be applied.
func (s RequestStatus) Cancellable() bool {
	return s.IsValid() && !s.Terminal()
}

// AtLeast reports whether the status has progressed to other in the forward
// order. Cancelled never satisfies a forward comparison.
func (s RequestStatus) AtLeast(other RequestStatus) bool {
	rank, ok := requestStatusRank[s]
	if !ok {
		return false
	}
	otherRank, ok := requestStatusRank[other]
	if !ok {
		return false
	}
	return rank >= otherRank
}

// ParseRequestStatus converts raw input into a RequestStatus.
func ParseRequestStatus(value string) (RequestStatus, error) {
	for _, candidate := range validRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid request status %q", value)
}
