// Package projection reconciles the legacy multi-field status representation
// with the canonical request lifecycle. The legacy data model spread lifecycle
// information across parallel status/delivery_status/order_status/
// payment_status columns in two record shapes; read-side consumers go through
// Project so no UI logic ever branches on raw field combinations again.
package projection

import (
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
)

// Legacy string values carried over from the original request shape.
const (
	legacyStatusCreated   = "created"
	legacyStatusOpen      = "open"
	legacyStatusAccepted  = "accepted"
	legacyStatusCancelled = "cancelled"

	legacyPaymentPending   = "pending"
	legacyPaymentConfirmed = "confirmed"
)

// LegacySnapshot is the normalized union of the two legacy record shapes: the
// request-only shape (status + payment_status) and the order shape whose
// delivery_status has been decomposed into cumulative progress flags.
type LegacySnapshot struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	RiderAssigned bool `json:"rider_assigned"`
	PickupReady   bool `json:"pickup_ready"`
	InTransit     bool `json:"in_transit"`
	Completed     bool `json:"completed"`
}

// OrderShape is the second legacy record shape, kept only as an adapter
// input; it is never persisted.
type OrderShape struct {
	OrderStatus    string
	DeliveryStatus string
	PaymentStatus  string
}

// FromOrderShape normalizes the order-shape fields into a LegacySnapshot. An
// order record only ever exists after a bid was accepted, so the request-shape
// status is always "accepted" unless the order was cancelled.
func FromOrderShape(in OrderShape) LegacySnapshot {
	snap := LegacySnapshot{
		Status:        legacyStatusAccepted,
		PaymentStatus: in.PaymentStatus,
	}
	if in.OrderStatus == legacyStatusCancelled || in.DeliveryStatus == legacyStatusCancelled {
		snap.Status = legacyStatusCancelled
		return snap
	}
	switch in.DeliveryStatus {
	case "delivered":
		snap.Completed = true
		fallthrough
	case "in_transit":
		snap.InTransit = true
		fallthrough
	case "pickup_ready":
		snap.PickupReady = true
		fallthrough
	case "rider_assigned":
		snap.RiderAssigned = true
	}
	return snap
}

// Project maps a legacy snapshot onto the canonical lifecycle state. It is
// deterministic and total over every combination the lifecycle can produce;
// anything outside that set is a data-integrity fault and surfaces as
// INCONSISTENT_STATE rather than being coerced.
func Project(snap LegacySnapshot) (enums.RequestStatus, error) {
	if snap.Status == legacyStatusCancelled {
		return enums.RequestStatusCancelled, nil
	}

	switch snap.Status {
	case legacyStatusCreated, legacyStatusOpen:
		if snap.PaymentStatus != "" || snap.anyProgress() {
			return "", inconsistent(snap, "payment or progress recorded before acceptance")
		}
		if snap.Status == legacyStatusCreated {
			return enums.RequestStatusCreated, nil
		}
		return enums.RequestStatusOpenForBids, nil

	case legacyStatusAccepted:
		if snap.PaymentStatus != legacyPaymentConfirmed {
			if snap.anyProgress() {
				return "", inconsistent(snap, "delivery progress recorded before payment confirmation")
			}
			switch snap.PaymentStatus {
			case "":
				return enums.RequestStatusBidAccepted, nil
			case legacyPaymentPending:
				return enums.RequestStatusPaymentPending, nil
			default:
				return "", inconsistent(snap, "unknown payment status")
			}
		}
		return projectProgress(snap)

	default:
		return "", inconsistent(snap, "unknown status")
	}
}

// projectProgress resolves the most progressed true flag. Flags are
// cumulative; a later flag without its predecessors is unreachable.
func projectProgress(snap LegacySnapshot) (enums.RequestStatus, error) {
	if !flagsCumulative(snap) {
		return "", inconsistent(snap, "progress flags are not cumulative")
	}
	switch {
	case snap.Completed:
		return enums.RequestStatusDelivered, nil
	case snap.InTransit:
		return enums.RequestStatusInTransit, nil
	case snap.PickupReady:
		return enums.RequestStatusPickupReady, nil
	case snap.RiderAssigned:
		return enums.RequestStatusRiderAssigned, nil
	default:
		return enums.RequestStatusPaymentConfirmed, nil
	}
}

// Flatten produces the legacy representation of a canonical state, so that
// every reachable state round-trips through Project without loss.
func Flatten(status enums.RequestStatus) (LegacySnapshot, error) {
	switch status {
	case enums.RequestStatusCreated:
		return LegacySnapshot{Status: legacyStatusCreated}, nil
	case enums.RequestStatusOpenForBids:
		return LegacySnapshot{Status: legacyStatusOpen}, nil
	case enums.RequestStatusBidAccepted:
		return LegacySnapshot{Status: legacyStatusAccepted}, nil
	case enums.RequestStatusPaymentPending:
		return LegacySnapshot{Status: legacyStatusAccepted, PaymentStatus: legacyPaymentPending}, nil
	case enums.RequestStatusPaymentConfirmed:
		return LegacySnapshot{Status: legacyStatusAccepted, PaymentStatus: legacyPaymentConfirmed}, nil
	case enums.RequestStatusRiderAssigned:
		return confirmedSnapshot(true, false, false, false), nil
	case enums.RequestStatusPickupReady:
		return confirmedSnapshot(true, true, false, false), nil
	case enums.RequestStatusInTransit:
		return confirmedSnapshot(true, true, true, false), nil
	case enums.RequestStatusDelivered:
		return confirmedSnapshot(true, true, true, true), nil
	case enums.RequestStatusCancelled:
		return LegacySnapshot{Status: legacyStatusCancelled}, nil
	default:
		return LegacySnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown request status")
	}
}

func confirmedSnapshot(rider, pickup, transit, completed bool) LegacySnapshot {
	return LegacySnapshot{
		Status:        legacyStatusAccepted,
		PaymentStatus: legacyPaymentConfirmed,
		RiderAssigned: rider,
		PickupReady:   pickup,
		InTransit:     transit,
		Completed:     completed,
	}
}

func (s LegacySnapshot) anyProgress() bool {
	return s.RiderAssigned || s.PickupReady || s.InTransit || s.Completed
}

// flagsCumulative checks the rider->pickup->transit->completed prefix order.
func flagsCumulative(s LegacySnapshot) bool {
	if s.Completed && !s.InTransit {
		return false
	}
	if s.InTransit && !s.PickupReady {
		return false
	}
	if s.PickupReady && !s.RiderAssigned {
		return false
	}
	return true
}

func inconsistent(snap LegacySnapshot, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInconsistentState, reason).WithDetails(snap)
}
