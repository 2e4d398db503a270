// Package payloads defines the data portion of every delivery event emitted
// through the outbox.
package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
)

// RequestCreatedEvent signals a new delivery request opening for bids.
type RequestCreatedEvent struct {
	RequestID    uuid.UUID          `json:"request_id"`
	RequesterID  uuid.UUID          `json:"requester_id"`
	VehicleClass enums.VehicleClass `json:"vehicle_class"`
	DistanceKm   float64            `json:"distance_km"`
}

// BidSubmittedEvent is emitted for every carrier offer.
type BidSubmittedEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	BidID       uuid.UUID `json:"bid_id"`
	BidderID    uuid.UUID `json:"bidder_id"`
	AmountMinor int64     `json:"amount_minor"`
}

// BidAcceptedEvent reports the winning bid and the frozen total.
type BidAcceptedEvent struct {
	RequestID        uuid.UUID `json:"request_id"`
	BidID            uuid.UUID `json:"bid_id"`
	BidderID         uuid.UUID `json:"bidder_id"`
	AmountMinor      int64     `json:"amount_minor"`
	TotalAmountMinor int64     `json:"total_amount_minor"`
}

// PaymentConfirmedEvent is emitted once per settlement reference.
type PaymentConfirmedEvent struct {
	RequestID   uuid.UUID `json:"request_id"`
	Reference   string    `json:"reference"`
	AmountMinor int64     `json:"amount_minor"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// RiderAssignedEvent reports the carrier's rider taking the job.
type RiderAssignedEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	RiderID   uuid.UUID `json:"rider_id"`
}

// RequestProgressEvent covers pickup_ready/in_transit/delivered milestones.
type RequestProgressEvent struct {
	RequestID uuid.UUID           `json:"request_id"`
	Status    enums.RequestStatus `json:"status"`
}

// RequestCanceledEvent is emitted whenever a request is cancelled, by the
// requester or by the expiry sweep.
type RequestCanceledEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	CanceledAt time.Time `json:"canceled_at"`
	Reason     string    `json:"reason,omitempty"`
}
