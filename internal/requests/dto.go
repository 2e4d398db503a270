package requests

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swiftdropng/swiftdrop-backend/internal/projection"
	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

// CreateRequestInput captures everything a requester supplies when posting a
// delivery job. Points are optional; the estimator degrades without them.
type CreateRequestInput struct {
	RequesterID     uuid.UUID
	VehicleClass    enums.VehicleClass
	PickupAddress   string
	PickupPoint     *types.GeoPoint
	DropoffAddress  string
	DropoffPoint    *types.GeoPoint
	ItemDescription string
	WeightKg        *decimal.Decimal
	PickupContact   types.Contact
	DropoffContact  types.Contact
}

// Estimate is the distance/ETA quote returned for a request. Degraded marks
// the fixed fallback served when coordinates are missing.
type Estimate struct {
	DistanceKm float64 `json:"distance_km"`
	EtaMinutes int     `json:"eta_minutes,omitempty"`
	EtaWindow  string  `json:"eta_window"`
	Degraded   bool    `json:"degraded,omitempty"`
}

// RequestSummary is the list-view projection of a delivery request. Legacy
// carries the flattened multi-field status shape for clients that predate the
// canonical lifecycle.
type RequestSummary struct {
	ID               uuid.UUID                  `json:"id"`
	VehicleClass     enums.VehicleClass         `json:"vehicle_class"`
	PickupAddress    string                     `json:"pickup_address"`
	DropoffAddress   string                     `json:"dropoff_address"`
	Status           enums.RequestStatus        `json:"status"`
	PaymentState     enums.PaymentState         `json:"payment_state"`
	TotalAmountMinor *int64                     `json:"total_amount_minor,omitempty"`
	Legacy           *projection.LegacySnapshot `json:"legacy,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// RequestList wraps paginated requests plus the next page cursor.
type RequestList struct {
	Requests   []RequestSummary `json:"requests"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// AcceptBidInput carries the requester's choice of winning bid.
type AcceptBidInput struct {
	RequestID   uuid.UUID
	BidID       uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// AcceptBidResult reports the post-acceptance request. AlreadyAccepted is set
// when the same bid had been accepted before and the call became a no-op.
type AcceptBidResult struct {
	Request          *models.DeliveryRequest
	AlreadyAccepted  bool
	TotalAmountMinor int64
}

// AssignRiderInput names the rider taking a paid request.
type AssignRiderInput struct {
	RequestID   uuid.UUID
	RiderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ProgressInput advances a request through the delivery milestones.
type ProgressInput struct {
	RequestID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// CancelInput terminates a request before delivery.
type CancelInput struct {
	RequestID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
	Reason      string
}
