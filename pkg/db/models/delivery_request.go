package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

// DeliveryRequest is a delivery job posted by a requester. The request owns
// its canonical lifecycle status and its set of bids; only the lifecycle and
// bid services may write status, payment, or acceptance fields.
type DeliveryRequest struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID  uuid.UUID          `gorm:"column:requester_id;type:uuid;not null"`
	VehicleClass enums.VehicleClass `gorm:"column:vehicle_class;type:vehicle_class;not null"`

	PickupAddress  string          `gorm:"column:pickup_address;not null"`
	PickupPoint    *types.GeoPoint `gorm:"column:pickup_point;type:jsonb;serializer:json"`
	DropoffAddress string          `gorm:"column:dropoff_address;not null"`
	DropoffPoint   *types.GeoPoint `gorm:"column:dropoff_point;type:jsonb;serializer:json"`

	ItemDescription string           `gorm:"column:item_description;not null"`
	WeightKg        *decimal.Decimal `gorm:"column:weight_kg;type:numeric(8,2)"`

	PickupContact  types.Contact `gorm:"column:pickup_contact;type:jsonb;serializer:json"`
	DropoffContact types.Contact `gorm:"column:dropoff_contact;type:jsonb;serializer:json"`

	Status       enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:'created'"`
	PaymentState enums.PaymentState  `gorm:"column:payment_state;type:payment_state;not null;default:'unpaid'"`

	// Set exactly once, in the same transaction that accepts a bid.
	AcceptedBidID    *uuid.UUID `gorm:"column:accepted_bid_id;type:uuid"`
	PickupCode       *string    `gorm:"column:pickup_code"`
	DropoffCode      *string    `gorm:"column:dropoff_code"`
	TotalAmountMinor *int64     `gorm:"column:total_amount_minor"`

	RiderID          *uuid.UUID `gorm:"column:rider_id;type:uuid"`
	PaymentReference *string    `gorm:"column:payment_reference"`
	DeliveredAt      *time.Time `gorm:"column:delivered_at"`
	CancelledAt      *time.Time `gorm:"column:cancelled_at"`

	Bids []Bid `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
