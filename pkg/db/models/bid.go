package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
)

// Bid is a carrier's offer to fulfil a delivery request at a stated price and
// estimated time. Bids become immutable once their request leaves
// open_for_bids.
type Bid struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID        uuid.UUID       `gorm:"column:request_id;type:uuid;not null;index"`
	BidderID         uuid.UUID       `gorm:"column:bidder_id;type:uuid;not null"`
	AmountMinor      int64           `gorm:"column:amount_minor;not null"`
	EstimatedMinutes int             `gorm:"column:estimated_minutes;not null"`
	Status           enums.BidStatus `gorm:"column:status;type:bid_status;not null;default:'pending'"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
