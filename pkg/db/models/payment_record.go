package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentRecord stores a confirmed settlement. One row per request, keyed by
// the gateway reference; duplicate callbacks with the same reference are
// absorbed before ever reaching this table.
type PaymentRecord struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID   uuid.UUID `gorm:"column:request_id;type:uuid;not null;uniqueIndex:payment_records_request_id_key"`
	Reference   string    `gorm:"column:reference;not null"`
	AmountMinor int64     `gorm:"column:amount_minor;not null"`
	ConfirmedAt time.Time `gorm:"column:confirmed_at;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
