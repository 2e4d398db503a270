package bids

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
)

// Repository defines persistence operations for carrier bids.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	// ListByRequest returns bids cheapest first, earliest first on ties.
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Bid, error)
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error)
}
