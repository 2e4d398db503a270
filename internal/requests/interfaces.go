package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/pagination"
)

// Repository defines persistence operations for delivery requests, plus the
// bid writes that must share a transaction with bid acceptance.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.DeliveryRequest) (*models.DeliveryRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, params pagination.Params) (*RequestList, error)
	FindBid(ctx context.Context, bidID uuid.UUID) (*models.Bid, error)
	AcceptBidGuarded(ctx context.Context, requestID uuid.UUID, updates map[string]any) (int64, error)
	UpdateStatusGuarded(ctx context.Context, requestID uuid.UUID, from, to enums.RequestStatus, updates map[string]any) (int64, error)
	CancelGuarded(ctx context.Context, requestID uuid.UUID, cancelledAt time.Time) (int64, error)
	MarkBidAccepted(ctx context.Context, bidID uuid.UUID) error
	RejectSiblingBids(ctx context.Context, requestID, acceptedBidID uuid.UUID) error
	RejectAllPending(ctx context.Context, requestID uuid.UUID) (int64, error)
	FindStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.DeliveryRequest, error)
}
