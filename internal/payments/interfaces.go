package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
)

// Repository defines persistence operations for payment settlement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error)
	FindPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRecord, error)
	CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error)
	// ConfirmGuarded settles the request only while payment is pending.
	ConfirmGuarded(ctx context.Context, requestID uuid.UUID, reference string) (int64, error)
}
