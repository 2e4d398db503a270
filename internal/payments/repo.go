package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) ConfirmGuarded(ctx context.Context, requestID uuid.UUID, reference string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status = ?", requestID, enums.RequestStatusPaymentPending).
		Updates(map[string]any{
			"status":            enums.RequestStatusPaymentConfirmed,
			"payment_state":     enums.PaymentStateConfirmed,
			"payment_reference": reference,
		})
	return res.RowsAffected, res.Error
}
