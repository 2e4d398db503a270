package requests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/internal/projection"
	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery request repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.DeliveryRequest) (*models.DeliveryRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	err := r.db.WithContext(ctx).
		Preload("Bids", func(db *gorm.DB) *gorm.DB {
			return db.Order("amount_minor ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByRequester(ctx context.Context, requesterID uuid.UUID, params pagination.Params) (*RequestList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.DeliveryRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &RequestList{Requests: make([]RequestSummary, 0, len(rows))}
	if len(rows) > limit {
		last := rows[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rows = rows[:limit]
	}
	for _, row := range rows {
		summary := RequestSummary{
			ID:               row.ID,
			VehicleClass:     row.VehicleClass,
			PickupAddress:    row.PickupAddress,
			DropoffAddress:   row.DropoffAddress,
			Status:           row.Status,
			PaymentState:     row.PaymentState,
			TotalAmountMinor: row.TotalAmountMinor,
			CreatedAt:        row.CreatedAt,
		}
		if legacy, err := projection.Flatten(row.Status); err == nil {
			summary.Legacy = &legacy
		}
		list.Requests = append(list.Requests, summary)
	}
	return list, nil
}

func (r *repository) FindBid(ctx context.Context, bidID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	err := r.db.WithContext(ctx).
		Where("id = ?", bidID).
		First(&bid).Error
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

// AcceptBidGuarded applies the acceptance updates only while the request is
// still open and unclaimed. Concurrent winners are decided by RowsAffected.
func (r *repository) AcceptBidGuarded(ctx context.Context, requestID uuid.UUID, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status = ? AND accepted_bid_id IS NULL", requestID, enums.RequestStatusOpenForBids).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, requestID uuid.UUID, from, to enums.RequestStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status = ?", requestID, from).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CancelGuarded moves any non-terminal request to cancelled.
func (r *repository) CancelGuarded(ctx context.Context, requestID uuid.UUID, cancelledAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status NOT IN ?", requestID, []enums.RequestStatus{
			enums.RequestStatusDelivered,
			enums.RequestStatusCancelled,
		}).
		Updates(map[string]any{
			"status":       enums.RequestStatusCancelled,
			"cancelled_at": cancelledAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) MarkBidAccepted(ctx context.Context, bidID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("id = ?", bidID).
		Update("status", enums.BidStatusAccepted).Error
}

func (r *repository) RejectSiblingBids(ctx context.Context, requestID, acceptedBidID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, acceptedBidID, enums.BidStatusPending).
		Update("status", enums.BidStatusRejected).Error
}

// RejectAllPending freezes a cancelled request's bids by marking every bid
// still pending as rejected. Bids already accepted or rejected keep their
// state.
func (r *repository) RejectAllPending(ctx context.Context, requestID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Bid{}).
		Where("request_id = ? AND status = ?", requestID, enums.BidStatusPending).
		Update("status", enums.BidStatusRejected)
	return res.RowsAffected, res.Error
}

func (r *repository) FindStaleOpen(ctx context.Context, cutoff time.Time, limit int) ([]models.DeliveryRequest, error) {
	var rows []models.DeliveryRequest
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.RequestStatusOpenForBids, cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
