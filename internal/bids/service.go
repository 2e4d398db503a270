package bids

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/geo"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SubmitBidInput is a carrier's offer on an open request.
type SubmitBidInput struct {
	RequestID        uuid.UUID
	BidderID         uuid.UUID
	AmountMinor      int64
	EstimatedMinutes int
	ActorRole        enums.ActorRole
}

// Service covers bid submission and the sorted bid board for a request.
type Service interface {
	Submit(ctx context.Context, input SubmitBidInput) (*models.Bid, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Bid, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a bids service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bids repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

func (s *service) Submit(ctx context.Context, input SubmitBidInput) (*models.Bid, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.BidderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid amount must be positive")
	}

	var bid *models.Bid
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery request")
		}
		if request.RequesterID == input.BidderID {
			return pkgerrors.New(pkgerrors.CodeValidation, "cannot bid on own request")
		}
		if request.Status != enums.RequestStatusOpenForBids {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is not open for bids")
		}

		estimated := input.EstimatedMinutes
		if estimated <= 0 && request.PickupPoint != nil && request.DropoffPoint != nil {
			distanceKm := geo.DistanceKm(*request.PickupPoint, *request.DropoffPoint)
			if eta, etaErr := geo.ETAMinutes(distanceKm, request.VehicleClass); etaErr == nil {
				estimated = eta
			}
		}

		created, err := repo.Create(ctx, &models.Bid{
			RequestID:        request.ID,
			BidderID:         input.BidderID,
			AmountMinor:      input.AmountMinor,
			EstimatedMinutes: estimated,
			Status:           enums.BidStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create bid")
		}
		bid = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidSubmitted,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Actor:         &outbox.ActorRef{UserID: input.BidderID, Role: string(enums.ActorRoleCarrier)},
			Data: payloads.BidSubmittedEvent{
				RequestID:   request.ID,
				BidID:       bid.ID,
				BidderID:    bid.BidderID,
				AmountMinor: bid.AmountMinor,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *service) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Bid, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	rows, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bids")
	}
	return rows, nil
}
