package requests

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/fees"
	"github.com/swiftdropng/swiftdrop-backend/pkg/geo"
	"github.com/swiftdropng/swiftdrop-backend/pkg/handoff"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox/payloads"
	"github.com/swiftdropng/swiftdrop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the delivery request lifecycle: creation, estimation, bid
// acceptance, the delivery milestones, and cancellation.
type Service interface {
	Create(ctx context.Context, input CreateRequestInput) (*models.DeliveryRequest, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	List(ctx context.Context, requesterID uuid.UUID, params pagination.Params) (*RequestList, error)
	Estimate(ctx context.Context, id uuid.UUID) (*Estimate, error)
	AcceptBid(ctx context.Context, input AcceptBidInput) (*AcceptBidResult, error)
	AssignRider(ctx context.Context, input AssignRiderInput) error
	MarkPickupReady(ctx context.Context, input ProgressInput) error
	MarkInTransit(ctx context.Context, input ProgressInput) error
	MarkDelivered(ctx context.Context, input ProgressInput) error
	Cancel(ctx context.Context, input CancelInput) error
	ExpireStaleOpen(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds a delivery request service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateRequestInput) (*models.DeliveryRequest, error) {
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.VehicleClass.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid vehicle class %q", input.VehicleClass))
	}
	if strings.TrimSpace(input.PickupAddress) == "" || strings.TrimSpace(input.DropoffAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup and dropoff addresses required")
	}
	if strings.TrimSpace(input.ItemDescription) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item description required")
	}
	if input.PickupPoint != nil && !input.PickupPoint.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup point out of range")
	}
	if input.DropoffPoint != nil && !input.DropoffPoint.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dropoff point out of range")
	}
	if input.WeightKg != nil && input.WeightKg.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}

	request := &models.DeliveryRequest{
		RequesterID:     input.RequesterID,
		VehicleClass:    input.VehicleClass,
		PickupAddress:   strings.TrimSpace(input.PickupAddress),
		PickupPoint:     input.PickupPoint,
		DropoffAddress:  strings.TrimSpace(input.DropoffAddress),
		DropoffPoint:    input.DropoffPoint,
		ItemDescription: strings.TrimSpace(input.ItemDescription),
		WeightKg:        input.WeightKg,
		PickupContact:   input.PickupContact,
		DropoffContact:  input.DropoffContact,
		Status:          enums.RequestStatusOpenForBids,
		PaymentState:    enums.PaymentStateUnpaid,
	}

	distanceKm := geo.DefaultDistanceKm
	if input.PickupPoint != nil && input.DropoffPoint != nil {
		distanceKm = geo.DistanceKm(*input.PickupPoint, *input.DropoffPoint)
	} else {
		s.logg.Warn(ctx, "request created without coordinates, using default distance")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, request)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery request")
		}
		request = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestCreated,
			AggregateType: enums.AggregateDeliveryRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.RequesterID, Role: string(enums.ActorRoleRequester)},
			Data: payloads.RequestCreatedEvent{
				RequestID:    request.ID,
				RequesterID:  request.RequesterID,
				VehicleClass: request.VehicleClass,
				DistanceKm:   distanceKm,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return request, nil
}

func (s *service) GetDetail(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	return request, nil
}

func (s *service) List(ctx context.Context, requesterID uuid.UUID, params pagination.Params) (*RequestList, error) {
	if requesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByRequester(ctx, requesterID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery requests")
	}
	return list, nil
}

// Estimate quotes distance and ETA for a request. When either endpoint lacks
// coordinates the fixed fallback is served and the degradation is logged.
func (s *service) Estimate(ctx context.Context, id uuid.UUID) (*Estimate, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if request.PickupPoint == nil || request.DropoffPoint == nil {
		logCtx := s.logg.WithDeliveryRequestID(ctx, request.ID.String())
		s.logg.Warn(logCtx, "coordinates unavailable, serving default estimate")
		return &Estimate{
			DistanceKm: geo.DefaultDistanceKm,
			EtaWindow:  geo.DefaultETAWindow,
			Degraded:   true,
		}, nil
	}

	distanceKm := geo.DistanceKm(*request.PickupPoint, *request.DropoffPoint)
	etaMinutes, err := geo.ETAMinutes(distanceKm, request.VehicleClass)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "estimate eta")
	}
	return &Estimate{
		DistanceKm: distanceKm,
		EtaMinutes: etaMinutes,
		EtaWindow:  fmt.Sprintf("%d-%d minutes", etaMinutes, etaMinutes+15),
	}, nil
}

// AcceptBid selects the winning bid, freezes the total, and moves the request
// straight to payment_pending. The guarded update decides concurrent callers:
// exactly one wins, a repeat of the winner is a no-op, everyone else conflicts.
func (s *service) AcceptBid(ctx context.Context, input AcceptBidInput) (*AcceptBidResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.BidID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bid id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *AcceptBidResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, input.RequestID)
		if err != nil {
			return mapLoadErr(err)
		}
		if request.RequesterID != input.ActorUserID && input.ActorRole != enums.ActorRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to caller")
		}

		bid, err := repo.FindBid(ctx, input.BidID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "bid not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bid")
		}
		if bid.RequestID != request.ID {
			return pkgerrors.New(pkgerrors.CodeValidation, "bid does not belong to request")
		}
		if bid.Status != enums.BidStatusPending {
			if request.AcceptedBidID != nil && *request.AcceptedBidID == bid.ID {
				result = &AcceptBidResult{
					Request:          request,
					AlreadyAccepted:  true,
					TotalAmountMinor: derefAmount(request.TotalAmountMinor),
				}
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "bid is no longer pending")
		}

		total, err := fees.TotalAmount(bid.AmountMinor)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "compute total")
		}
		pickupCode, dropoffCode, err := handoff.NewCodePair()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate handoff codes")
		}

		affected, err := repo.AcceptBidGuarded(ctx, request.ID, map[string]any{
			"status":             enums.RequestStatusPaymentPending,
			"payment_state":      enums.PaymentStatePending,
			"accepted_bid_id":    bid.ID,
			"total_amount_minor": total,
			"pickup_code":        pickupCode,
			"dropoff_code":       dropoffCode,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept bid")
		}

		if affected == 0 {
			current, err := repo.FindByID(ctx, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload request")
			}
			if current.AcceptedBidID != nil && *current.AcceptedBidID == bid.ID {
				result = &AcceptBidResult{
					Request:          current,
					AlreadyAccepted:  true,
					TotalAmountMinor: derefAmount(current.TotalAmountMinor),
				}
				return nil
			}
			if current.Status == enums.RequestStatusCancelled {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is cancelled")
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "another bid was already accepted")
		}

		if err := repo.MarkBidAccepted(ctx, bid.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark bid accepted")
		}
		if err := repo.RejectSiblingBids(ctx, request.ID, bid.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling bids")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBidAccepted,
			AggregateType: enums.AggregateBid,
			AggregateID:   bid.ID,
			Actor:         actorRef(input.ActorUserID, input.ActorRole),
			Data: payloads.BidAcceptedEvent{
				RequestID:        request.ID,
				BidID:            bid.ID,
				BidderID:         bid.BidderID,
				AmountMinor:      bid.AmountMinor,
				TotalAmountMinor: total,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		current, err := repo.FindByID(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload request")
		}
		result = &AcceptBidResult{
			Request:          current,
			TotalAmountMinor: total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) AssignRider(ctx context.Context, input AssignRiderInput) error {
	if input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.RiderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rider id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateStatusGuarded(ctx,
			input.RequestID,
			enums.RequestStatusPaymentConfirmed,
			enums.RequestStatusRiderAssigned,
			map[string]any{"rider_id": input.RiderID},
		)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign rider")
		}
		if affected == 0 {
			return s.explainStuckTransition(ctx, repo, input.RequestID, enums.RequestStatusPaymentConfirmed, enums.RequestStatusRiderAssigned)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRiderAssigned,
			AggregateType: enums.AggregateDeliveryRequest,
			AggregateID:   input.RequestID,
			Actor:         actorRef(input.ActorUserID, input.ActorRole),
			Data: payloads.RiderAssignedEvent{
				RequestID: input.RequestID,
				RiderID:   input.RiderID,
			},
			Version: 1,
		})
	})
}

func (s *service) MarkPickupReady(ctx context.Context, input ProgressInput) error {
	return s.progress(ctx, input, enums.RequestStatusRiderAssigned, enums.RequestStatusPickupReady, enums.EventRequestPickupReady, nil)
}

func (s *service) MarkInTransit(ctx context.Context, input ProgressInput) error {
	return s.progress(ctx, input, enums.RequestStatusPickupReady, enums.RequestStatusInTransit, enums.EventRequestInTransit, nil)
}

func (s *service) MarkDelivered(ctx context.Context, input ProgressInput) error {
	return s.progress(ctx, input, enums.RequestStatusInTransit, enums.RequestStatusDelivered, enums.EventRequestDelivered, map[string]any{
		"delivered_at": s.now(),
	})
}

// progress applies one strict milestone transition. Replays of an already
// applied milestone are absorbed; anything else is an invalid transition.
func (s *service) progress(ctx context.Context, input ProgressInput, from, to enums.RequestStatus, eventType enums.OutboxEventType, updates map[string]any) error {
	if input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		affected, err := repo.UpdateStatusGuarded(ctx, input.RequestID, from, to, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("move request to %s", to))
		}
		if affected == 0 {
			return s.explainStuckTransition(ctx, repo, input.RequestID, from, to)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateDeliveryRequest,
			AggregateID:   input.RequestID,
			Actor:         actorRef(input.ActorUserID, input.ActorRole),
			Data: payloads.RequestProgressEvent{
				RequestID: input.RequestID,
				Status:    to,
			},
			Version: 1,
		})
	})
}

// Cancel terminates a request from any non-terminal state and rejects every
// bid still pending, freezing the bid set.
func (s *service) Cancel(ctx context.Context, input CancelInput) error {
	if input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindByID(ctx, input.RequestID)
		if err != nil {
			return mapLoadErr(err)
		}
		if request.RequesterID != input.ActorUserID && input.ActorRole != enums.ActorRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to caller")
		}
		if request.Status == enums.RequestStatusCancelled {
			return nil
		}

		cancelledAt := s.now()
		affected, err := repo.CancelGuarded(ctx, request.ID, cancelledAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel request")
		}
		if affected == 0 {
			current, err := repo.FindByID(ctx, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload request")
			}
			if current.Status == enums.RequestStatusCancelled {
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "delivered request cannot be cancelled")
		}

		if _, err := repo.RejectAllPending(ctx, request.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject pending bids")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRequestCanceled,
			AggregateType: enums.AggregateDeliveryRequest,
			AggregateID:   request.ID,
			Actor:         actorRef(input.ActorUserID, input.ActorRole),
			Data: payloads.RequestCanceledEvent{
				RequestID:  request.ID,
				CanceledAt: cancelledAt,
				Reason:     input.Reason,
			},
			Version: 1,
		})
	})
}

// ExpireStaleOpen cancels requests left open for bids past the cutoff and
// rejects their pending bids. Each request is expired in its own transaction
// so one failure does not block the sweep. Returns the number of requests
// expired.
func (s *service) ExpireStaleOpen(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.FindStaleOpen(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find stale requests")
	}

	expired := 0
	for _, request := range stale {
		request := request
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			cancelledAt := s.now()
			affected, err := repo.CancelGuarded(ctx, request.ID, cancelledAt)
			if err != nil {
				return err
			}
			if affected == 0 {
				// raced with an acceptance or a cancel, nothing to do
				return nil
			}
			if _, err := repo.RejectAllPending(ctx, request.ID); err != nil {
				return err
			}
			expired++
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventRequestExpired,
				AggregateType: enums.AggregateDeliveryRequest,
				AggregateID:   request.ID,
				Data: payloads.RequestCanceledEvent{
					RequestID:  request.ID,
					CanceledAt: cancelledAt,
					Reason:     "bidding window expired",
				},
				Version: 1,
			})
		})
		if err != nil {
			return expired, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire request")
		}
	}
	return expired, nil
}

func (s *service) explainStuckTransition(ctx context.Context, repo Repository, requestID uuid.UUID, from, to enums.RequestStatus) error {
	current, err := repo.FindByID(ctx, requestID)
	if err != nil {
		return mapLoadErr(err)
	}
	if current.Status == to {
		return nil
	}
	if current.Status == enums.RequestStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is cancelled")
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition,
		fmt.Sprintf("cannot move from %s to %s", current.Status, to))
}

func mapLoadErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery request")
}

func derefAmount(amount *int64) int64 {
	if amount == nil {
		return 0
	}
	return *amount
}

func actorRef(userID uuid.UUID, role enums.ActorRole) *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: userID}
	if role.IsValid() {
		ref.Role = string(role)
	}
	return ref
}
