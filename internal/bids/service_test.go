package bids

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

type stubBidsRepo struct {
	request *models.DeliveryRequest
	bids    []models.Bid

	create      func(ctx context.Context, bid *models.Bid) (*models.Bid, error)
	findRequest func(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error)
}

func (s *stubBidsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubBidsRepo) Create(ctx context.Context, bid *models.Bid) (*models.Bid, error) {
	if s.create != nil {
		return s.create(ctx, bid)
	}
	if bid.ID == uuid.Nil {
		bid.ID = uuid.New()
	}
	s.bids = append(s.bids, *bid)
	return bid, nil
}

func (s *stubBidsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	for i := range s.bids {
		if s.bids[i].ID == id {
			return &s.bids[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBidsRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Bid, error) {
	return s.bids, nil
}

func (s *stubBidsRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	if s.findRequest != nil {
		return s.findRequest(ctx, requestID)
	}
	if s.request == nil || s.request.ID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.request
	return &copied, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func openRequest() *models.DeliveryRequest {
	return &models.DeliveryRequest{
		ID:              uuid.New(),
		RequesterID:     uuid.New(),
		VehicleClass:    enums.VehicleClassBike,
		PickupAddress:   "12 Allen Ave, Ikeja",
		DropoffAddress:  "3 Broad St, Lagos Island",
		ItemDescription: "documents",
		Status:          enums.RequestStatusOpenForBids,
		PaymentState:    enums.PaymentStateUnpaid,
	}
}

func newTestService(t *testing.T, repo Repository, sink *recordingOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, sink)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSubmitCreatesPendingBidAndEmits(t *testing.T) {
	request := openRequest()
	repo := &stubBidsRepo{request: request}
	sink := &recordingOutbox{}
	svc := newTestService(t, repo, sink)

	bid, err := svc.Submit(context.Background(), SubmitBidInput{
		RequestID:   request.ID,
		BidderID:    uuid.New(),
		AmountMinor: 1500,
		ActorRole:   enums.ActorRoleCarrier,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if bid.Status != enums.BidStatusPending {
		t.Fatalf("status = %s, want pending", bid.Status)
	}
	if bid.AmountMinor != 1500 {
		t.Fatalf("amount = %d, want 1500", bid.AmountMinor)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventBidSubmitted {
		t.Fatalf("expected one bid_submitted event, got %+v", sink.events)
	}
}

func TestSubmitFillsEstimateFromCoordinates(t *testing.T) {
	request := openRequest()
	request.PickupPoint = &types.GeoPoint{Lat: 6.5244, Lng: 3.3792}
	request.DropoffPoint = &types.GeoPoint{Lat: 6.4281, Lng: 3.4219}
	repo := &stubBidsRepo{request: request}
	svc := newTestService(t, repo, &recordingOutbox{})

	bid, err := svc.Submit(context.Background(), SubmitBidInput{
		RequestID:   request.ID,
		BidderID:    uuid.New(),
		AmountMinor: 1500,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if bid.EstimatedMinutes <= 20 {
		t.Fatalf("estimated minutes = %d, expected travel time plus handling overhead", bid.EstimatedMinutes)
	}
}

func TestSubmitRejectsNonPositiveAmount(t *testing.T) {
	request := openRequest()
	svc := newTestService(t, &stubBidsRepo{request: request}, &recordingOutbox{})

	for _, amount := range []int64{0, -500} {
		_, err := svc.Submit(context.Background(), SubmitBidInput{
			RequestID:   request.ID,
			BidderID:    uuid.New(),
			AmountMinor: amount,
		})
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("amount %d: err = %v, want validation", amount, err)
		}
	}
}

func TestSubmitRejectsClosedRequest(t *testing.T) {
	for _, status := range []enums.RequestStatus{
		enums.RequestStatusPaymentPending,
		enums.RequestStatusCancelled,
		enums.RequestStatusDelivered,
	} {
		request := openRequest()
		request.Status = status
		svc := newTestService(t, &stubBidsRepo{request: request}, &recordingOutbox{})

		_, err := svc.Submit(context.Background(), SubmitBidInput{
			RequestID:   request.ID,
			BidderID:    uuid.New(),
			AmountMinor: 1500,
		})
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidTransition {
			t.Fatalf("status %s: err = %v, want invalid transition", status, err)
		}
	}
}

func TestSubmitRejectsOwnRequest(t *testing.T) {
	request := openRequest()
	svc := newTestService(t, &stubBidsRepo{request: request}, &recordingOutbox{})

	_, err := svc.Submit(context.Background(), SubmitBidInput{
		RequestID:   request.ID,
		BidderID:    request.RequesterID,
		AmountMinor: 1500,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestSubmitUnknownRequestNotFound(t *testing.T) {
	svc := newTestService(t, &stubBidsRepo{}, &recordingOutbox{})

	_, err := svc.Submit(context.Background(), SubmitBidInput{
		RequestID:   uuid.New(),
		BidderID:    uuid.New(),
		AmountMinor: 1500,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}
