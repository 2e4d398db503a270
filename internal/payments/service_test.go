package payments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/square"
)

type stubPaymentsRepo struct {
	request *models.DeliveryRequest
	records []models.PaymentRecord

	confirmGuarded func(ctx context.Context, requestID uuid.UUID, reference string) (int64, error)
}

func (s *stubPaymentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPaymentsRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.DeliveryRequest, error) {
	if s.request == nil || s.request.ID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.request
	return &copied, nil
}

func (s *stubPaymentsRepo) FindPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRecord, error) {
	for i := range s.records {
		if s.records[i].RequestID == requestID {
			return &s.records[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentsRepo) CreatePaymentRecord(ctx context.Context, record *models.PaymentRecord) (*models.PaymentRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.records = append(s.records, *record)
	return record, nil
}

func (s *stubPaymentsRepo) ConfirmGuarded(ctx context.Context, requestID uuid.UUID, reference string) (int64, error) {
	if s.confirmGuarded != nil {
		return s.confirmGuarded(ctx, requestID, reference)
	}
	if s.request == nil || s.request.ID != requestID || s.request.Status != enums.RequestStatusPaymentPending {
		return 0, nil
	}
	s.request.Status = enums.RequestStatusPaymentConfirmed
	s.request.PaymentState = enums.PaymentStateConfirmed
	s.request.PaymentReference = &reference
	return 1, nil
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

type stubGateway struct {
	lastParams square.PaymentCreateParams
	err        error
}

func (s *stubGateway) CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastParams = params
	id := "PAY123"
	status := "COMPLETED"
	return &sq.Payment{ID: &id, Status: &status}, nil
}

func (s *stubGateway) NewIdempotencyKey(prefix string) string { return prefix + "-key" }
func (s *stubGateway) LocationID() string                     { return "LOC1" }
func (s *stubGateway) Currency() string                       { return "NGN" }

type stubDedupe struct {
	keys    map[string]bool
	deleted []string
	err     error
}

func (s *stubDedupe) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubDedupe) IdempotencyKey(scope, id string) string { return scope + ":" + id }

func (s *stubDedupe) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func pendingRequest(total int64) *models.DeliveryRequest {
	bidID := uuid.New()
	return &models.DeliveryRequest{
		ID:               uuid.New(),
		RequesterID:      uuid.New(),
		VehicleClass:     enums.VehicleClassBike,
		PickupAddress:    "a",
		DropoffAddress:   "b",
		ItemDescription:  "c",
		Status:           enums.RequestStatusPaymentPending,
		PaymentState:     enums.PaymentStatePending,
		AcceptedBidID:    &bidID,
		TotalAmountMinor: &total,
	}
}

func newTestService(t *testing.T, repo Repository, sink *recordingOutbox, gateway paymentGateway, dedupe dedupeStore) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, sink, gateway, dedupe, testLogger())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestCheckoutChargesFrozenTotal(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	gateway := &stubGateway{}
	svc := newTestService(t, repo, &recordingOutbox{}, gateway, &stubDedupe{})

	result, err := svc.Checkout(context.Background(), CheckoutInput{
		RequestID:   request.ID,
		SourceID:    "cnon:card-nonce",
		ActorUserID: request.RequesterID,
		ActorRole:   enums.ActorRoleRequester,
	})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if result.AmountMinor != 2700 {
		t.Fatalf("amount = %d, want 2700", result.AmountMinor)
	}
	if result.PaymentID != "PAY123" {
		t.Fatalf("payment id = %q", result.PaymentID)
	}
	if gateway.lastParams.AmountMinor != 2700 {
		t.Fatalf("gateway charged %d, want 2700", gateway.lastParams.AmountMinor)
	}
	if gateway.lastParams.ReferenceID != request.ID.String() {
		t.Fatalf("reference = %q, want request id", gateway.lastParams.ReferenceID)
	}
}

func TestCheckoutRequiresPaymentPending(t *testing.T) {
	request := pendingRequest(2700)
	request.Status = enums.RequestStatusOpenForBids
	request.PaymentState = enums.PaymentStateUnpaid
	repo := &stubPaymentsRepo{request: request}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, &stubDedupe{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		RequestID:   request.ID,
		SourceID:    "cnon:card-nonce",
		ActorUserID: request.RequesterID,
		ActorRole:   enums.ActorRoleRequester,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestCheckoutForeignRequestForbidden(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, &stubDedupe{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		RequestID:   request.ID,
		SourceID:    "cnon:card-nonce",
		ActorUserID: uuid.New(),
		ActorRole:   enums.ActorRoleRequester,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestConfirmPaymentSettlesOnce(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	sink := &recordingOutbox{}
	svc := newTestService(t, repo, sink, &stubGateway{}, &stubDedupe{})

	result, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY123",
		AmountMinor: 2700,
	})
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if result.AlreadyConfirmed {
		t.Fatal("first confirmation flagged as replay")
	}
	if request.Status != enums.RequestStatusPaymentConfirmed {
		t.Fatalf("status = %s, want payment_confirmed", request.Status)
	}
	if request.PaymentState != enums.PaymentStateConfirmed {
		t.Fatalf("payment state = %s, want confirmed", request.PaymentState)
	}
	if len(repo.records) != 1 || repo.records[0].Reference != "PAY123" {
		t.Fatalf("payment record not written: %+v", repo.records)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventPaymentConfirmed {
		t.Fatalf("expected one payment_confirmed event, got %+v", sink.events)
	}
}

func TestConfirmPaymentReplayIsNoOp(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	sink := &recordingOutbox{}
	svc := newTestService(t, repo, sink, &stubGateway{}, nil)

	first, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY123",
		AmountMinor: 2700,
	})
	if err != nil || first.AlreadyConfirmed {
		t.Fatalf("first confirm: %v %+v", err, first)
	}

	second, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY123",
		AmountMinor: 2700,
	})
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if !second.AlreadyConfirmed {
		t.Fatal("replay not flagged as already confirmed")
	}
	if len(repo.records) != 1 {
		t.Fatalf("replay wrote a second record: %+v", repo.records)
	}
	if len(sink.events) != 1 {
		t.Fatalf("replay emitted an extra event: %+v", sink.events)
	}
}

func TestConfirmPaymentReplayShortCircuitsViaDedupe(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	dedupe := &stubDedupe{}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, dedupe)

	input := ConfirmInput{RequestID: request.ID, Reference: "PAY123", AmountMinor: 2700}
	if _, err := svc.ConfirmPayment(context.Background(), input); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	result, err := svc.ConfirmPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("replay confirm: %v", err)
	}
	if !result.AlreadyConfirmed {
		t.Fatal("dedupe store did not absorb the replay")
	}
}

func TestConfirmPaymentDifferentReferenceConflicts(t *testing.T) {
	request := pendingRequest(2700)
	reference := "PAY123"
	request.Status = enums.RequestStatusPaymentConfirmed
	request.PaymentState = enums.PaymentStateConfirmed
	request.PaymentReference = &reference
	repo := &stubPaymentsRepo{request: request}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, nil)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY999",
		AmountMinor: 2700,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestConfirmPaymentAmountMismatchConflicts(t *testing.T) {
	request := pendingRequest(2700)
	repo := &stubPaymentsRepo{request: request}
	dedupe := &stubDedupe{}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, dedupe)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY123",
		AmountMinor: 1500,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	// failed settlement must release the replay guard for the gateway retry
	if len(dedupe.deleted) != 1 {
		t.Fatalf("dedupe key not released: %+v", dedupe.deleted)
	}
}

func TestConfirmPaymentOnCancelledRequestRejected(t *testing.T) {
	request := pendingRequest(2700)
	request.Status = enums.RequestStatusCancelled
	repo := &stubPaymentsRepo{request: request}
	svc := newTestService(t, repo, &recordingOutbox{}, &stubGateway{}, nil)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmInput{
		RequestID:   request.ID,
		Reference:   "PAY123",
		AmountMinor: 2700,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}
