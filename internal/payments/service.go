package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	"gorm.io/gorm"

	"github.com/swiftdropng/swiftdrop-backend/pkg/db"
	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox"
	"github.com/swiftdropng/swiftdrop-backend/pkg/outbox/payloads"
	"github.com/swiftdropng/swiftdrop-backend/pkg/square"
)

// webhookDedupeTTL bounds the Redis replay guard; the payment_records table
// remains the durable source of truth.
const webhookDedupeTTL = 48 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreatePayment(ctx context.Context, params square.PaymentCreateParams) (*sq.Payment, error)
	NewIdempotencyKey(prefix string) string
	LocationID() string
	Currency() string
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// CheckoutInput starts a gateway charge for a request awaiting payment.
type CheckoutInput struct {
	RequestID   uuid.UUID
	SourceID    string
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// CheckoutResult reports the gateway payment created for the request.
type CheckoutResult struct {
	PaymentID   string `json:"payment_id"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount_minor"`
	Reference   string `json:"reference"`
}

// ConfirmInput settles a request from a gateway callback or manual
// confirmation. Reference is the gateway's payment identifier.
type ConfirmInput struct {
	RequestID   uuid.UUID
	Reference   string
	AmountMinor int64
	ActorUserID uuid.UUID
	ActorRole   enums.ActorRole
}

// ConfirmResult reports whether the call settled the request or replayed an
// earlier settlement.
type ConfirmResult struct {
	AlreadyConfirmed bool `json:"already_confirmed"`
}

// Service handles checkout and idempotent payment confirmation.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	ConfirmPayment(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	gateway paymentGateway
	dedupe  dedupeStore
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a payments service. The dedupe store is optional; without
// it webhook replays are still absorbed by the database guards.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, gateway paymentGateway, dedupe dedupeStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		gateway: gateway,
		dedupe:  dedupe,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	request, err := s.repo.FindRequest(ctx, input.RequestID)
	if err != nil {
		return nil, mapLoadErr(err)
	}
	if request.RequesterID != input.ActorUserID && input.ActorRole != enums.ActorRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to caller")
	}
	if request.Status != enums.RequestStatusPaymentPending {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is not awaiting payment")
	}
	if request.TotalAmountMinor == nil || *request.TotalAmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInconsistentState, "payment pending without a frozen total")
	}

	payment, err := s.gateway.CreatePayment(ctx, square.PaymentCreateParams{
		AmountMinor: *request.TotalAmountMinor,
		Currency:    s.gateway.Currency(),
		LocationID:  s.gateway.LocationID(),
		SourceID:    input.SourceID,
		Note:        fmt.Sprintf("delivery request %s", request.ID),
		ReferenceID: request.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	result := &CheckoutResult{
		PaymentID:   stringValue(payment.GetID()),
		Status:      stringValue(payment.GetStatus()),
		AmountMinor: *request.TotalAmountMinor,
		Reference:   request.ID.String(),
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"delivery_request_id": request.ID.String(),
		"payment_id":          result.PaymentID,
		"amount_minor":        result.AmountMinor,
	})
	s.logg.Info(logCtx, "gateway payment created")
	return result, nil
}

// ConfirmPayment settles a pending request exactly once per reference. A
// replay of the confirmed reference is a no-op; a different reference against
// a settled request is a conflict.
func (s *service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	var dedupeKey string
	if s.dedupe != nil {
		dedupeKey = s.dedupe.IdempotencyKey("payment_webhook", reference)
		fresh, err := s.dedupe.SetNX(ctx, dedupeKey, input.RequestID.String(), webhookDedupeTTL)
		if err != nil {
			s.logg.Warn(ctx, "webhook dedupe store unavailable, relying on database guard")
			dedupeKey = ""
		} else if !fresh {
			return &ConfirmResult{AlreadyConfirmed: true}, nil
		}
	}

	var result *ConfirmResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindRequest(ctx, input.RequestID)
		if err != nil {
			return mapLoadErr(err)
		}
		if request.Status == enums.RequestStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is cancelled")
		}
		if request.PaymentState == enums.PaymentStateConfirmed {
			if request.PaymentReference != nil && *request.PaymentReference == reference {
				result = &ConfirmResult{AlreadyConfirmed: true}
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "request already settled with a different reference")
		}
		if request.Status != enums.RequestStatusPaymentPending {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "request is not awaiting payment")
		}
		if request.TotalAmountMinor == nil {
			return pkgerrors.New(pkgerrors.CodeInconsistentState, "payment pending without a frozen total")
		}
		if input.AmountMinor != *request.TotalAmountMinor {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("settlement amount %d does not match frozen total %d", input.AmountMinor, *request.TotalAmountMinor))
		}

		affected, err := repo.ConfirmGuarded(ctx, request.ID, reference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
		}
		if affected == 0 {
			current, err := repo.FindRequest(ctx, request.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload request")
			}
			if current.PaymentReference != nil && *current.PaymentReference == reference {
				result = &ConfirmResult{AlreadyConfirmed: true}
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "payment raced with another settlement")
		}

		confirmedAt := s.now()
		if _, err := repo.CreatePaymentRecord(ctx, &models.PaymentRecord{
			RequestID:   request.ID,
			Reference:   reference,
			AmountMinor: input.AmountMinor,
			ConfirmedAt: confirmedAt,
		}); err != nil {
			if db.IsUniqueViolation(err, "payment_records_request_id_key") {
				result = &ConfirmResult{AlreadyConfirmed: true}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   request.ID,
			Actor:         confirmActor(input),
			Data: payloads.PaymentConfirmedEvent{
				RequestID:   request.ID,
				Reference:   reference,
				AmountMinor: input.AmountMinor,
				ConfirmedAt: confirmedAt,
			},
			Version: 1,
		}); err != nil {
			return err
		}

		result = &ConfirmResult{}
		return nil
	})
	if err != nil {
		// release the replay guard so the gateway's retry can land
		if dedupeKey != "" {
			if delErr := s.dedupe.Del(ctx, dedupeKey); delErr != nil {
				s.logg.Warn(ctx, "failed to release webhook dedupe key")
			}
		}
		return nil, err
	}
	return result, nil
}

func confirmActor(input ConfirmInput) *outbox.ActorRef {
	if input.ActorUserID == uuid.Nil {
		return nil
	}
	ref := &outbox.ActorRef{UserID: input.ActorUserID}
	if input.ActorRole.IsValid() {
		ref.Role = string(input.ActorRole)
	}
	return ref
}

func mapLoadErr(err error) error {
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery request")
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
