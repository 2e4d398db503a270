package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/swiftdropng/swiftdrop-backend/api/responses"
	"github.com/swiftdropng/swiftdrop-backend/internal/payments"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
)

type webhookSigner interface {
	SigningSecret() string
}

// paymentWebhookEvent mirrors the slice of Square's payment.updated payload
// the settlement flow needs.
type paymentWebhookEvent struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Data    struct {
		ID     string `json:"id"`
		Object struct {
			Payment struct {
				ID          string `json:"id"`
				Status      string `json:"status"`
				ReferenceID string `json:"reference_id"`
				AmountMoney struct {
					Amount   int64  `json:"amount"`
					Currency string `json:"currency"`
				} `json:"amount_money"`
			} `json:"payment"`
		} `json:"object"`
	} `json:"data"`
}

// PaymentWebhook settles delivery requests from gateway payment callbacks.
// Replays are absorbed by the payments service, so the handler stays thin:
// verify, decode, confirm.
func PaymentWebhook(svc payments.Service, signer webhookSigner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		if signer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "gateway client unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Square-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "square signature missing"))
			return
		}
		if !validatePaymentSignature(payload, signer.SigningSecret(), sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square signature"))
			return
		}

		var event paymentWebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode event"))
			return
		}

		payment := event.Data.Object.Payment
		if !strings.EqualFold(payment.Status, "COMPLETED") {
			if logg != nil {
				logCtx := logg.WithFields(ctx, map[string]any{
					"event_id":       event.EventID,
					"payment_status": payment.Status,
				})
				logg.Info(logCtx, "payment event ignored")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		requestID, err := uuid.Parse(strings.TrimSpace(payment.ReferenceID))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment reference"))
			return
		}

		result, err := svc.ConfirmPayment(ctx, payments.ConfirmInput{
			RequestID:   requestID,
			Reference:   payment.ID,
			AmountMinor: payment.AmountMoney.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logCtx := logg.WithFields(ctx, map[string]any{
				"event_id":            event.EventID,
				"delivery_request_id": requestID.String(),
				"already_confirmed":   result.AlreadyConfirmed,
			})
			logg.Info(logCtx, "payment event processed")
		}
		responses.WriteSuccess(w, result)
	}
}

func validatePaymentSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
