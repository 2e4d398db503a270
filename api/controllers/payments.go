package controllers

import (
	"net/http"

	"github.com/swiftdropng/swiftdrop-backend/api/responses"
	"github.com/swiftdropng/swiftdrop-backend/api/validators"
	"github.com/swiftdropng/swiftdrop-backend/internal/payments"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
)

type checkoutBody struct {
	SourceID string `json:"source_id" validate:"required"`
}

// Checkout charges the frozen total for a request awaiting payment.
func Checkout(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		actorID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		requestID, err := parseRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), payments.CheckoutInput{
			RequestID:   requestID,
			SourceID:    body.SourceID,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
