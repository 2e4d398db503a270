package controllers

import (
	"net/http"

	"github.com/swiftdropng/swiftdrop-backend/api/responses"
	"github.com/swiftdropng/swiftdrop-backend/api/validators"
	"github.com/swiftdropng/swiftdrop-backend/internal/bids"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
)

type submitBidBody struct {
	AmountMinor      int64 `json:"amount_minor" validate:"required,gt=0"`
	EstimatedMinutes int   `json:"estimated_minutes,omitempty" validate:"min=0"`
}

// SubmitBid records a carrier's offer on an open request.
func SubmitBid(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
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

		var body submitBidBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bid, err := svc.Submit(r.Context(), bids.SubmitBidInput{
			RequestID:        requestID,
			BidderID:         actorID,
			AmountMinor:      body.AmountMinor,
			EstimatedMinutes: body.EstimatedMinutes,
			ActorRole:        role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, bid)
	}
}

// ListBids returns the bid board for a request, cheapest first.
func ListBids(svc bids.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bids service unavailable"))
			return
		}

		requestID, err := parseRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
