package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swiftdropng/swiftdrop-backend/api/middleware"
	"github.com/swiftdropng/swiftdrop-backend/api/responses"
	"github.com/swiftdropng/swiftdrop-backend/api/validators"
	"github.com/swiftdropng/swiftdrop-backend/internal/requests"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/pagination"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

type geoPointBody struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type contactBody struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required,e164"`
}

type createRequestBody struct {
	VehicleClass    string        `json:"vehicle_class" validate:"required"`
	PickupAddress   string        `json:"pickup_address" validate:"required"`
	PickupPoint     *geoPointBody `json:"pickup_point,omitempty"`
	DropoffAddress  string        `json:"dropoff_address" validate:"required"`
	DropoffPoint    *geoPointBody `json:"dropoff_point,omitempty"`
	ItemDescription string        `json:"item_description" validate:"required"`
	WeightKg        *string       `json:"weight_kg,omitempty"`
	PickupContact   contactBody   `json:"pickup_contact" validate:"required"`
	DropoffContact  contactBody   `json:"dropoff_contact" validate:"required"`
}

type acceptBidBody struct {
	BidID string `json:"bid_id" validate:"required,uuid"`
}

type assignRiderBody struct {
	RiderID string `json:"rider_id" validate:"required,uuid"`
}

type cancelRequestBody struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// CreateRequest posts a new delivery request and opens it for bids.
func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicleClass, err := enums.ParseVehicleClass(body.VehicleClass)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vehicle class"))
			return
		}

		input := requests.CreateRequestInput{
			RequesterID:     actorID,
			VehicleClass:    vehicleClass,
			PickupAddress:   body.PickupAddress,
			DropoffAddress:  body.DropoffAddress,
			ItemDescription: body.ItemDescription,
			PickupContact:   types.Contact{Name: body.PickupContact.Name, Phone: body.PickupContact.Phone},
			DropoffContact:  types.Contact{Name: body.DropoffContact.Name, Phone: body.DropoffContact.Phone},
		}
		if body.PickupPoint != nil {
			input.PickupPoint = &types.GeoPoint{Lat: body.PickupPoint.Lat, Lng: body.PickupPoint.Lng}
		}
		if body.DropoffPoint != nil {
			input.DropoffPoint = &types.GeoPoint{Lat: body.DropoffPoint.Lat, Lng: body.DropoffPoint.Lng}
		}
		if body.WeightKg != nil {
			weight, err := decimal.NewFromString(*body.WeightKg)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight"))
				return
			}
			input.WeightKg = &weight
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ListRequests pages through the caller's delivery requests.
func ListRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// RequestDetail returns the request with its sorted bid board.
func RequestDetail(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := parseRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetDetail(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// EstimateRequest quotes distance and ETA for a request.
func EstimateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := parseRequestID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		estimate, err := svc.Estimate(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}

// AcceptBid picks the winning bid for a request.
func AcceptBid(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		var body acceptBidBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bidID, err := uuid.Parse(body.BidID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bid id"))
			return
		}

		result, err := svc.AcceptBid(r.Context(), requests.AcceptBidInput{
			RequestID:   requestID,
			BidID:       bidID,
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

// AssignRider attaches a rider to a paid request.
func AssignRider(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		var body assignRiderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		riderID, err := uuid.Parse(body.RiderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rider id"))
			return
		}

		if err := svc.AssignRider(r.Context(), requests.AssignRiderInput{
			RequestID:   requestID,
			RiderID:     riderID,
			ActorUserID: actorID,
			ActorRole:   role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// MarkPickupReady, MarkInTransit and MarkDelivered advance the delivery
// milestones in strict order.
func MarkPickupReady(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return progressHandler(svc.MarkPickupReady, logg)
}

func MarkInTransit(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return progressHandler(svc.MarkInTransit, logg)
}

func MarkDelivered(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return progressHandler(svc.MarkDelivered, logg)
}

func progressHandler(op func(ctx context.Context, input requests.ProgressInput) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
		if err := op(r.Context(), requests.ProgressInput{
			RequestID:   requestID,
			ActorUserID: actorID,
			ActorRole:   role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// CancelRequest terminates a request before delivery.
func CancelRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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

		var body cancelRequestBody
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if err := svc.Cancel(r.Context(), requests.CancelInput{
			RequestID:   requestID,
			ActorUserID: actorID,
			ActorRole:   role,
			Reason:      body.Reason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, enums.ActorRole, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	role := enums.ActorRole(middleware.RoleFromContext(r.Context()))
	return actorID, role, nil
}

func parseRequestID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "requestId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	requestID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id")
	}
	return requestID, nil
}
