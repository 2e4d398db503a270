package controllers

import (
	"net/http"
	"strings"

	"github.com/swiftdropng/swiftdrop-backend/api/responses"
	"github.com/swiftdropng/swiftdrop-backend/internal/address"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
)

// SuggestAddress autocompletes pickup and dropoff addresses.
func SuggestAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions, err := svc.Suggest(r.Context(), address.SuggestRequest{
			Query:    strings.TrimSpace(r.URL.Query().Get("q")),
			Country:  strings.TrimSpace(r.URL.Query().Get("country")),
			Language: strings.TrimSpace(r.URL.Query().Get("language")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}

// ResolveAddress turns a suggestion into a formatted address with coordinates.
func ResolveAddress(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolved, err := svc.Resolve(r.Context(), address.ResolveRequest{
			PlaceID: strings.TrimSpace(r.URL.Query().Get("place_id")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resolved)
	}
}
