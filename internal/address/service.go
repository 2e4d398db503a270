package address

import (
	"context"
	"strings"

	"github.com/swiftdropng/swiftdrop-backend/pkg/errors"
	"github.com/swiftdropng/swiftdrop-backend/pkg/maps"
	"github.com/swiftdropng/swiftdrop-backend/pkg/types"
)

// Suggestion is one autocomplete candidate for a pickup or dropoff address.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// SuggestRequest captures the autocomplete inputs.
type SuggestRequest struct {
	Query    string
	Country  string
	Language string
}

// ResolveRequest resolves a selected suggestion into an address and point.
type ResolveRequest struct {
	PlaceID string
}

// ResolvedAddress is the formatted address plus coordinates a delivery
// request stores for estimation.
type ResolvedAddress struct {
	PlaceID          string         `json:"place_id"`
	FormattedAddress string         `json:"formatted_address"`
	Point            types.GeoPoint `json:"point"`
}

type Service interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Resolve(ctx context.Context, req ResolveRequest) (ResolvedAddress, error)
}

type service struct {
	maps *maps.Client
}

func NewService(client *maps.Client) Service {
	return &service{maps: client}
}

func (s *service) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	if s == nil || s.maps == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, errors.New(errors.CodeValidation, "query is required")
	}

	payload := maps.AutocompleteRequest{
		Input: req.Query,
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		payload.IncludedRegionCodes = []string{strings.ToUpper(country)}
	}
	if lang := strings.TrimSpace(req.Language); lang != "" {
		payload.LanguageCode = lang
	}

	resp, err := s.maps.Autocomplete(ctx, payload)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{
			PlaceID:     item.PlaceID,
			Description: item.Description,
		})
	}
	return suggestions, nil
}

func (s *service) Resolve(ctx context.Context, req ResolveRequest) (ResolvedAddress, error) {
	if s == nil || s.maps == nil {
		return ResolvedAddress{}, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(req.PlaceID) == "" {
		return ResolvedAddress{}, errors.New(errors.CodeValidation, "place_id is required")
	}

	details, err := s.maps.ResolvePlace(ctx, req.PlaceID)
	if err != nil {
		return ResolvedAddress{}, err
	}
	return mapPlaceDetails(details)
}

func mapPlaceDetails(details *maps.PlaceDetails) (ResolvedAddress, error) {
	if details == nil {
		return ResolvedAddress{}, errors.New(errors.CodeDependency, "place details missing")
	}
	if strings.TrimSpace(details.FormattedAddress) == "" {
		return ResolvedAddress{}, errors.New(errors.CodeDependency, "formatted address missing")
	}
	point := types.GeoPoint{
		Lat: details.Location.Latitude,
		Lng: details.Location.Longitude,
	}
	if (point.Lat == 0 && point.Lng == 0) || !point.Valid() {
		return ResolvedAddress{}, errors.New(errors.CodeDependency, "place location missing")
	}
	return ResolvedAddress{
		PlaceID:          details.PlaceID,
		FormattedAddress: details.FormattedAddress,
		Point:            point,
	}, nil
}
