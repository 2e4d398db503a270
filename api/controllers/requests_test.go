package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/swiftdropng/swiftdrop-backend/api/middleware"
	"github.com/swiftdropng/swiftdrop-backend/internal/requests"
	"github.com/swiftdropng/swiftdrop-backend/pkg/db/models"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/pagination"
)

type testRequestsService struct {
	createFn    func(ctx context.Context, input requests.CreateRequestInput) (*models.DeliveryRequest, error)
	acceptBidFn func(ctx context.Context, input requests.AcceptBidInput) (*requests.AcceptBidResult, error)
	cancelFn    func(ctx context.Context, input requests.CancelInput) error
	estimateFn  func(ctx context.Context, id uuid.UUID) (*requests.Estimate, error)
	progressFn  func(ctx context.Context, input requests.ProgressInput) error
}

func (s *testRequestsService) Create(ctx context.Context, input requests.CreateRequestInput) (*models.DeliveryRequest, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.DeliveryRequest{ID: uuid.New()}, nil
}

func (s *testRequestsService) Get(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	return &models.DeliveryRequest{ID: id}, nil
}

func (s *testRequestsService) GetDetail(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	return &models.DeliveryRequest{ID: id}, nil
}

func (s *testRequestsService) List(ctx context.Context, requesterID uuid.UUID, params pagination.Params) (*requests.RequestList, error) {
	return &requests.RequestList{}, nil
}

func (s *testRequestsService) Estimate(ctx context.Context, id uuid.UUID) (*requests.Estimate, error) {
	if s.estimateFn != nil {
		return s.estimateFn(ctx, id)
	}
	return &requests.Estimate{}, nil
}

func (s *testRequestsService) AcceptBid(ctx context.Context, input requests.AcceptBidInput) (*requests.AcceptBidResult, error) {
	if s.acceptBidFn != nil {
		return s.acceptBidFn(ctx, input)
	}
	return &requests.AcceptBidResult{}, nil
}

func (s *testRequestsService) AssignRider(ctx context.Context, input requests.AssignRiderInput) error {
	return nil
}

func (s *testRequestsService) MarkPickupReady(ctx context.Context, input requests.ProgressInput) error {
	if s.progressFn != nil {
		return s.progressFn(ctx, input)
	}
	return nil
}

func (s *testRequestsService) MarkInTransit(ctx context.Context, input requests.ProgressInput) error {
	if s.progressFn != nil {
		return s.progressFn(ctx, input)
	}
	return nil
}

func (s *testRequestsService) MarkDelivered(ctx context.Context, input requests.ProgressInput) error {
	if s.progressFn != nil {
		return s.progressFn(ctx, input)
	}
	return nil
}

func (s *testRequestsService) Cancel(ctx context.Context, input requests.CancelInput) error {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return nil
}

func (s *testRequestsService) ExpireStaleOpen(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	return 0, nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string, userID uuid.UUID, role enums.ActorRole) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateRequestSuccess(t *testing.T) {
	requesterID := uuid.New()
	var captured requests.CreateRequestInput
	svc := &testRequestsService{
		createFn: func(ctx context.Context, input requests.CreateRequestInput) (*models.DeliveryRequest, error) {
			captured = input
			return &models.DeliveryRequest{ID: uuid.New(), RequesterID: input.RequesterID}, nil
		},
	}

	body := `{
		"vehicle_class": "bike",
		"pickup_address": "12 Marina Rd, Lagos Island",
		"pickup_point": {"lat": 6.5244, "lng": 3.3792},
		"dropoff_address": "4 Admiralty Way, Lekki",
		"dropoff_point": {"lat": 6.4281, "lng": 3.4219},
		"item_description": "Documents",
		"pickup_contact": {"name": "Ada", "phone": "+2348000000001"},
		"dropoff_contact": {"name": "Bayo", "phone": "+2348000000002"}
	}`
	req := authedRequest(http.MethodPost, "/api/v1/requests", body, requesterID, enums.ActorRoleRequester)
	resp := httptest.NewRecorder()

	CreateRequest(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.RequesterID != requesterID {
		t.Fatalf("unexpected requester %s", captured.RequesterID)
	}
	if captured.VehicleClass != enums.VehicleClassBike {
		t.Fatalf("unexpected vehicle class %s", captured.VehicleClass)
	}
	if captured.PickupPoint == nil || captured.PickupPoint.Lat != 6.5244 {
		t.Fatalf("pickup point not mapped: %+v", captured.PickupPoint)
	}
}

func TestCreateRequestRejectsUnknownVehicleClass(t *testing.T) {
	body := `{
		"vehicle_class": "hoverboard",
		"pickup_address": "a",
		"dropoff_address": "b",
		"item_description": "c",
		"pickup_contact": {"name": "Ada", "phone": "+2348000000001"},
		"dropoff_contact": {"name": "Bayo", "phone": "+2348000000002"}
	}`
	req := authedRequest(http.MethodPost, "/api/v1/requests", body, uuid.New(), enums.ActorRoleRequester)
	resp := httptest.NewRecorder()

	CreateRequest(&testRequestsService{}, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateRequestRejectsMalformedPhone(t *testing.T) {
	var called bool
	svc := &testRequestsService{
		createFn: func(ctx context.Context, input requests.CreateRequestInput) (*models.DeliveryRequest, error) {
			called = true
			return &models.DeliveryRequest{}, nil
		},
	}
	body := `{
		"vehicle_class": "bike",
		"pickup_address": "12 Marina Rd, Lagos Island",
		"dropoff_address": "4 Admiralty Way, Lekki",
		"item_description": "Documents",
		"pickup_contact": {"name": "Ada", "phone": "0801234567"},
		"dropoff_contact": {"name": "Bayo", "phone": "+2348000000002"}
	}`
	req := authedRequest(http.MethodPost, "/api/v1/requests", body, uuid.New(), enums.ActorRoleRequester)
	resp := httptest.NewRecorder()

	CreateRequest(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
	if called {
		t.Fatal("service called with malformed phone")
	}
	if !strings.Contains(resp.Body.String(), "international format") {
		t.Fatalf("unexpected error body: %s", resp.Body.String())
	}
}

func TestCreateRequestMissingIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/requests", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	CreateRequest(&testRequestsService{}, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAcceptBidPassesActorAndBid(t *testing.T) {
	requesterID := uuid.New()
	requestID := uuid.New()
	bidID := uuid.New()
	var captured requests.AcceptBidInput
	svc := &testRequestsService{
		acceptBidFn: func(ctx context.Context, input requests.AcceptBidInput) (*requests.AcceptBidResult, error) {
			captured = input
			return &requests.AcceptBidResult{TotalAmountMinor: 2700}, nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/requests/"+requestID.String()+"/accept-bid",
		`{"bid_id": "`+bidID.String()+`"}`, requesterID, enums.ActorRoleRequester)
	req = addRouteParam(req, "requestId", requestID.String())
	resp := httptest.NewRecorder()

	AcceptBid(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if captured.RequestID != requestID || captured.BidID != bidID {
		t.Fatalf("unexpected input %+v", captured)
	}
	if captured.ActorUserID != requesterID || captured.ActorRole != enums.ActorRoleRequester {
		t.Fatalf("actor not propagated: %+v", captured)
	}
}

func TestAcceptBidRejectsMalformedBidID(t *testing.T) {
	requestID := uuid.New()
	req := authedRequest(http.MethodPost, "/api/v1/requests/"+requestID.String()+"/accept-bid",
		`{"bid_id": "not-a-uuid"}`, uuid.New(), enums.ActorRoleRequester)
	req = addRouteParam(req, "requestId", requestID.String())
	resp := httptest.NewRecorder()

	AcceptBid(&testRequestsService{}, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelRequestAllowsEmptyBody(t *testing.T) {
	requestID := uuid.New()
	called := false
	svc := &testRequestsService{
		cancelFn: func(ctx context.Context, input requests.CancelInput) error {
			called = true
			if input.Reason != "" {
				t.Fatalf("unexpected reason %q", input.Reason)
			}
			return nil
		},
	}

	req := authedRequest(http.MethodPost, "/api/v1/requests/"+requestID.String()+"/cancel", "", uuid.New(), enums.ActorRoleRequester)
	req = addRouteParam(req, "requestId", requestID.String())
	resp := httptest.NewRecorder()

	CancelRequest(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected cancel called")
	}
}

func TestMilestoneRejectsMalformedRequestID(t *testing.T) {
	req := authedRequest(http.MethodPost, "/api/v1/requests/bad/in-transit", "", uuid.New(), enums.ActorRoleCarrier)
	req = addRouteParam(req, "requestId", "bad")
	resp := httptest.NewRecorder()

	MarkInTransit(&testRequestsService{}, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestEstimateRequestReturnsQuote(t *testing.T) {
	requestID := uuid.New()
	svc := &testRequestsService{
		estimateFn: func(ctx context.Context, id uuid.UUID) (*requests.Estimate, error) {
			if id != requestID {
				t.Fatalf("unexpected id %s", id)
			}
			return &requests.Estimate{DistanceKm: 12.08, EtaMinutes: 49, EtaWindow: "49-64 minutes"}, nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/v1/requests/"+requestID.String()+"/estimate", "", uuid.New(), enums.ActorRoleRequester)
	req = addRouteParam(req, "requestId", requestID.String())
	resp := httptest.NewRecorder()

	EstimateRequest(svc, controllerTestLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data requests.Estimate `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.DistanceKm != 12.08 {
		t.Fatalf("unexpected distance %v", envelope.Data.DistanceKm)
	}
}
