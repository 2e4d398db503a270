package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/swiftdropng/swiftdrop-backend/api/controllers"
	"github.com/swiftdropng/swiftdrop-backend/api/middleware"
	"github.com/swiftdropng/swiftdrop-backend/internal/address"
	"github.com/swiftdropng/swiftdrop-backend/internal/bids"
	"github.com/swiftdropng/swiftdrop-backend/internal/payments"
	"github.com/swiftdropng/swiftdrop-backend/internal/requests"
	"github.com/swiftdropng/swiftdrop-backend/pkg/config"
	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
	"github.com/swiftdropng/swiftdrop-backend/pkg/redis"
	"github.com/swiftdropng/swiftdrop-backend/pkg/square"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Requests  requests.Service
	Bids      bids.Service
	Payments  payments.Service
	Address   address.Service
	Square    *square.Client
	Limiter   *redis.Client
	Readiness map[string]controllers.Pinger
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	webhookLimit := middleware.RateLimitPolicy{Scope: "webhook-square", Limit: 120, Window: time.Minute}
	bidLimit := middleware.RateLimitPolicy{Scope: "bid-submit", Limit: 30, Window: time.Minute}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.With(middleware.RateLimit(webhookLimit, deps.Limiter, logg)).
			Post("/square", controllers.PaymentWebhook(deps.Payments, deps.Square, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/requests", func(r chi.Router) {
			r.Post("/", controllers.CreateRequest(deps.Requests, logg))
			r.Get("/", controllers.ListRequests(deps.Requests, logg))

			r.Route("/{requestId}", func(r chi.Router) {
				r.Get("/", controllers.RequestDetail(deps.Requests, logg))
				r.Get("/estimate", controllers.EstimateRequest(deps.Requests, logg))

				r.With(
					middleware.RequireRoles(logg, enums.ActorRoleCarrier),
					middleware.RateLimit(bidLimit, deps.Limiter, logg),
				).Post("/bids", controllers.SubmitBid(deps.Bids, logg))
				r.Get("/bids", controllers.ListBids(deps.Bids, logg))

				r.Post("/accept-bid", controllers.AcceptBid(deps.Requests, logg))
				r.Post("/checkout", controllers.Checkout(deps.Payments, logg))
				r.Post("/assign-rider", controllers.AssignRider(deps.Requests, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRoles(logg, enums.ActorRoleCarrier, enums.ActorRoleAdmin))
					r.Post("/pickup-ready", controllers.MarkPickupReady(deps.Requests, logg))
					r.Post("/in-transit", controllers.MarkInTransit(deps.Requests, logg))
					r.Post("/delivered", controllers.MarkDelivered(deps.Requests, logg))
				})

				r.Post("/cancel", controllers.CancelRequest(deps.Requests, logg))
			})
		})

		r.Route("/address", func(r chi.Router) {
			r.Get("/suggest", controllers.SuggestAddress(deps.Address, logg))
			r.Get("/resolve", controllers.ResolveAddress(deps.Address, logg))
		})
	})

	return r
}
