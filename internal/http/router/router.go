package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agromarket-dispatch/internal/auth"
	"agromarket-dispatch/internal/http/handlers"
	"agromarket-dispatch/internal/http/middleware"
	"agromarket-dispatch/internal/http/middleware/ratelimit"
	"agromarket-dispatch/internal/logx"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Base        *handlers.Handlers
	Orders      *handlers.OrderHandler
	Dispatch    *handlers.DispatchHandler
	Drivers     *handlers.DriverHandler
	Settlements *handlers.SettlementHandler
	Tokens      *auth.TokenService
	RateLimit   *ratelimit.Middleware
	Logger      logx.Logger
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Second))
	r.Use(middleware.Observability(d.Logger))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(d.Tokens, d.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", d.Orders.Create)
			r.Get("/{id}", d.Orders.GetByID)
			r.Post("/{id}/status", d.Orders.Advance)
		})

		r.Route("/deliveries", func(r chi.Router) {
			// the polling surface carries the rate limit
			r.With(d.RateLimit.Handler()).Get("/open", d.Dispatch.ListOpen)

			r.Post("/{id}/claim", d.Dispatch.Claim)
			r.Post("/{id}/status", d.Dispatch.Advance)
			r.Post("/{id}/confirm", d.Settlements.Confirm)
			r.Post("/{id}/rating", d.Settlements.RateDriver)
			r.Get("/{id}/settlement", d.Settlements.GetSettlement)
		})

		r.Route("/drivers", func(r chi.Router) {
			r.Post("/", d.Drivers.Create)
			r.Get("/", d.Drivers.List)
			r.Get("/{id}", d.Drivers.GetByID)
			r.Patch("/{id}", d.Drivers.Update)
		})
	})

	return r
}
