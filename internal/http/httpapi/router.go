package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

func NewRouter(cfg *infra.Config, logger infra.Logger, app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
	)

	// Health
	r.Get("/v1/healthz", app.Health)

	// Provider webhooks carry their own signature check and must not be
	// throttled away from the provider's retry schedule.
	r.Post("/billing/webhook", app.Webhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Post("/generate", app.Generate)

		r.Route("/billing", func(r chi.Router) {
			r.Post("/checkout", app.CheckoutCreate)
			r.Get("/plan", app.Plan)
			r.Post("/cancel", app.CancelSubscription)
		})
	})

	return r
}
