package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"vidforge/internal/http/handlers"
	"vidforge/internal/infra"
	"vidforge/internal/middleware"
)

// NewRouter wires the HTTP surface: open health/catalog/webhook
// endpoints plus the authenticated job, credit and admin routes.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger, limiter middleware.Limiter) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(limiter))

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/models", app.ModelsList)
	r.Post("/v1/payments/webhook", app.PaymentsWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Post("/generate", app.Generate)
		r.Get("/status/{id}", app.Status)
		r.Post("/cancel/{id}", app.Cancel)
		r.Delete("/{id}", app.Delete)
		r.Get("/list", app.List)

		r.Get("/v1/credits", app.CreditsGet)

		r.With(middleware.RequireAdmin).Get("/v1/models/all", app.ModelsListAll)
		r.With(middleware.RequireAdmin).Post("/v1/models", app.ModelsCreate)
		r.With(middleware.RequireAdmin).Put("/v1/models/{id}", app.ModelsUpdate)
		r.With(middleware.RequireAdmin).Delete("/v1/models/{id}", app.ModelsDelete)
	})

	return r
}
