package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ayooluwa21/tikker-backend/internal/observability"
	"github.com/Ayooluwa21/tikker-backend/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, verifier TokenVerifier, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	r.Get("/api/health", h.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)

	r.Get("/api/events", h.ListEvents)
	r.Get("/api/events/{id}", h.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(verifier))

		r.Post("/api/events", h.CreateEvent)
		r.Put("/api/events/{id}", h.UpdateEvent)
		r.Delete("/api/events/{id}", h.DeleteEvent)

		r.With(IdempotencyKeyMiddleware).Post("/api/bookings", h.CreateBooking)
		r.Get("/api/bookings/my-bookings", h.MyBookings)
	})

	return r
}
