package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M15-traffic-settlement-service/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	// Public ingestion surface. Adversarial web clients hit these, so
	// there is no auth and no request-id requirement.
	r.Route("/track", func(r chi.Router) {
		r.Post("/", handler.trackView)
		r.Get("/pixel", handler.trackPixel)
		r.Post("/convert", handler.trackConversion)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireRequestID)
			r.Use(authMiddleware)
			r.Get("/visits/{id}", handler.getVisit)
			r.Get("/payouts", handler.listPayouts)
			r.Get("/payouts/{id}", handler.getPayout)
			r.Post("/payouts/{id}/release", handler.forceReleasePayout)
			r.Post("/payouts/{id}/cancel", handler.cancelPayout)
			r.Post("/payouts/{id}/freeze", handler.freezePayout)
			r.Get("/creators/{creatorId}/balance", handler.getCreatorBalance)
			r.Post("/sweeps/release", handler.runReleaseSweep)
			r.Post("/sweeps/reserves", handler.runReserveSweep)
		})
	})
	return r
}
