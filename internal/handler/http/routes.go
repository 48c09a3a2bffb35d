package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	if h.metrics != nil {
		router.Handle("/metrics", h.metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(h.withTraceID, h.withLogging)

		r.Get("/version", h.getVersion)

		r.Get("/gossip", h.getGossip)
		r.Put("/gossip", h.putGossip)

		r.Get("/tracking", h.getTracking)
		r.Get("/devices/{userID}", h.getDevices)
		r.Put("/devices/{userID}/{deviceID}/verified", h.putDeviceVerified)
		r.Put("/devices/{userID}/{deviceID}/blocked", h.putDeviceBlocked)

		r.Get("/requests", h.getRequests)
		r.Get("/audit", h.getAudit)
	})

	return router
}
