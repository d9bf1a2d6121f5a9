package server

import (
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)
	router.Route("/api", func(r chi.Router) {
		r.Get("/builds", h.ListBuilds)
		r.Get("/domains", h.ListDomains)
		r.Get("/graph", h.GetGraph)
	})
}
