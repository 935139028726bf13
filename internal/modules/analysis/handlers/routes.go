// Package handlers provides HTTP handlers for portfolio analysis runs.
package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions/{session}", func(r chi.Router) {
		// Run lifecycle
		r.Post("/runs", h.HandleStartRun)
		r.Get("/run", h.HandleGetRun)
		r.Delete("/run", h.HandleCancelRun)
		r.Get("/run/progress", h.HandleProgressStream)

		// Results of the latest completed run
		r.Get("/frontier", h.HandleGetFrontier)
		r.Get("/statistics", h.HandleGetStatistics)
		r.Get("/allocation", h.HandleGetAllocation)
		r.Get("/histories/{ticker}", h.HandleGetHistory)

		// PNG charts
		r.Get("/charts/{chart}.png", h.HandleGetChart)
	})
}
