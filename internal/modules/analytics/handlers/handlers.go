// Package handlers provides HTTP handlers for analytics endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/modules/analytics"
)

// Handler provides HTTP handlers for dashboard aggregates
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", h.HandleSummary)
	})
}

// HandleSummary handles GET /api/analytics/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.service.Summarize()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode analytics summary")
	}
}
