// Package handlers provides HTTP handlers for connectivity and sync endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	syncmod "github.com/andrasnemes/ledgerd/internal/modules/sync"
)

// Handler provides HTTP handlers for the sync boundary contract:
// the connectivity edge from the host environment, manual retry, sync
// status, and the conflict peek/resolve pair driven by the UI.
type Handler struct {
	monitor *syncmod.Monitor
	service *syncmod.Service
	log     zerolog.Logger
}

// NewHandler creates a new sync handler
func NewHandler(monitor *syncmod.Monitor, service *syncmod.Service, log zerolog.Logger) *Handler {
	return &Handler{
		monitor: monitor,
		service: service,
		log:     log.With().Str("handler", "sync").Logger(),
	}
}

// RegisterRoutes registers all sync routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/connectivity", h.HandleConnectivity)
	r.Route("/sync", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Post("/trigger", h.HandleTrigger)
	})
	r.Route("/conflicts", func(r chi.Router) {
		r.Get("/next", h.HandlePeek)
		r.Post("/resolve", h.HandleResolve)
	})
}

// HandleConnectivity handles POST /api/connectivity.
// The host environment reports online/offline edges here; the offline-to-
// online edge triggers a reconciliation pass.
func (h *Handler) HandleConnectivity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.monitor.SetOnline(r.Context(), req.Online)
	writeJSON(w, map[string]interface{}{"online": h.monitor.Online()}, h.log)
}

// HandleStatus handles GET /api/sync/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"online":    h.monitor.Online(),
		"conflicts": h.service.Queue().Len(),
		"last_pass": h.service.LastResult(),
	}, h.log)
}

// HandleTrigger handles POST /api/sync/trigger (manual retry).
// Returns whether a new pass was actually scheduled; a trigger landing while
// a pass is running (or while offline) is coalesced.
func (h *Handler) HandleTrigger(w http.ResponseWriter, r *http.Request) {
	scheduled := h.monitor.TriggerSync(r.Context())
	writeJSON(w, map[string]interface{}{"scheduled": scheduled}, h.log)
}

// HandlePeek handles GET /api/conflicts/next.
// Returns the oldest unresolved conflict, or null when the queue is empty.
func (h *Handler) HandlePeek(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.service.Queue().Peek(), h.log)
}

// HandleResolve handles POST /api/conflicts/resolve.
// Resolving with an empty queue is a no-op (duplicate user actions may race
// a UI re-render); an unknown choice value is a client error.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Choice string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resolved, err := h.service.Queue().Resolve(syncmod.Choice(req.Choice))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"resolved":  resolved,
		"remaining": h.service.Queue().Len(),
	}, h.log)
}

// writeJSON encodes v as the JSON response body
func writeJSON(w http.ResponseWriter, v interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
