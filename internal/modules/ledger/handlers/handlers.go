// Package handlers provides HTTP handlers for ledger record management.
package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// Handler provides HTTP handlers for record endpoints
type Handler struct {
	store *ledger.Store
	log   zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(store *ledger.Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "ledger").Logger(),
	}
}

// RegisterRoutes registers all record routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/records", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/export", h.HandleExportCSV)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// recordRequest is the mutation payload accepted from UI and assistant collaborators
type recordRequest struct {
	Name     string    `json:"name"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Comment  string    `json:"comment"`
	Category string    `json:"category"`
}

// HandleList handles GET /api/records
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.List(), h.log)
}

// HandleCreate handles POST /api/records
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record := h.store.Create(ledger.Record{
		Name:     req.Name,
		Amount:   req.Amount,
		Date:     req.Date,
		Comment:  req.Comment,
		Category: req.Category,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode created record")
	}
}

// HandleUpdate handles PUT /api/records/{id}.
// Unknown IDs and records frozen by an unresolved conflict return 409/404-free
// no-op responses: the mutation may be racing a delete or a conflict flag,
// and the client recovers by re-reading the list.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Record id is required", http.StatusBadRequest)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, ok := h.store.Update(ledger.Record{
		ID:       id,
		Name:     req.Name,
		Amount:   req.Amount,
		Date:     req.Date,
		Comment:  req.Comment,
		Category: req.Category,
	})
	if !ok {
		writeJSON(w, map[string]interface{}{"applied": false}, h.log)
		return
	}

	writeJSON(w, record, h.log)
}

// HandleDelete handles DELETE /api/records/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Record id is required", http.StatusBadRequest)
		return
	}

	removed := h.store.Delete(id)
	writeJSON(w, map[string]interface{}{"removed": removed}, h.log)
}

// HandleExportCSV handles GET /api/records/export.
// Streams the full record set as CSV, newest first.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	records := h.store.List()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"id", "name", "amount", "date", "category", "comment", "sync_status"}); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV header")
		return
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Name,
			fmt.Sprintf("%.2f", rec.Amount),
			rec.Date.Format("2006-01-02"),
			rec.Category,
			rec.Comment,
			string(rec.SyncStatus),
		}
		if err := cw.Write(row); err != nil {
			h.log.Error().Err(err).Str("id", rec.ID).Msg("Failed to write CSV row")
			return
		}
	}
}

// writeJSON encodes v as the JSON response body
func writeJSON(w http.ResponseWriter, v interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
