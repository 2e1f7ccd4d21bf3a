package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/andrasnemes/ledgerd/internal/database"
)

// SystemHandlers serves host and storage health for the dashboard
type SystemHandlers struct {
	log zerolog.Logger
	db  *database.DB
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(log zerolog.Logger, db *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log: log.With().Str("component", "system_handlers").Logger(),
		db:  db,
	}
}

// HandleSystemHealth handles GET /api/system/health.
// Reports host memory and disk usage plus a local database integrity check.
func (h *SystemHandlers) HandleSystemHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status": "ok",
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response["memory"] = map[string]interface{}{
			"total_mb":     memStat.Total / 1024 / 1024,
			"used_percent": memStat.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	if diskStat, err := disk.Usage(h.db.Path()); err == nil {
		response["disk"] = map[string]interface{}{
			"total_gb":     diskStat.Total / 1024 / 1024 / 1024,
			"free_gb":      diskStat.Free / 1024 / 1024 / 1024,
			"used_percent": diskStat.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	if err := h.db.QuickCheck(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Database integrity check failed")
		response["status"] = "degraded"
		response["database"] = map[string]interface{}{
			"healthy": false,
			"error":   err.Error(),
		}
	} else {
		response["database"] = map[string]interface{}{
			"healthy": true,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}
