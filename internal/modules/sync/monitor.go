package sync

import (
	"context"
	gosync "sync"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/events"
)

// Monitor tracks the binary online/offline state fed by the host
// environment and triggers reconciliation on the offline-to-online edge.
//
// Passes are serialized by a running flag: while one is in flight, new
// triggers are coalesced (dropped), not queued - mutations landing during a
// pass are tagged pending and picked up by the next one. Going offline only
// flips the flag; an in-flight pass is allowed to finish.
type Monitor struct {
	mu       gosync.Mutex
	online   bool
	running  bool
	service  *Service
	eventMgr *events.Manager
	log      zerolog.Logger
}

// NewMonitor creates a connectivity monitor. The initial state is offline
// until the host environment reports otherwise.
func NewMonitor(service *Service, eventMgr *events.Manager, log zerolog.Logger) *Monitor {
	return &Monitor{
		service:  service,
		eventMgr: eventMgr,
		log:      log.With().Str("component", "connectivity_monitor").Logger(),
	}
}

// Online reports the current connectivity state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity edge from the host environment.
// The handler is idempotent: repeating the current state does nothing, and
// two rapid online edges launch at most one reconciliation pass.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.mu.Unlock()

	m.eventMgr.Emit(events.ConnectivityChanged, "sync", map[string]interface{}{
		"online": online,
	})

	if online {
		m.log.Info().Msg("Connectivity restored, scheduling reconciliation")
		m.TriggerSync(ctx)
	} else {
		m.log.Info().Msg("Connectivity lost, mutations will be tagged pending")
	}
}

// TriggerSync schedules one reconciliation pass if none is running.
// Used for the online edge, the periodic retry schedule, and the manual
// retry endpoint. Returns false when the trigger was coalesced into an
// already-running pass.
func (m *Monitor) TriggerSync(ctx context.Context) bool {
	m.mu.Lock()
	if !m.online {
		m.mu.Unlock()
		m.log.Debug().Msg("Sync trigger ignored while offline")
		return false
	}
	if m.running {
		m.mu.Unlock()
		m.log.Debug().Msg("Reconciliation already running, trigger coalesced")
		return false
	}
	m.running = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			m.running = false
			m.mu.Unlock()
		}()

		if err := m.service.Reconcile(ctx); err != nil {
			// The pass aborted without touching the record set; the next
			// connectivity edge or manual trigger retries it.
			m.log.Error().Err(err).Msg("Reconciliation pass failed")
		}
	}()
	return true
}
