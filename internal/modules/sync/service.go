package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/events"
	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// Service ties the reconciliation engine, the conflict queue, and the record
// store together. One Reconcile call is one pass: snapshot, compute, commit.
// The connectivity monitor is the only caller and serializes passes.
type Service struct {
	store    *ledger.Store
	engine   *Engine
	queue    *ConflictQueue
	eventMgr *events.Manager
	log      zerolog.Logger

	mu         gosync.RWMutex
	lastResult *PassSummary
}

// PassSummary is the externally visible outcome of the latest pass,
// served on the sync status endpoint.
type PassSummary struct {
	FinishedAt time.Time `json:"finished_at"`
	Promoted   int       `json:"promoted"`
	Adopted    int       `json:"adopted"`
	Conflicted int       `json:"conflicted"`
	Deferred   int       `json:"deferred"`
	Failed     bool      `json:"failed"`
	Error      string    `json:"error,omitempty"`
}

// NewService creates a new sync service
func NewService(store *ledger.Store, engine *Engine, queue *ConflictQueue, eventMgr *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		engine:   engine,
		queue:    queue,
		eventMgr: eventMgr,
		log:      log.With().Str("service", "sync").Logger(),
	}
}

// Queue returns the conflict resolution queue
func (s *Service) Queue() *ConflictQueue {
	return s.queue
}

// LastResult returns the summary of the most recent pass, or nil if none ran yet
func (s *Service) LastResult() *PassSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

func (s *Service) setLastResult(summary *PassSummary) {
	s.mu.Lock()
	s.lastResult = summary
	s.mu.Unlock()
}

// Reconcile runs one reconciliation pass over the current record set.
//
// The pass is atomic: it operates on a snapshot taken at the start, and an
// oracle failure aborts it before anything is committed, leaving the record
// set untouched and the pass safe to retry on the next trigger. Conflicts
// are enqueued only for changes that actually applied; records re-mutated
// while the pass was in flight are deferred to the next pass.
func (s *Service) Reconcile(ctx context.Context) error {
	snapshot := s.store.Snapshot()

	s.eventMgr.Emit(events.SyncStarted, "sync", map[string]interface{}{
		"records": len(snapshot),
	})

	result, err := s.engine.Run(ctx, snapshot)
	if err != nil {
		s.setLastResult(&PassSummary{FinishedAt: time.Now(), Failed: true, Error: err.Error()})
		s.eventMgr.Emit(events.SyncFailed, "sync", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	applied, skipped := s.store.ApplySyncResults(result.Changes)
	for _, change := range applied {
		if entry, ok := result.Conflicts[change.ID]; ok {
			s.queue.Append(entry)
		}
	}

	s.setLastResult(&PassSummary{
		FinishedAt: time.Now(),
		Promoted:   result.Promoted,
		Adopted:    result.Adopted,
		Conflicted: result.Conflicted,
		Deferred:   skipped,
	})

	s.log.Info().
		Int("applied", len(applied)).
		Int("deferred", skipped).
		Int("conflicts", result.Conflicted).
		Msg("Reconciliation pass completed")

	s.eventMgr.Emit(events.SyncCompleted, "sync", map[string]interface{}{
		"promoted":   result.Promoted,
		"adopted":    result.Adopted,
		"conflicted": result.Conflicted,
		"deferred":   skipped,
	})
	return nil
}
