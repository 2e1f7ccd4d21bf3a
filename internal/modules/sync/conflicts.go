package sync

import (
	"fmt"
	gosync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/events"
	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// Choice selects which version of a conflicted record wins.
type Choice string

const (
	ChoiceLocal  Choice = "local"
	ChoiceRemote Choice = "remote"
)

// ConflictQueue holds detected conflicts in arrival order and exposes a
// one-at-a-time resolution operation. The queue stores copies; resolving an
// entry mutates the record store's canonical copy, never the other way
// around. Entries accumulate across reconciliation passes until drained.
type ConflictQueue struct {
	mu       gosync.Mutex
	entries  []ConflictEntry
	store    *ledger.Store
	eventMgr *events.Manager
	now      func() time.Time
	log      zerolog.Logger
}

// NewConflictQueue creates a new conflict resolution queue
func NewConflictQueue(store *ledger.Store, eventMgr *events.Manager, log zerolog.Logger) *ConflictQueue {
	return &ConflictQueue{
		entries:  []ConflictEntry{},
		store:    store,
		eventMgr: eventMgr,
		now:      time.Now,
		log:      log.With().Str("component", "conflict_queue").Logger(),
	}
}

// SetClock overrides the time source (used by tests)
func (q *ConflictQueue) SetClock(now func() time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.now = now
}

// Append adds a detected conflict to the back of the queue
func (q *ConflictQueue) Append(entry ConflictEntry) {
	q.mu.Lock()
	q.entries = append(q.entries, entry)
	size := len(q.entries)
	q.mu.Unlock()

	q.eventMgr.Emit(events.ConflictDetected, "sync", map[string]interface{}{
		"id":         entry.Local.ID,
		"queue_size": size,
	})
}

// Peek returns the oldest unresolved entry, or nil when the queue is empty
func (q *ConflictQueue) Peek() *ConflictEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return nil
	}
	entry := q.entries[0]
	return &entry
}

// Len returns the number of unresolved conflicts
func (q *ConflictQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Resolve commits the user's choice for the oldest conflict and removes it
// from the queue. A 'local' choice keeps the local field values and stamps
// LastModified now; a 'remote' choice adopts the server version and keeps
// the server's modification time (preserving provenance). Either way the
// record returns to synced status.
//
// Resolving an empty queue is a no-op, not an error: the user action may be
// racing a UI re-render.
func (q *ConflictQueue) Resolve(choice Choice) (*ledger.Record, error) {
	if choice != ChoiceLocal && choice != ChoiceRemote {
		return nil, fmt.Errorf("unknown resolution choice %q", choice)
	}

	q.mu.Lock()
	if len(q.entries) == 0 {
		q.mu.Unlock()
		q.log.Debug().Msg("Resolve called on empty queue, ignoring")
		return nil, nil
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	now := q.now()
	q.mu.Unlock()

	var resolved ledger.Record
	if choice == ChoiceLocal {
		resolved = entry.Local.Clone()
		resolved.LastModified = now
	} else {
		resolved = entry.Remote.Clone()
		resolved.ID = entry.Local.ID
	}

	if !q.store.ApplyResolution(resolved) {
		// The record was deleted while the conflict sat in the queue; the
		// entry is still consumed.
		q.log.Warn().Str("id", resolved.ID).Msg("Resolved conflict for a record that no longer exists")
	}

	q.eventMgr.Emit(events.ConflictResolved, "sync", map[string]interface{}{
		"id":     resolved.ID,
		"choice": string(choice),
	})
	return &resolved, nil
}
