package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/events"
)

// OnlineFunc reports whether the application currently has connectivity.
// Wired to the connectivity monitor; the store uses it only to decide how
// a mutation is tagged (synced immediately vs. pending upload).
type OnlineFunc func() bool

// Change is one reconciliation outcome for a single record. The engine
// computes changes against a snapshot; SnapshotLastModified carries the
// LastModified the record had when the snapshot was taken, so the store can
// detect records re-mutated while the pass was in flight and leave them for
// the next pass.
type Change struct {
	ID                   string
	NewRecord            Record
	SnapshotLastModified time.Time
}

// Store is the single source of truth for the local record set.
//
// All mutations go through Create/Update/Delete; the reconciliation engine
// commits its outcome through ApplySyncResults and conflict resolution
// through ApplyResolution. Nothing else mutates records. Every accepted
// mutation persists the full set wholesale into the snapshot slot; a
// persistence failure keeps the in-memory set authoritative for the session
// and is surfaced as a STORAGE_WRITE_FAILED event, never retried.
type Store struct {
	mu        sync.Mutex
	records   []Record
	snapshots *SnapshotRepository
	eventMgr  *events.Manager
	online    OnlineFunc
	now       func() time.Time
	log       zerolog.Logger
}

// NewStore creates a new record store
func NewStore(snapshots *SnapshotRepository, eventMgr *events.Manager, online OnlineFunc, log zerolog.Logger) *Store {
	return &Store{
		records:   []Record{},
		snapshots: snapshots,
		eventMgr:  eventMgr,
		online:    online,
		now:       time.Now,
		log:       log.With().Str("component", "record_store").Logger(),
	}
}

// SetClock overrides the time source (used by tests for deterministic tagging)
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// LoadFromDisk restores the record set from the snapshot slot.
// Called once on startup, before any mutation is accepted.
func (s *Store) LoadFromDisk() error {
	records, err := s.snapshots.Load(RecordsSlot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	s.log.Info().Int("records", len(records)).Msg("Record set restored from disk")
	return nil
}

// Create accepts a new record. An empty ID is assigned a fresh UUID.
// Creation is always accepted; there are no error conditions.
func (s *Store) Create(record Record) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = now
	record = Tag(record, s.online(), now)

	// Newest first, matching the display order the UI expects.
	s.records = append([]Record{record}, s.records...)
	s.persistLocked()

	s.eventMgr.Emit(events.RecordCreated, "ledger", map[string]interface{}{
		"id":          record.ID,
		"sync_status": string(record.SyncStatus),
	})
	return record
}

// Update replaces the record with a matching ID.
// Unknown IDs are a no-op (the caller may be racing a prior delete).
// Records in conflict status are frozen until resolved and are not updated.
func (s *Store) Update(record Record) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(record.ID)
	if idx < 0 {
		s.log.Debug().Str("id", record.ID).Msg("Update for unknown record ignored")
		return Record{}, false
	}

	existing := s.records[idx]
	if existing.SyncStatus == StatusConflict {
		s.log.Warn().Str("id", record.ID).Msg("Update rejected: record has an unresolved conflict")
		return existing, false
	}

	// Identity and provenance fields are immutable.
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if record.LastModified.Before(existing.LastModified) {
		record.LastModified = existing.LastModified
	}
	record = Tag(record, s.online(), s.now())

	s.records[idx] = record
	s.persistLocked()

	s.eventMgr.Emit(events.RecordUpdated, "ledger", map[string]interface{}{
		"id":          record.ID,
		"sync_status": string(record.SyncStatus),
	})
	return record, true
}

// Delete removes the record unconditionally. Unknown IDs are a no-op.
// Deletion does not leave a tombstone: a record deleted locally while
// offline will not be reconciled against a concurrent remote edit
// (last-writer-wins on delete).
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return false
	}

	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.persistLocked()

	s.eventMgr.Emit(events.RecordDeleted, "ledger", map[string]interface{}{"id": id})
	return true
}

// Get returns a copy of the record with the given ID
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(id)
	if idx < 0 {
		return Record{}, false
	}
	return s.records[idx].Clone(), true
}

// List returns a copy of the full record set sorted by date descending.
// The sort order is a display convention, not a correctness invariant.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Snapshot returns a copy of the record set in storage order.
// The reconciliation engine operates on this consistent snapshot for the
// whole pass; mutations applied while the pass is suspended are picked up
// by the next pass, not the in-flight one.
func (s *Store) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// ApplySyncResults commits the outcome of a reconciliation pass.
// Each change is guarded: records deleted or re-mutated since the pass
// snapshot was taken are skipped and left for the next pass. The whole
// batch persists once. Returns the changes that were actually applied so
// the caller can enqueue only the conflicts that really took effect.
func (s *Store) ApplySyncResults(changes []Change) (applied []Change, skipped int) {
	if len(changes) == 0 {
		return nil, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, change := range changes {
		idx := s.indexOfLocked(change.ID)
		if idx < 0 {
			skipped++
			continue
		}
		if !s.records[idx].LastModified.Equal(change.SnapshotLastModified) {
			s.log.Debug().Str("id", change.ID).Msg("Record mutated during pass, deferring to next pass")
			skipped++
			continue
		}
		s.records[idx] = change.NewRecord
		applied = append(applied, change)
	}

	if len(applied) > 0 {
		s.persistLocked()
	}
	return applied, skipped
}

// ApplyResolution commits the user's conflict decision for a record.
// The resolved version always carries synced status; resolution is the only
// mutation allowed on a record in conflict status.
func (s *Store) ApplyResolution(resolved Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLocked(resolved.ID)
	if idx < 0 {
		return false
	}

	resolved.SyncStatus = StatusSynced
	resolved.CreatedAt = s.records[idx].CreatedAt
	s.records[idx] = resolved
	s.persistLocked()

	s.eventMgr.Emit(events.RecordUpdated, "ledger", map[string]interface{}{
		"id":          resolved.ID,
		"sync_status": string(StatusSynced),
	})
	return true
}

// indexOfLocked returns the position of the record with the given ID, or -1.
// Caller must hold s.mu.
func (s *Store) indexOfLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full set to the snapshot slot. Caller must hold s.mu.
// A failed write keeps the in-memory set authoritative for the session; the
// failure is surfaced as an event and not retried.
func (s *Store) persistLocked() {
	records := make([]Record, len(s.records))
	copy(records, s.records)

	if err := s.snapshots.Save(RecordsSlot, records); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist record set, in-memory copy remains authoritative")
		s.eventMgr.Emit(events.StorageWriteFailed, "ledger", map[string]interface{}{
			"error":   err.Error(),
			"records": len(records),
		})
	}
}
