package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// ConflictEntry pairs the two divergent versions of one logical record:
// the local copy (as it exists in the store, pre-conflict-mark) and the
// server's version retrieved at reconciliation time.
type ConflictEntry struct {
	Local      ledger.Record `json:"local"`
	Remote     ledger.Record `json:"remote"`
	DetectedAt time.Time     `json:"detected_at"`
}

// PassResult is the outcome of one reconciliation pass over the snapshot.
// Changes are buffered, never applied mid-pass: the pass either produces a
// complete result or fails with no effect on the record set.
type PassResult struct {
	Changes    []ledger.Change
	Conflicts  map[string]ConflictEntry // Keyed by record ID; enqueued only if the change applies
	Promoted   int                      // pending records acknowledged as uploaded
	Adopted    int                      // server versions adopted without a competing local edit
	Conflicted int                      // both-sided edits flagged for resolution
}

// Engine runs the reconciliation algorithm over a consistent snapshot of the
// record set. It never touches the store itself; the caller commits the
// returned changes.
type Engine struct {
	oracle Oracle
	minAge time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

// NewEngine creates a reconciliation engine.
// minAge is the minimum record age (from creation) before server-side change
// checks apply; younger records cannot plausibly have been seen by the
// server, so checking them would fabricate conflicts.
func NewEngine(oracle Oracle, minAge time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		oracle: oracle,
		minAge: minAge,
		now:    time.Now,
		log:    log.With().Str("component", "sync_engine").Logger(),
	}
}

// SetClock overrides the time source (used by tests)
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Run executes one reconciliation pass over the snapshot.
//
// Per record:
//  1. records younger than the visibility threshold skip the oracle and are
//     only eligible for local pending promotion;
//  2. server changed + local pending: genuine conflict - the record is marked
//     conflict (local field values untouched) and a ConflictEntry is produced;
//     server changed + local synced: the server version is authoritative and
//     adopted directly;
//  3. no server change + local pending: promoted to synced, LastModified
//     stamped now (the local edit counts as uploaded);
//  4. records already synced with no server signal, or already in conflict
//     awaiting resolution, are left unchanged.
//
// Any oracle error aborts the pass: the returned error is the only effect.
func (e *Engine) Run(ctx context.Context, snapshot []ledger.Record) (*PassResult, error) {
	now := e.now()
	result := &PassResult{Conflicts: make(map[string]ConflictEntry)}

	for _, record := range snapshot {
		// Conflicted records are frozen until the user resolves them.
		if record.SyncStatus == ledger.StatusConflict {
			continue
		}

		visible := now.Sub(record.CreatedAt) >= e.minAge
		if visible {
			check, err := e.oracle.Check(ctx, record)
			if err != nil {
				return nil, fmt.Errorf("oracle check failed for record %s: %w", record.ID, err)
			}

			if check.Changed {
				if record.SyncStatus == ledger.StatusPending {
					// Edited on both sides while offline: flag, don't pick a winner.
					marked := record.Clone()
					marked.SyncStatus = ledger.StatusConflict
					result.Changes = append(result.Changes, ledger.Change{
						ID:                   record.ID,
						NewRecord:            marked,
						SnapshotLastModified: record.LastModified,
					})
					result.Conflicts[record.ID] = ConflictEntry{
						Local:      record.Clone(),
						Remote:     *check.ServerRecord,
						DetectedAt: now,
					}
					result.Conflicted++
				} else {
					// No competing local edit: the server version wins outright.
					adopted := *check.ServerRecord
					adopted.ID = record.ID
					adopted.CreatedAt = record.CreatedAt
					adopted.SyncStatus = ledger.StatusSynced
					result.Changes = append(result.Changes, ledger.Change{
						ID:                   record.ID,
						NewRecord:            adopted,
						SnapshotLastModified: record.LastModified,
					})
					result.Adopted++
				}
				continue
			}
		}

		// No server signal (or not yet visible): pending edits count as uploaded.
		if record.SyncStatus == ledger.StatusPending {
			promoted := record.Clone()
			promoted.SyncStatus = ledger.StatusSynced
			promoted.LastModified = now
			result.Changes = append(result.Changes, ledger.Change{
				ID:                   record.ID,
				NewRecord:            promoted,
				SnapshotLastModified: record.LastModified,
			})
			result.Promoted++
		}
	}

	e.log.Debug().
		Int("records", len(snapshot)).
		Int("promoted", result.Promoted).
		Int("adopted", result.Adopted).
		Int("conflicted", result.Conflicted).
		Msg("Reconciliation pass computed")

	return result, nil
}
