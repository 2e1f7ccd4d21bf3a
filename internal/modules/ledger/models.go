// Package ledger owns the canonical local copy of all financial records.
// The store applies every mutation to an in-memory set and persists the
// full set wholesale to the local database, so a process restart never
// loses an acknowledged write.
package ledger

import "time"

// SyncStatus describes a record's relationship to the remote store.
type SyncStatus string

const (
	// StatusSynced - the record matches the last known remote state.
	StatusSynced SyncStatus = "synced"
	// StatusPending - the record has a local edit not yet confirmed uploaded.
	StatusPending SyncStatus = "pending"
	// StatusConflict - the record was edited both locally and remotely during
	// the same offline window and awaits a human decision.
	StatusConflict SyncStatus = "conflict"
)

// Record is the unit of reconciliation: one financial ledger entry.
// Amount is signed; positive values are income, negative are expenses.
type Record struct {
	ID           string     `json:"id" msgpack:"id"`
	Name         string     `json:"name" msgpack:"name"`
	Amount       float64    `json:"amount" msgpack:"amount"`
	Date         time.Time  `json:"date" msgpack:"date"`
	Comment      string     `json:"comment,omitempty" msgpack:"comment"`
	Category     string     `json:"category" msgpack:"category"`
	SyncStatus   SyncStatus `json:"sync_status" msgpack:"sync_status"`
	CreatedAt    time.Time  `json:"created_at" msgpack:"created_at"`
	LastModified time.Time  `json:"last_modified" msgpack:"last_modified"`
}

// Clone returns a copy of the record.
// The store hands out clones so callers can never mutate the canonical set directly.
func (r Record) Clone() Record {
	return r
}
