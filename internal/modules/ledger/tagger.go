package ledger

import "time"

// Tag stamps sync metadata on a record after a local mutation.
// It is a pure policy function: records mutated while online are considered
// synced immediately, records mutated while offline are pending upload.
// LastModified is monotonically non-decreasing across a record's lifetime.
func Tag(record Record, online bool, now time.Time) Record {
	if online {
		record.SyncStatus = StatusSynced
	} else {
		record.SyncStatus = StatusPending
	}
	if now.After(record.LastModified) {
		record.LastModified = now
	}
	return record
}
