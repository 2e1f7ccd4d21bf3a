package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestTag_Online tests that records mutated while online are tagged synced
func TestTag_Online(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := Record{ID: "r1", Name: "Groceries", Amount: -42.5}

	tagged := Tag(record, true, now)

	assert.Equal(t, StatusSynced, tagged.SyncStatus)
	assert.Equal(t, now, tagged.LastModified)
}

// TestTag_Offline tests that records mutated while offline are tagged pending
func TestTag_Offline(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := Record{ID: "r1", Name: "Groceries", Amount: -42.5}

	tagged := Tag(record, false, now)

	assert.Equal(t, StatusPending, tagged.SyncStatus)
	assert.Equal(t, now, tagged.LastModified)
}

// TestTag_LastModifiedMonotonic tests that a clock running behind the
// record's existing LastModified never moves the timestamp backwards
func TestTag_LastModifiedMonotonic(t *testing.T) {
	later := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	record := Record{ID: "r1", LastModified: later}
	tagged := Tag(record, true, earlier)

	assert.Equal(t, later, tagged.LastModified)
}
