package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// TestConflictQueue_FIFO tests that conflicts resolve in arrival order
func TestConflictQueue_FIFO(t *testing.T) {
	f := newSyncFixture(t)

	first := f.store.Create(ledger.Record{Name: "first", Amount: -100})
	second := f.store.Create(ledger.Record{Name: "second", Amount: -200})

	f.queue.Append(ConflictEntry{Local: first, Remote: first, DetectedAt: time.Now()})
	f.queue.Append(ConflictEntry{Local: second, Remote: second, DetectedAt: time.Now()})

	require.Equal(t, 2, f.queue.Len())
	assert.Equal(t, first.ID, f.queue.Peek().Local.ID)

	resolved, err := f.queue.Resolve(ChoiceLocal)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, first.ID, resolved.ID)

	assert.Equal(t, 1, f.queue.Len())
	assert.Equal(t, second.ID, f.queue.Peek().Local.ID)
}

// TestConflictQueue_ResolveLocal tests that choosing the local version keeps
// its field values, stamps a fresh LastModified, and returns to synced
func TestConflictQueue_ResolveLocal(t *testing.T) {
	f := newSyncFixture(t)
	resolvedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.queue.SetClock(func() time.Time { return resolvedAt })

	local := f.store.Create(ledger.Record{Name: "Groceries", Amount: -200})
	remote := local.Clone()
	remote.Amount = -250
	remote.LastModified = resolvedAt.Add(-time.Hour)

	f.queue.Append(ConflictEntry{Local: local, Remote: remote, DetectedAt: resolvedAt})

	resolved, err := f.queue.Resolve(ChoiceLocal)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, -200.0, resolved.Amount)
	assert.Equal(t, resolvedAt, resolved.LastModified)

	got, found := f.store.Get(local.ID)
	require.True(t, found)
	assert.Equal(t, -200.0, got.Amount)
	assert.Equal(t, ledger.StatusSynced, got.SyncStatus)
}

// TestConflictQueue_ResolveRemote tests that choosing the remote version
// adopts its field values and modification time under the local record's ID
func TestConflictQueue_ResolveRemote(t *testing.T) {
	f := newSyncFixture(t)

	local := f.store.Create(ledger.Record{Name: "Groceries", Amount: -200})
	remoteModified := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	remote := local.Clone()
	remote.ID = "server-side-id"
	remote.Amount = -250
	remote.LastModified = remoteModified

	f.queue.Append(ConflictEntry{Local: local, Remote: remote, DetectedAt: time.Now()})

	resolved, err := f.queue.Resolve(ChoiceRemote)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, local.ID, resolved.ID, "remote version is adopted under the local identity")
	assert.Equal(t, -250.0, resolved.Amount)
	assert.Equal(t, remoteModified, resolved.LastModified)

	got, found := f.store.Get(local.ID)
	require.True(t, found)
	assert.Equal(t, -250.0, got.Amount)
	assert.Equal(t, ledger.StatusSynced, got.SyncStatus)
}

// TestConflictQueue_ResolveEmptyQueue tests that resolving with nothing
// queued is a silent no-op
func TestConflictQueue_ResolveEmptyQueue(t *testing.T) {
	f := newSyncFixture(t)

	resolved, err := f.queue.Resolve(ChoiceLocal)

	require.NoError(t, err)
	assert.Nil(t, resolved)
}

// TestConflictQueue_ResolveInvalidChoice tests that an unknown choice is
// rejected without consuming an entry
func TestConflictQueue_ResolveInvalidChoice(t *testing.T) {
	f := newSyncFixture(t)
	local := f.store.Create(ledger.Record{Name: "x", Amount: -1})
	f.queue.Append(ConflictEntry{Local: local, Remote: local, DetectedAt: time.Now()})

	_, err := f.queue.Resolve(Choice("newest"))

	require.Error(t, err)
	assert.Equal(t, 1, f.queue.Len())
}

// TestConflictQueue_PeekEmpty tests that peeking an empty queue returns nil
func TestConflictQueue_PeekEmpty(t *testing.T) {
	f := newSyncFixture(t)
	assert.Nil(t, f.queue.Peek())
}
