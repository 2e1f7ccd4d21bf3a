package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// TestService_ReconcilePromotesPendingRecord walks the plain offline-edit
// flow: a record created offline is promoted to synced on the next pass.
func TestService_ReconcilePromotesPendingRecord(t *testing.T) {
	f := newSyncFixture(t)
	service := f.service(t, &StaticOracle{})

	f.online = false
	created := f.store.Create(ledger.Record{Name: "Étel", Amount: -5000, Category: "food"})
	require.Equal(t, ledger.StatusPending, created.SyncStatus)

	require.NoError(t, service.Reconcile(context.Background()))

	got, found := f.store.Get(created.ID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusSynced, got.SyncStatus)
	assert.Equal(t, -5000.0, got.Amount)
	assert.Zero(t, f.queue.Len())

	summary := service.LastResult()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Promoted)
	assert.False(t, summary.Failed)
}

// TestService_ReconcileEnqueuesConflict tests that a both-sided edit marks
// the record and queues a conflict entry pairing both versions
func TestService_ReconcileEnqueuesConflict(t *testing.T) {
	f := newSyncFixture(t)

	f.online = false
	created := f.store.Create(ledger.Record{Name: "Groceries", Amount: -200})

	server := created.Clone()
	server.Amount = -250
	oracle := &StaticOracle{Results: map[string]Result{
		created.ID: {Changed: true, ServerRecord: &server},
	}}
	service := f.service(t, oracle)

	require.NoError(t, service.Reconcile(context.Background()))

	got, found := f.store.Get(created.ID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusConflict, got.SyncStatus)
	assert.Equal(t, -200.0, got.Amount, "local field values stay untouched while flagged")

	require.Equal(t, 1, f.queue.Len())
	entry := f.queue.Peek()
	assert.Equal(t, -200.0, entry.Local.Amount)
	assert.Equal(t, -250.0, entry.Remote.Amount)

	// The user keeps their own edit; the record returns to synced.
	resolved, err := f.queue.Resolve(ChoiceLocal)
	require.NoError(t, err)
	assert.Equal(t, -200.0, resolved.Amount)

	got, _ = f.store.Get(created.ID)
	assert.Equal(t, ledger.StatusSynced, got.SyncStatus)
	assert.Equal(t, -200.0, got.Amount)
}

// TestService_ReconcileOracleFailureLeavesStateUntouched tests pass
// atomicity end to end: a failing oracle changes nothing and queues nothing
func TestService_ReconcileOracleFailureLeavesStateUntouched(t *testing.T) {
	f := newSyncFixture(t)
	service := f.service(t, &StaticOracle{Err: errors.New("remote unreachable")})

	f.online = false
	created := f.store.Create(ledger.Record{Name: "Groceries", Amount: -5000})

	err := service.Reconcile(context.Background())
	require.Error(t, err)

	got, found := f.store.Get(created.ID)
	require.True(t, found)
	assert.Equal(t, ledger.StatusPending, got.SyncStatus, "a failed pass must not mutate any record")
	assert.Zero(t, f.queue.Len())

	summary := service.LastResult()
	require.NotNil(t, summary)
	assert.True(t, summary.Failed)
	assert.NotEmpty(t, summary.Error)
}

// TestService_ReconcileAdoptsServerEdit tests that a clean synced record with
// a server-side change adopts the server version without queueing anything
func TestService_ReconcileAdoptsServerEdit(t *testing.T) {
	f := newSyncFixture(t)

	f.online = true
	created := f.store.Create(ledger.Record{Name: "Salary", Amount: 250000})
	require.Equal(t, ledger.StatusSynced, created.SyncStatus)

	server := created.Clone()
	server.Amount = 260000
	oracle := &StaticOracle{Results: map[string]Result{
		created.ID: {Changed: true, ServerRecord: &server},
	}}
	service := f.service(t, oracle)

	require.NoError(t, service.Reconcile(context.Background()))

	got, found := f.store.Get(created.ID)
	require.True(t, found)
	assert.Equal(t, 260000.0, got.Amount)
	assert.Equal(t, ledger.StatusSynced, got.SyncStatus)
	assert.Zero(t, f.queue.Len())

	summary := service.LastResult()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Adopted)
}
