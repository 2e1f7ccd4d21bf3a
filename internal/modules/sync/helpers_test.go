package sync

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/andrasnemes/ledgerd/internal/database"
	"github.com/andrasnemes/ledgerd/internal/events"
	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

// syncFixture wires a real store (backed by a throwaway database) to the
// reconciliation pipeline under test.
type syncFixture struct {
	store    *ledger.Store
	queue    *ConflictQueue
	eventMgr *events.Manager
	bus      *events.Bus
	online   bool
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	log := zerolog.Nop()

	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "test.db"),
		Name: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	bus := events.NewBus(log)
	eventMgr := events.NewManager(bus, log)
	snapshots := ledger.NewSnapshotRepository(db.Conn(), log)

	f := &syncFixture{bus: bus, eventMgr: eventMgr}
	f.store = ledger.NewStore(snapshots, eventMgr, func() bool { return f.online }, log)
	f.queue = NewConflictQueue(f.store, eventMgr, log)
	return f
}

// service builds a Service around the fixture's store and queue
func (f *syncFixture) service(t *testing.T, oracle Oracle) *Service {
	t.Helper()
	engine := NewEngine(oracle, 0, zerolog.Nop())
	return NewService(f.store, engine, f.queue, f.eventMgr, zerolog.Nop())
}
