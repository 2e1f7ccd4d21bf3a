package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrasnemes/ledgerd/internal/database"
	"github.com/andrasnemes/ledgerd/internal/events"
	"github.com/andrasnemes/ledgerd/internal/modules/ledger"
)

func newTestRouter(t *testing.T) (*chi.Mux, *ledger.Store) {
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
	snapshots := ledger.NewSnapshotRepository(db.Conn(), log)
	store := ledger.NewStore(snapshots, events.NewManager(bus, log), func() bool { return false }, log)

	router := chi.NewRouter()
	NewHandler(store, log).RegisterRoutes(router)
	return router, store
}

// TestHandleCreate tests record creation over HTTP
func TestHandleCreate(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"Groceries","amount":-5000,"date":"2026-03-01T00:00:00Z","category":"food"}`
	req := httptest.NewRequest("POST", "/records/", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var record ledger.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "Groceries", record.Name)
	assert.Equal(t, ledger.StatusPending, record.SyncStatus, "created offline, so pending")
}

// TestHandleCreate_InvalidBody tests the malformed payload path
func TestHandleCreate_InvalidBody(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/records/", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleList tests listing records
func TestHandleList(t *testing.T) {
	router, store := newTestRouter(t)
	store.Create(ledger.Record{Name: "Groceries", Amount: -5000})

	req := httptest.NewRequest("GET", "/records/", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var records []ledger.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Groceries", records[0].Name)
}

// TestHandleUpdate_UnknownID tests that updating a missing record reports a
// no-op instead of failing
func TestHandleUpdate_UnknownID(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"name":"x","amount":-1}`
	req := httptest.NewRequest("PUT", "/records/missing", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, false, response["applied"])
}

// TestHandleDelete tests record deletion over HTTP
func TestHandleDelete(t *testing.T) {
	router, store := newTestRouter(t)
	created := store.Create(ledger.Record{Name: "Coffee", Amount: -450})

	req := httptest.NewRequest("DELETE", "/records/"+created.ID, nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["removed"])
	assert.Empty(t, store.List())
}

// TestHandleExportCSV tests the CSV export endpoint
func TestHandleExportCSV(t *testing.T) {
	router, store := newTestRouter(t)
	store.Create(ledger.Record{Name: "Groceries", Amount: -5000, Category: "food"})

	req := httptest.NewRequest("GET", "/records/export", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "id,name,amount")
	assert.Contains(t, lines[1], "Groceries")
	assert.Contains(t, lines[1], "-5000.00")
}
