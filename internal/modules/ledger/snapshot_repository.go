package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// RecordsSlot is the snapshot slot holding the full record set.
const RecordsSlot = "records"

// SnapshotRepository persists the full record set as a single msgpack blob
// under a named slot in the snapshots table. Every save overwrites the slot
// wholesale; there is no incremental log.
//
// Database: ledger.db (snapshots table)
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
}

// Save encodes the record set and overwrites the slot.
// The write goes through synchronous(FULL) SQLite, so a successful return
// means the set is durable on disk.
func (r *SnapshotRepository) Save(slot string, records []Record) error {
	payload, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for slot %s: %w", slot, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO snapshots (slot, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, slot, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to persist snapshot for slot %s: %w", slot, err)
	}

	return nil
}

// Load decodes the record set stored under the slot.
// Returns an empty set (not an error) when the slot has never been written.
func (r *SnapshotRepository) Load(slot string) ([]Record, error) {
	var payload []byte
	err := r.db.QueryRow("SELECT payload FROM snapshots WHERE slot = ?", slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for slot %s: %w", slot, err)
	}

	var records []Record
	if err := msgpack.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot for slot %s: %w", slot, err)
	}

	r.log.Debug().Int("records", len(records)).Str("slot", slot).Msg("Snapshot loaded")
	return records, nil
}

// Payload returns the raw encoded snapshot for the slot, used by the backup
// service to upload the exact bytes that are on disk.
func (r *SnapshotRepository) Payload(slot string) ([]byte, error) {
	var payload []byte
	err := r.db.QueryRow("SELECT payload FROM snapshots WHERE slot = ?", slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot payload for slot %s: %w", slot, err)
	}
	return payload, nil
}
