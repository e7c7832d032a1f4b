package syncer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/db"
)

// SyncRecord is a canonical entity (Community or Property) produced by
// the orchestrator. sourceRecordID is the remote system's stable
// identifier and the natural key for upsert.
type SyncRecord struct {
	ID                 string          `json:"id"`
	ConnectionID       string          `json:"connection_id"`
	Kind               config.SyncKind `json:"kind"`
	SourceRecordID     string          `json:"source_record_id"`
	Fields             map[string]any  `json:"fields"`
	ContentFingerprint string          `json:"content_fingerprint"`
	LastSyncedAt       time.Time       `json:"last_synced_at"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Store manages persistence of canonical sync records. Only the
// orchestrator creates or updates them.
type Store struct {
	db *db.DB
}

// NewStore creates a new sync record store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get retrieves a record by its natural key, or nil.
func (s *Store) Get(ctx context.Context, connectionID string, kind config.SyncKind, sourceRecordID string) (*SyncRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, connection_id, kind, source_record_id, fields, content_fingerprint, last_synced_at, created_at
		 FROM sync_records WHERE connection_id = ? AND kind = ? AND source_record_id = ?`,
		connectionID, kind, sourceRecordID,
	)
	return scanRecord(row)
}

// Insert adds a new canonical record.
func (s *Store) Insert(ctx context.Context, rec *SyncRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rec.LastSyncedAt = now
	rec.CreatedAt = now

	raw, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("encoding record fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sync_records (id, connection_id, kind, source_record_id, fields, content_fingerprint, last_synced_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConnectionID, rec.Kind, rec.SourceRecordID, string(raw), rec.ContentFingerprint, rec.LastSyncedAt, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sync record: %w", err)
	}
	return nil
}

// Update replaces a record's fields and fingerprint and bumps
// last_synced_at.
func (s *Store) Update(ctx context.Context, id string, fields map[string]any, fingerprint string) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding record fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sync_records SET fields = ?, content_fingerprint = ?, last_synced_at = ? WHERE id = ?`,
		string(raw), fingerprint, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating sync record: %w", err)
	}
	return nil
}

// List returns all records for a (connection, kind), newest first.
func (s *Store) List(ctx context.Context, connectionID string, kind config.SyncKind) ([]SyncRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, connection_id, kind, source_record_id, fields, content_fingerprint, last_synced_at, created_at
		 FROM sync_records WHERE connection_id = ? AND kind = ? ORDER BY last_synced_at DESC`,
		connectionID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sync records: %w", err)
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Delete removes one record by ID (explicit user action).
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_records WHERE id = ?`, id)
	return err
}

// Count returns the number of records for a (connection, kind).
func (s *Store) Count(ctx context.Context, connectionID string, kind config.SyncKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_records WHERE connection_id = ? AND kind = ?`,
		connectionID, kind,
	).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*SyncRecord, error) {
	var rec SyncRecord
	var raw string
	err := row.Scan(&rec.ID, &rec.ConnectionID, &rec.Kind, &rec.SourceRecordID,
		&raw, &rec.ContentFingerprint, &rec.LastSyncedAt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync record: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &rec.Fields); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}
	return &rec, nil
}
