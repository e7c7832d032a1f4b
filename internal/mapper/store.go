package mapper

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ziadkadry99/parksync/internal/db"
)

// StoredMapping is a persisted field mapping for one (connection, kind).
type StoredMapping struct {
	ConnectionID string            `json:"connection_id"`
	Kind         string            `json:"kind"`
	Mapping      map[string]string `json:"mapping"`
	Confirmed    bool              `json:"confirmed"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Store manages persistence of field mappings.
type Store struct {
	db *db.DB
}

// NewStore creates a new mapping store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get retrieves the mapping for a (connection, kind) pair, or nil.
func (s *Store) Get(ctx context.Context, connectionID, kind string) (*StoredMapping, error) {
	var m StoredMapping
	var raw string

	err := s.db.QueryRowContext(ctx,
		`SELECT connection_id, kind, mapping, confirmed, updated_at
		 FROM field_mappings WHERE connection_id = ? AND kind = ?`,
		connectionID, kind,
	).Scan(&m.ConnectionID, &m.Kind, &raw, &m.Confirmed, &m.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting field mapping: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &m.Mapping); err != nil {
		return nil, fmt.Errorf("decoding field mapping: %w", err)
	}
	return &m, nil
}

// Save upserts the mapping. A confirmed save is rejected unless every
// required target field is mapped. Saving never touches historical sync
// records.
func (s *Store) Save(ctx context.Context, connectionID, kind string, mapping map[string]string, confirmed bool) (*StoredMapping, error) {
	if confirmed && !Validate(mapping, TargetFields(kind)) {
		missing := MissingRequired(mapping, TargetFields(kind))
		return nil, fmt.Errorf("cannot confirm mapping: required fields unmapped: %v", missing)
	}
	if mapping == nil {
		mapping = map[string]string{}
	}

	raw, err := json.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("encoding field mapping: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO field_mappings (connection_id, kind, mapping, confirmed, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(connection_id, kind) DO UPDATE SET
		   mapping = excluded.mapping, confirmed = excluded.confirmed, updated_at = excluded.updated_at`,
		connectionID, kind, string(raw), confirmed, now,
	)
	if err != nil {
		return nil, fmt.Errorf("saving field mapping: %w", err)
	}

	return &StoredMapping{
		ConnectionID: connectionID,
		Kind:         kind,
		Mapping:      mapping,
		Confirmed:    confirmed,
		UpdatedAt:    now,
	}, nil
}
