package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/db"
)

// EndpointConfig is the persisted endpoint choice and cadence for one
// (connection, kind) pair.
type EndpointConfig struct {
	ConnectionID string              `json:"connection_id"`
	Kind         config.SyncKind     `json:"kind"`
	RestBase     string              `json:"rest_base"`
	SyncInterval config.SyncInterval `json:"sync_interval"`
	LastSync     *time.Time          `json:"last_sync,omitempty"`
}

// EndpointStore manages persistence of endpoint configs.
type EndpointStore struct {
	db *db.DB
}

// NewEndpointStore creates a new endpoint config store.
func NewEndpointStore(database *db.DB) *EndpointStore {
	return &EndpointStore{db: database}
}

// Get retrieves the endpoint config for a pair, or nil.
func (s *EndpointStore) Get(ctx context.Context, connectionID string, kind config.SyncKind) (*EndpointConfig, error) {
	var ec EndpointConfig
	var lastSync sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT connection_id, kind, rest_base, sync_interval, last_sync
		 FROM endpoint_configs WHERE connection_id = ? AND kind = ?`,
		connectionID, kind,
	).Scan(&ec.ConnectionID, &ec.Kind, &ec.RestBase, &ec.SyncInterval, &lastSync)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting endpoint config: %w", err)
	}
	if lastSync.Valid {
		ec.LastSync = &lastSync.Time
	}
	return &ec, nil
}

// Upsert saves the endpoint choice and interval for a pair, preserving
// the recorded last sync time.
func (s *EndpointStore) Upsert(ctx context.Context, ec *EndpointConfig) error {
	if !ec.SyncInterval.Valid() {
		return fmt.Errorf("invalid sync interval %q", ec.SyncInterval)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO endpoint_configs (connection_id, kind, rest_base, sync_interval)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(connection_id, kind) DO UPDATE SET
		   rest_base = excluded.rest_base, sync_interval = excluded.sync_interval`,
		ec.ConnectionID, ec.Kind, ec.RestBase, ec.SyncInterval,
	)
	if err != nil {
		return fmt.Errorf("saving endpoint config: %w", err)
	}
	return nil
}

// SetLastSync records a completed run. Only called after runs that
// finished without a fatal error.
func (s *EndpointStore) SetLastSync(ctx context.Context, connectionID string, kind config.SyncKind, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE endpoint_configs SET last_sync = ? WHERE connection_id = ? AND kind = ?`,
		at, connectionID, kind,
	)
	return err
}
