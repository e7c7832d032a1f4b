package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/db"
)

// Run is the persisted history of one import run.
type Run struct {
	ID           string          `json:"id"`
	ConnectionID string          `json:"connection_id"`
	Kind         config.SyncKind `json:"kind"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Result       ImportResult    `json:"result"`
	Error        string          `json:"error,omitempty"`
}

// RunStore manages the sync run history.
type RunStore struct {
	db *db.DB
}

// NewRunStore creates a new run history store.
func NewRunStore(database *db.DB) *RunStore {
	return &RunStore{db: database}
}

// Record persists a finished run.
func (s *RunStore) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, connection_id, kind, started_at, finished_at, imported, updated, unchanged, failed, total_remote, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ConnectionID, run.Kind, run.StartedAt, run.FinishedAt,
		run.Result.Imported, run.Result.Updated, run.Result.Unchanged,
		run.Result.Failed, run.Result.TotalRemote, run.Error,
	)
	if err != nil {
		return fmt.Errorf("recording sync run: %w", err)
	}
	return nil
}

// ListRecent returns the most recent runs for a (connection, kind).
func (s *RunStore) ListRecent(ctx context.Context, connectionID string, kind config.SyncKind, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, connection_id, kind, started_at, finished_at, imported, updated, unchanged, failed, total_remote, error
		 FROM sync_runs WHERE connection_id = ? AND kind = ?
		 ORDER BY started_at DESC LIMIT ?`,
		connectionID, kind, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var finished sql.NullTime
		err := rows.Scan(&run.ID, &run.ConnectionID, &run.Kind, &run.StartedAt, &finished,
			&run.Result.Imported, &run.Result.Updated, &run.Result.Unchanged,
			&run.Result.Failed, &run.Result.TotalRemote, &run.Error)
		if err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		if finished.Valid {
			run.FinishedAt = &finished.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
