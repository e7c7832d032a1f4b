package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/parksync/internal/db"
)

// ErrNotFound signals a missing knowledge source.
var ErrNotFound = errors.New("knowledge source not found")

// Store persists the knowledge ledger.
type Store struct {
	db *db.DB
}

// NewStore creates a ledger store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new source in pending state and returns it.
func (s *Store) Create(ctx context.Context, src *Source) (*Source, error) {
	src.ID = uuid.New().String()
	src.Status = StatusPending
	src.CreatedAt = time.Now().UTC()
	if src.RefreshInterval == "" {
		src.RefreshInterval = "manual"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_sources (id, parent_id, source_type, name, location, status, refresh_interval, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.ParentID, src.SourceType, src.Name, src.Location, src.Status, src.RefreshInterval, src.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge source: %w", err)
	}
	return src, nil
}

const sourceColumns = `id, parent_id, source_type, name, location, status, error, chunk_count, last_content_hash, last_synced_at, refresh_interval, created_at`

// Get loads one source.
func (s *Store) Get(ctx context.Context, id string) (*Source, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM knowledge_sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return src, err
}

// ListRoots returns all top-level sources, newest first.
func (s *Store) ListRoots(ctx context.Context) ([]Source, error) {
	return s.list(ctx, `SELECT `+sourceColumns+` FROM knowledge_sources WHERE parent_id IS NULL ORDER BY created_at DESC`)
}

// ListChildren returns a root's children, newest first.
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]Source, error) {
	return s.list(ctx, `SELECT `+sourceColumns+` FROM knowledge_sources WHERE parent_id = ? ORDER BY created_at DESC`, parentID)
}

// ListAll returns every source in the ledger.
func (s *Store) ListAll(ctx context.Context) ([]Source, error) {
	return s.list(ctx, `SELECT `+sourceColumns+` FROM knowledge_sources ORDER BY created_at DESC`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

// ClaimProcessing atomically moves a source into processing. It returns
// false when the source is already processing, so concurrent triggers
// collapse into one run.
func (s *Store) ClaimProcessing(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_sources SET status = ?, error = '' WHERE id = ? AND status <> ?`,
		StatusProcessing, id, StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("claiming knowledge source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FinishProcessing records a processing outcome: ready with fresh chunk
// counts and content hash, or error with the failure message.
func (s *Store) FinishProcessing(ctx context.Context, id string, chunkCount int, contentHash string, procErr error) error {
	if procErr != nil {
		_, err := s.db.ExecContext(ctx,
			`UPDATE knowledge_sources SET status = ?, error = ? WHERE id = ?`,
			StatusError, procErr.Error(), id,
		)
		if err != nil {
			return fmt.Errorf("recording processing failure: %w", err)
		}
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_sources SET status = ?, error = '', chunk_count = ?, last_content_hash = ?, last_synced_at = ? WHERE id = ?`,
		StatusReady, chunkCount, contentHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("recording processing result: %w", err)
	}
	return nil
}

// Delete removes a source and its whole subtree in one transaction and
// returns every removed id so the caller can purge the vector store.
func (s *Store) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM knowledge_sources WHERE id = ?
			UNION ALL
			SELECT ks.id FROM knowledge_sources ks JOIN subtree st ON ks.parent_id = st.id
		)
		SELECT id FROM subtree`, id)
	if err != nil {
		return nil, fmt.Errorf("collecting subtree: %w", err)
	}
	var ids []string
	for rows.Next() {
		var sid string
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, sid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNotFound
	}

	// Delete the subtree explicitly, children before the root, so the
	// cascade does not depend on the connection's foreign_keys pragma.
	for i := len(ids) - 1; i >= 0; i-- {
		if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_sources WHERE id = ?`, ids[i]); err != nil {
			return nil, fmt.Errorf("deleting knowledge source: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing delete: %w", err)
	}
	return ids, nil
}

func scanSource(row interface{ Scan(...any) error }) (*Source, error) {
	var src Source
	var parent sql.NullString
	var synced sql.NullTime
	err := row.Scan(&src.ID, &parent, &src.SourceType, &src.Name, &src.Location, &src.Status,
		&src.Error, &src.ChunkCount, &src.LastContentHash, &synced, &src.RefreshInterval, &src.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		src.ParentID = &parent.String
	}
	if synced.Valid {
		src.LastSyncedAt = &synced.Time
	}
	return &src, nil
}
