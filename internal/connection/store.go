package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/parksync/internal/db"
)

// Store manages persistence of site connections.
type Store struct {
	db *db.DB
}

// NewStore creates a new connection store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// GetByAgent retrieves the connection owned by an agent, or nil.
func (s *Store) GetByAgent(ctx context.Context, agentID string) (*SiteConnection, error) {
	var conn SiteConnection
	var verifiedAt sql.NullTime
	var success int

	err := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, site_url, verified_at, last_test_success, last_test_message, created_at
		 FROM site_connections WHERE agent_id = ?`, agentID,
	).Scan(&conn.ID, &conn.AgentID, &conn.SiteURL, &verifiedAt, &success, &conn.LastTestMessage, &conn.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}
	if verifiedAt.Valid {
		conn.VerifiedAt = &verifiedAt.Time
	}
	conn.LastTestSuccess = success != 0
	return &conn, nil
}

// Upsert inserts or replaces the agent's connection row. An existing row
// keeps its ID and created_at.
func (s *Store) Upsert(ctx context.Context, conn *SiteConnection) (*SiteConnection, error) {
	existing, err := s.GetByAgent(ctx, conn.AgentID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if conn.ID == "" {
			conn.ID = uuid.New().String()
		}
		conn.CreatedAt = time.Now().UTC()
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO site_connections (id, agent_id, site_url, verified_at, last_test_success, last_test_message, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			conn.ID, conn.AgentID, conn.SiteURL, conn.VerifiedAt, boolToInt(conn.LastTestSuccess), conn.LastTestMessage, conn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting connection: %w", err)
		}
		return conn, nil
	}

	conn.ID = existing.ID
	conn.CreatedAt = existing.CreatedAt
	_, err = s.db.ExecContext(ctx,
		`UPDATE site_connections SET site_url = ?, verified_at = ?, last_test_success = ?, last_test_message = ? WHERE id = ?`,
		conn.SiteURL, conn.VerifiedAt, boolToInt(conn.LastTestSuccess), conn.LastTestMessage, conn.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating connection: %w", err)
	}
	return conn, nil
}

// RecordTest stores the outcome of the latest reachability test.
func (s *Store) RecordTest(ctx context.Context, id string, result TestResult) error {
	var verifiedAt any
	if result.Success {
		verifiedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE site_connections SET last_test_success = ?, last_test_message = ?,
		 verified_at = COALESCE(?, verified_at) WHERE id = ?`,
		boolToInt(result.Success), result.Message, verifiedAt, id,
	)
	return err
}

// Delete removes a connection and, when cascade is set, every sync record
// that originated from it. The whole operation is one transaction.
func (s *Store) Delete(ctx context.Context, id string, cascade bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin disconnect: %w", err)
	}
	defer tx.Rollback()

	if cascade {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_records WHERE connection_id = ?`, id); err != nil {
			return fmt.Errorf("deleting synced records: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sync_runs WHERE connection_id = ?`, id); err != nil {
			return fmt.Errorf("deleting sync runs: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM endpoint_configs WHERE connection_id = ?`, id); err != nil {
		return fmt.Errorf("deleting endpoint configs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM field_mappings WHERE connection_id = ?`, id); err != nil {
		return fmt.Errorf("deleting field mappings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM site_connections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}

	return tx.Commit()
}

// CountSyncRecords returns how many synced records originate from a connection.
func (s *Store) CountSyncRecords(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_records WHERE connection_id = ?`, id).Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
