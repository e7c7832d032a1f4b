// Package connection implements the connection registry: the stored,
// verified link between an agent and its remote content site.
package connection

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/wp"
)

// ErrNotConnected is returned by operations that need a saved connection.
var ErrNotConnected = errors.New("no site connection configured")

// Registry validates, stores, and tests site connections.
type Registry struct {
	store *Store

	// probe is swappable in tests; defaults to a wp client probe.
	probe func(ctx context.Context, siteURL string) error
}

// NewRegistry creates a Registry over the given store.
func NewRegistry(store *Store) *Registry {
	return &Registry{
		store: store,
		probe: func(ctx context.Context, siteURL string) error {
			return wp.NewClient(siteURL).Probe(ctx)
		},
	}
}

// TestConnection issues a reachability probe against the given URL. It is
// a pure check: nothing is persisted, and every failure mode comes back
// as a TestResult, never an error.
func (r *Registry) TestConnection(ctx context.Context, rawURL string) TestResult {
	normalized, err := config.NormalizeSiteURL(rawURL)
	if err != nil {
		return TestResult{Success: false, Message: err.Error()}
	}

	if err := r.probe(ctx, normalized); err != nil {
		return TestResult{Success: false, Message: fmt.Sprintf("connection failed: %v", err)}
	}
	return TestResult{Success: true, Message: "connection successful"}
}

// SaveURL normalizes and persists the agent's site URL. Saving the same
// normalized URL twice is a no-op write; saving a different URL resets
// the verification state.
func (r *Registry) SaveURL(ctx context.Context, agentID, rawURL string) (*SiteConnection, error) {
	normalized, err := config.NormalizeSiteURL(rawURL)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.GetByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.SiteURL == normalized {
		return existing, nil
	}

	conn := &SiteConnection{AgentID: agentID, SiteURL: normalized}
	return r.store.Upsert(ctx, conn)
}

// TestSaved probes the agent's stored connection and records the outcome.
func (r *Registry) TestSaved(ctx context.Context, agentID string) (TestResult, error) {
	conn, err := r.store.GetByAgent(ctx, agentID)
	if err != nil {
		return TestResult{}, err
	}
	if conn == nil {
		return TestResult{}, ErrNotConnected
	}

	result := r.TestConnection(ctx, conn.SiteURL)
	if err := r.store.RecordTest(ctx, conn.ID, result); err != nil {
		return result, fmt.Errorf("recording test result: %w", err)
	}
	return result, nil
}

// Disconnect clears the agent's connection. deleteSyncedData must be an
// explicit caller decision; when set, every sync record that originated
// from this connection is deleted in the same transaction.
func (r *Registry) Disconnect(ctx context.Context, agentID string, deleteSyncedData bool) error {
	conn, err := r.store.GetByAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if conn == nil {
		return ErrNotConnected
	}
	return r.store.Delete(ctx, conn.ID, deleteSyncedData)
}

// Get returns the agent's connection, or ErrNotConnected.
func (r *Registry) Get(ctx context.Context, agentID string) (*SiteConnection, error) {
	conn, err := r.store.GetByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrNotConnected
	}
	return conn, nil
}
