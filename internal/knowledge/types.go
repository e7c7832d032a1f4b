// Package knowledge tracks every source feeding the agent's knowledge
// base: uploaded documents, crawled pages, and records imported from
// the connected site. Sources form a forest; a crawl root owns one
// child per discovered page.
package knowledge

import (
	"time"

	"github.com/ziadkadry99/parksync/internal/config"
)

// SourceType distinguishes how a source's content is obtained.
type SourceType string

const (
	SourceDocument SourceType = "document"
	SourceURL      SourceType = "url"
	SourceSynced   SourceType = "synced"
)

// Status is the processing state of a source.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
)

// Source is one entry in the knowledge ledger.
type Source struct {
	ID              string     `json:"id"`
	ParentID        *string    `json:"parent_id,omitempty"`
	SourceType      SourceType `json:"source_type"`
	Name            string     `json:"name"`
	Location        string     `json:"location"`
	Status          Status     `json:"status"`
	Error           string     `json:"error,omitempty"`
	ChunkCount      int        `json:"chunk_count"`
	LastContentHash string     `json:"-"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	RefreshInterval string     `json:"refresh_interval"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsOutdated reports whether the source is due for a refresh. It is
// derived, never stored: a source with a periodic interval is outdated
// once the interval has elapsed since its last successful sync.
func (s *Source) IsOutdated(now time.Time) bool {
	interval := config.SyncInterval(s.RefreshInterval)
	d, ok := interval.Duration()
	if !ok {
		return false
	}
	if s.LastSyncedAt == nil {
		return true
	}
	return now.Sub(*s.LastSyncedAt) >= d
}
