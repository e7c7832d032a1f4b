package knowledge

import (
	"context"
	"fmt"
	"time"
)

// Ingester turns a source's content into embedded chunks. The ledger
// owns state transitions; the ingester only does the content work.
type Ingester interface {
	// Ingest processes one source and returns the chunk count and a hash
	// of the content it saw.
	Ingest(ctx context.Context, src *Source) (chunks int, contentHash string, err error)
	// Remove drops all chunks belonging to the given sources.
	Remove(ctx context.Context, sourceIDs []string) error
	// ContentHash hashes the source's current upstream content without
	// chunking or embedding it; used to detect drift.
	ContentHash(ctx context.Context, src *Source) (string, error)
}

// Refresher re-walks a crawl root so a retrain can pick up pages that
// appeared after the original crawl.
type Refresher interface {
	Refresh(ctx context.Context, l *Ledger, root *Source) error
}

// Ledger is the service over the knowledge store. All processing goes
// through it so the processing claim is enforced in one place.
type Ledger struct {
	store     *Store
	ingester  Ingester
	refresher Refresher
}

// NewLedger wires the ledger service.
func NewLedger(store *Store, ingester Ingester) *Ledger {
	return &Ledger{store: store, ingester: ingester}
}

// SetRefresher installs the crawler used to refresh crawl roots. Left
// unset, a retrain reprocesses the pages already on record.
func (l *Ledger) SetRefresher(r Refresher) {
	l.refresher = r
}

// Store exposes the underlying store for read paths.
func (l *Ledger) Store() *Store {
	return l.store
}

// IsSourceOutdated reports whether a source is due for a refresh:
// either its refresh interval has elapsed, or its upstream content no
// longer hashes to what was last ingested. The hash check fetches the
// content, so callers should reserve this for periodic sweeps; when
// the fetch fails the source is not reported outdated.
func (l *Ledger) IsSourceOutdated(ctx context.Context, src *Source, now time.Time) bool {
	if src.IsOutdated(now) {
		return true
	}
	if src.Status != StatusReady || src.LastContentHash == "" {
		return false
	}
	hash, err := l.ingester.ContentHash(ctx, src)
	if err != nil {
		return false
	}
	return hash != src.LastContentHash
}

// Add registers a new source and processes it.
func (l *Ledger) Add(ctx context.Context, src *Source) (*Source, error) {
	created, err := l.store.Create(ctx, src)
	if err != nil {
		return nil, err
	}
	procErr := l.Process(ctx, created.ID)
	// A processing failure still leaves the source in the ledger, in
	// error state, so return it alongside the error.
	loaded, loadErr := l.store.Get(ctx, created.ID)
	if loadErr != nil {
		return nil, loadErr
	}
	return loaded, procErr
}

// Process runs one source through the ingester. A source already being
// processed is left alone: the call is a silent no-op, never a queue.
func (l *Ledger) Process(ctx context.Context, id string) error {
	claimed, err := l.store.ClaimProcessing(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	src, err := l.store.Get(ctx, id)
	if err != nil {
		return err
	}
	chunks, hash, procErr := l.ingester.Ingest(ctx, src)
	if err := l.store.FinishProcessing(ctx, id, chunks, hash, procErr); err != nil {
		return err
	}
	if procErr != nil {
		return fmt.Errorf("processing %q: %w", src.Name, procErr)
	}
	return nil
}

// Reprocess refreshes an existing source's content. Semantically the
// same as Process; the name marks the user-facing retry/refresh intent.
func (l *Ledger) Reprocess(ctx context.Context, id string) error {
	if _, err := l.store.Get(ctx, id); err != nil {
		return err
	}
	return l.Process(ctx, id)
}

// RetryChild reprocesses one child of a root, verifying the relation so
// a stale id cannot touch an unrelated source.
func (l *Ledger) RetryChild(ctx context.Context, rootID, childID string) error {
	child, err := l.store.Get(ctx, childID)
	if err != nil {
		return err
	}
	if child.ParentID == nil || *child.ParentID != rootID {
		return fmt.Errorf("source %s is not a child of %s", childID, rootID)
	}
	return l.Process(ctx, childID)
}

// Delete removes a source with its whole subtree and purges the
// corresponding chunks from the vector store.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	ids, err := l.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	return l.ingester.Remove(ctx, ids)
}

// DeleteChild removes one child of a root, verifying the relation.
func (l *Ledger) DeleteChild(ctx context.Context, rootID, childID string) error {
	child, err := l.store.Get(ctx, childID)
	if err != nil {
		return err
	}
	if child.ParentID == nil || *child.ParentID != rootID {
		return fmt.Errorf("source %s is not a child of %s", childID, rootID)
	}
	return l.Delete(ctx, childID)
}
