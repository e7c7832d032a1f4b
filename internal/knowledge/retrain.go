package knowledge

import (
	"context"
	"fmt"
	"sync"
)

// retrainWorkers bounds ingestion concurrency. Embedding calls dominate
// the cost; two in flight keeps the provider happy.
const retrainWorkers = 2

// RetrainResult summarizes a full retrain.
type RetrainResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// RetrainProgress is called as each source finishes.
type RetrainProgress func(done, total int, src *Source, err error)

// Retrain reprocesses every root source in the ledger. Each root is
// one unit of work and one unit in the counts: a crawl root succeeds
// when its whole re-walk does, a plain source when its own ingest
// does. Roots already mid-processing are skipped and not counted
// either way. Failures are isolated per root.
func (l *Ledger) Retrain(ctx context.Context, progress RetrainProgress) (*RetrainResult, error) {
	all, err := l.store.ListRoots(ctx)
	if err != nil {
		return nil, err
	}
	var roots []Source
	for _, src := range all {
		if src.Status != StatusProcessing {
			roots = append(roots, src)
		}
	}

	result := &RetrainResult{}
	var mu sync.Mutex
	done := 0

	sem := make(chan struct{}, retrainWorkers)
	var wg sync.WaitGroup
	for i := range roots {
		src := roots[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := l.retrainRoot(ctx, &src)

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				result.Failed++
			} else {
				result.Success++
			}
			if progress != nil {
				progress(done, len(roots), &src, err)
			}
		}()
	}
	wg.Wait()
	return result, nil
}

// retrainRoot refreshes one root. A root with children is a crawl: the
// refresher re-walks it when installed, otherwise the recorded pages
// are reprocessed in place. A childless root is ingested directly.
func (l *Ledger) retrainRoot(ctx context.Context, root *Source) error {
	children, err := l.store.ListChildren(ctx, root.ID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return l.Process(ctx, root.ID)
	}

	if l.refresher != nil {
		return l.refresher.Refresh(ctx, l, root)
	}

	var firstErr error
	for _, child := range children {
		if child.Status == StatusProcessing {
			continue
		}
		if err := l.Process(ctx, child.ID); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("page %q: %w", child.Name, err)
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return l.store.FinishProcessing(ctx, root.ID, 0, "", nil)
}
