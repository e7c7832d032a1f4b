// Package scheduler drives periodic work: imports on their configured
// intervals and a staleness sweep over the knowledge ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/knowledge"
	"github.com/ziadkadry99/parksync/internal/syncer"
)

// sweepSpec is how often the ledger is checked for outdated sources.
const sweepSpec = "@every 1h"

// Scheduler owns the cron runner. Entries are derived from the agent's
// configured intervals; manual intervals get no entry.
type Scheduler struct {
	cron    *cron.Cron
	orch    *syncer.Orchestrator
	ledger  *knowledge.Ledger
	agentID string
}

// New builds a scheduler. ledger may be nil to disable the sweep.
func New(orch *syncer.Orchestrator, ledger *knowledge.Ledger, agentID string) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		orch:    orch,
		ledger:  ledger,
		agentID: agentID,
	}
}

// Configure registers the cron entries for the given config. Call once
// before Start; changing intervals means building a new scheduler.
func (s *Scheduler) Configure(cfg *config.Config) error {
	for _, kind := range []config.SyncKind{config.KindCommunity, config.KindHome} {
		ep := cfg.Endpoint(kind)
		d, ok := ep.SyncInterval.Duration()
		if !ok {
			continue
		}
		kind := kind
		_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", d), func() {
			s.runSync(kind)
		})
		if err != nil {
			return fmt.Errorf("scheduling %s sync: %w", kind, err)
		}
	}

	if s.ledger != nil {
		if _, err := s.cron.AddFunc(sweepSpec, s.sweep); err != nil {
			return fmt.Errorf("scheduling knowledge sweep: %w", err)
		}
	}
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runSync(kind config.SyncKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := s.orch.Run(ctx, s.agentID, kind, syncer.Options{})
	if err != nil {
		// An overlapping manual run is fine; the work is already happening.
		if errors.Is(err, syncer.ErrSyncInProgress) {
			return
		}
		log.Printf("scheduled %s sync failed: %v", kind, err)
		return
	}
	log.Printf("scheduled %s sync: %d imported, %d updated, %d unchanged, %d failed",
		kind, result.Imported, result.Updated, result.Unchanged, result.Failed)
}

// sweep reprocesses every source that is due for a refresh, either
// because its interval elapsed or because its upstream content no
// longer matches the last ingested hash. Sources mid-processing are
// skipped by the ledger itself.
func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	all, err := s.ledger.Store().ListAll(ctx)
	if err != nil {
		log.Printf("knowledge sweep: %v", err)
		return
	}
	now := time.Now()
	for _, src := range all {
		if !s.ledger.IsSourceOutdated(ctx, &src, now) {
			continue
		}
		if err := s.ledger.Process(ctx, src.ID); err != nil {
			log.Printf("knowledge sweep: refreshing %q: %v", src.Name, err)
		}
	}
}
