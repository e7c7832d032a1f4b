package syncer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ziadkadry99/parksync/internal/config"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	if got := tr.State("c1", config.KindHome); got != StateIdle {
		t.Fatalf("fresh pair state = %q, want idle", got)
	}
	if err := tr.Begin("c1", config.KindHome); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if got := tr.State("c1", config.KindHome); got != StateTesting {
		t.Fatalf("state after Begin = %q, want testing", got)
	}
	if err := tr.StartImport("c1", config.KindHome); err != nil {
		t.Fatalf("StartImport: %v", err)
	}
	tr.Finish("c1", config.KindHome, nil)
	if got := tr.State("c1", config.KindHome); got != StateIdle {
		t.Fatalf("state after Finish = %q, want idle", got)
	}
}

func TestTrackerRejectsConcurrentRun(t *testing.T) {
	tr := NewTracker()
	if err := tr.Begin("c1", config.KindHome); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := tr.Begin("c1", config.KindHome); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("second Begin err = %v, want ErrSyncInProgress", err)
	}

	// The other kind on the same connection is independent.
	if err := tr.Begin("c1", config.KindCommunity); err != nil {
		t.Fatalf("Begin for other kind: %v", err)
	}
}

func TestTrackerErrorStateAdmitsRetry(t *testing.T) {
	tr := NewTracker()
	if err := tr.Begin("c1", config.KindCommunity); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	tr.Finish("c1", config.KindCommunity, fmt.Errorf("boom"))
	if got := tr.State("c1", config.KindCommunity); got != StateError {
		t.Fatalf("state after failed run = %q, want error", got)
	}
	if err := tr.Begin("c1", config.KindCommunity); err != nil {
		t.Fatalf("Begin after error: %v", err)
	}
}
