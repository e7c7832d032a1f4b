package syncer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ziadkadry99/parksync/internal/config"
)

// State is the sync state of one (connection, kind) pair.
type State string

const (
	StateIdle      State = "idle"
	StateTesting   State = "testing"
	StateImporting State = "importing"
	StateError     State = "error"
)

// ErrSyncInProgress signals that a run is already active for the pair.
// Callers should not retry automatically; the active run will finish on
// its own.
var ErrSyncInProgress = errors.New("sync already in progress")

// Tracker is the state machine guarding import runs. Transitions are the
// only mutation path; at most one run per (connection, kind) is active.
type Tracker struct {
	mu     sync.Mutex
	states map[string]State
}

// NewTracker creates an empty Tracker; unknown pairs are idle.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]State)}
}

func key(connectionID string, kind config.SyncKind) string {
	return connectionID + "/" + string(kind)
}

// State returns the current state of a pair.
func (t *Tracker) State(connectionID string, kind config.SyncKind) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.states[key(connectionID, kind)]; ok {
		return s
	}
	return StateIdle
}

// Begin moves a pair into testing. Only idle and error admit a new run;
// anything else is rejected, not queued.
func (t *Tracker) Begin(connectionID string, kind config.SyncKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(connectionID, kind)
	switch t.states[k] {
	case StateIdle, StateError, "":
		t.states[k] = StateTesting
		return nil
	default:
		return ErrSyncInProgress
	}
}

// StartImport moves a pair from testing to importing.
func (t *Tracker) StartImport(connectionID string, kind config.SyncKind) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(connectionID, kind)
	if t.states[k] != StateTesting {
		return fmt.Errorf("cannot start import from state %q", t.states[k])
	}
	t.states[k] = StateImporting
	return nil
}

// Finish ends the pair's run: back to idle on success, to error on a
// fatal failure. The error state admits the next Begin.
func (t *Tracker) Finish(connectionID string, kind config.SyncKind, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(connectionID, kind)
	if err != nil {
		t.states[k] = StateError
		return
	}
	t.states[k] = StateIdle
}
