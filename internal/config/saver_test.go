package config

import (
	"sync"
	"testing"
	"time"
)

// recordingWriter captures flushed configs in place of disk writes.
type recordingWriter struct {
	mu     sync.Mutex
	writes []string
}

func (w *recordingWriter) write(cfg *Config, _ string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, cfg.SiteURL)
	return nil
}

func (w *recordingWriter) all() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.writes...)
}

func TestSaverCoalescesRapidEdits(t *testing.T) {
	rec := &recordingWriter{}
	s := NewSaver("unused.yml", 40*time.Millisecond)
	s.writeF = rec.write

	for _, u := range []string{"https://a.com", "https://b.com", "https://c.com"} {
		cfg := DefaultConfig()
		cfg.SiteURL = u
		s.Set(cfg)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)

	writes := rec.all()
	if len(writes) != 1 {
		t.Fatalf("expected exactly 1 coalesced write, got %d (%v)", len(writes), writes)
	}
	if writes[0] != "https://c.com" {
		t.Errorf("persisted value = %q, want final edit", writes[0])
	}
}

func TestSaverFlushWritesImmediately(t *testing.T) {
	rec := &recordingWriter{}
	s := NewSaver("unused.yml", time.Hour)
	s.writeF = rec.write

	cfg := DefaultConfig()
	cfg.SiteURL = "https://flush.example"
	s.Set(cfg)

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := rec.all(); len(got) != 1 || got[0] != "https://flush.example" {
		t.Fatalf("writes = %v", got)
	}

	// A second flush with nothing pending is a no-op.
	if err := s.Flush(); err != nil {
		t.Fatalf("empty Flush: %v", err)
	}
	if got := rec.all(); len(got) != 1 {
		t.Fatalf("empty flush wrote: %v", got)
	}
}
