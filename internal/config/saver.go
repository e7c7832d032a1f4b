package config

import (
	"sync"
	"time"
)

// Saver coalesces rapid successive config edits into a single persisted
// write of the final value. Each Set overwrites the pending slot and
// restarts the timer; only the last value within the window reaches disk.
type Saver struct {
	path   string
	delay  time.Duration
	writeF func(*Config, string) error

	mu      sync.Mutex
	pending *Config
	timer   *time.Timer
	lastErr error
}

// NewSaver creates a Saver writing to path after the given quiet period.
// A delay of zero falls back to one second.
func NewSaver(path string, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = time.Second
	}
	return &Saver{
		path:   path,
		delay:  delay,
		writeF: (*Config).Save,
	}
}

// Set stages cfg as the next value to persist, replacing any value staged
// earlier in the window.
func (s *Saver) Set(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cfg
	s.pending = &c

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		s.Flush()
	})
}

// Flush writes the pending value immediately, if any. It returns the write
// error, which is also retained for Err.
func (s *Saver) Flush() error {
	s.mu.Lock()
	cfg := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if cfg == nil {
		return nil
	}
	err := s.writeF(cfg, s.path)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// Err returns the error from the most recent flush, if any.
func (s *Saver) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
