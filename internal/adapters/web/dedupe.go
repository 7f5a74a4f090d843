package web

import (
	"context"
	"sync"
	"time"
)

const (
	seenTTL       = 5 * time.Minute
	sweepInterval = 10 * time.Minute
)

// seenStore is a thread-safe in-memory record of already-processed message
// ids. The chat gateway delivers at-least-once and redelivers within seconds,
// so a short retention window with no persistence across restarts is enough.
// Single-process only: a horizontally scaled deployment would need a shared
// store with TTL instead.
type seenStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newSeenStore() *seenStore {
	return &seenStore{seen: make(map[string]time.Time)}
}

// remember returns false when the id was already recorded inside the
// retention window; otherwise it records the id and returns true. The empty
// id is never recorded: deduplication fails open when the gateway omits it.
func (s *seenStore) remember(id string) bool {
	if id == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if at, ok := s.seen[id]; ok && time.Since(at) <= seenTTL {
		return false
	}
	s.seen[id] = time.Now()
	return true
}

func (s *seenStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// sweep drops entries older than the retention window.
func (s *seenStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, at := range s.seen {
		if now.Sub(at) > seenTTL {
			delete(s.seen, id)
		}
	}
}

// startSweep runs sweep on a fixed timer, independent of request handling.
func (s *seenStore) startSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(time.Now())
			}
		}
	}()
}
