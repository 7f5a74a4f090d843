package web

import (
	"testing"
	"time"
)

func TestSeenStore_Remember(t *testing.T) {
	s := newSeenStore()

	if !s.remember("msg-1") {
		t.Error("first sighting must be accepted")
	}
	if s.remember("msg-1") {
		t.Error("second sighting within the window must be rejected")
	}
	if !s.remember("msg-2") {
		t.Error("a different id must be accepted")
	}
	if s.size() != 2 {
		t.Errorf("expected 2 recorded ids, got %d", s.size())
	}
}

func TestSeenStore_EmptyIDFailsOpen(t *testing.T) {
	s := newSeenStore()

	if !s.remember("") {
		t.Error("missing id must not be treated as duplicate")
	}
	if !s.remember("") {
		t.Error("missing id must never be recorded")
	}
	if s.size() != 0 {
		t.Errorf("expected empty store, got %d entries", s.size())
	}
}

func TestSeenStore_SweepDropsExpired(t *testing.T) {
	s := newSeenStore()
	s.remember("old")
	s.remember("fresh")
	s.mu.Lock()
	s.seen["old"] = time.Now().Add(-2 * seenTTL)
	s.mu.Unlock()

	s.sweep(time.Now())

	if s.size() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", s.size())
	}
	if !s.remember("old") {
		t.Error("a swept id must be accepted again")
	}
}
