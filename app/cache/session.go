// Package cache holds the session-tier briefing store and the edge-tier
// key-value cache.
package cache

import (
	"sync"
	"time"

	"github.com/geobrief/geobrief/app/feed"
)

type Freshness string

const (
	FreshnessFresh Freshness = "FRESH"
	FreshnessStale Freshness = "STALE"
	FreshnessNone  Freshness = "NONE"
)

// SessionStore holds the current briefing for this process. It has a
// single writer (the background refresh task) and any number of
// readers. The briefing value is replaced wholesale, never mutated, so
// readers always see a consistent snapshot.
type SessionStore struct {
	mu         sync.RWMutex
	current    *feed.Briefing
	replacedAt time.Time
	staleAfter time.Duration
	subs       []chan struct{}
}

func NewSessionStore(staleAfter time.Duration) *SessionStore {
	return &SessionStore{staleAfter: staleAfter}
}

// Replace swaps in a new briefing and notifies subscribers. Notification
// is non-blocking: a subscriber that has not drained its channel misses
// nothing, since it reads the latest value on wake-up anyway.
func (s *SessionStore) Replace(briefing *feed.Briefing) {
	s.mu.Lock()
	s.current = briefing
	s.replacedAt = time.Now()
	subs := make([]chan struct{}, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}

// Current returns the stored briefing and its freshness. A stale value
// is still returned immediately; triggering a refresh is the caller's
// concern.
func (s *SessionStore) Current() (*feed.Briefing, Freshness) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, FreshnessNone
	}
	if time.Since(s.replacedAt) > s.staleAfter {
		return s.current, FreshnessStale
	}
	return s.current, FreshnessFresh
}

// Subscribe returns a channel that receives a signal after each replace.
func (s *SessionStore) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, ch)

	return ch
}
