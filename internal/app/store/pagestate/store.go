// internal/app/store/pagestate/store.go
package pagestate

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown, expired, or foreign page id.
var ErrNotFound = errors.New("pagestate: not found")

// DefaultMaxPerOwner is how many pages one user may hold open.
const DefaultMaxPerOwner = 20

type entry[T any] struct {
	owner    string
	value    T
	lastUsed time.Time
}

// Store keeps per-page state in memory, keyed by a random page id and
// bound to the user that created it. Entries idle longer than the TTL
// are removed by Sweep. Each owner holds at most maxPerOwner entries; Put
// evicts the owner's least recently used entry beyond that.
//
// Values live only in this process, so a restart or a second replica
// shows the page-expired message and the user reloads.
type Store[T any] struct {
	mu          sync.Mutex
	entries     map[string]*entry[T]
	ttl         time.Duration
	maxPerOwner int
	now         func() time.Time
}

// New creates a Store whose entries expire after ttl of inactivity.
func New[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		entries:     make(map[string]*entry[T]),
		ttl:         ttl,
		maxPerOwner: DefaultMaxPerOwner,
		now:         time.Now,
	}
}

// WithMaxPerOwner sets the per-owner entry limit; n <= 0 removes it.
func (s *Store[T]) WithMaxPerOwner(n int) *Store[T] {
	s.mu.Lock()
	s.maxPerOwner = n
	s.mu.Unlock()
	return s
}

// Put stores v for owner and returns its page id. When owner is at the
// limit, their least recently used entries are dropped first.
func (s *Store[T]) Put(owner string, v T) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxPerOwner > 0 {
		s.evictLocked(owner, s.maxPerOwner-1)
	}
	s.entries[id] = &entry[T]{owner: owner, value: v, lastUsed: s.now()}
	return id
}

// evictLocked drops owner's least recently used entries until at most
// keep remain. s.mu must be held.
func (s *Store[T]) evictLocked(owner string, keep int) {
	for {
		var (
			oldestID string
			oldest   time.Time
			n        int
		)
		for id, e := range s.entries {
			if e.owner != owner {
				continue
			}
			n++
			if oldestID == "" || e.lastUsed.Before(oldest) {
				oldestID, oldest = id, e.lastUsed
			}
		}
		if n <= keep {
			return
		}
		delete(s.entries, oldestID)
	}
}

// Get returns the value for id when owner created it and it has not
// expired. A hit refreshes the entry's idle timer.
func (s *Store[T]) Get(id, owner string) (T, error) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.owner != owner {
		return zero, ErrNotFound
	}
	now := s.now()
	if s.ttl > 0 && now.Sub(e.lastUsed) > s.ttl {
		delete(s.entries, id)
		return zero, ErrNotFound
	}
	e.lastUsed = now
	return e.value, nil
}

// Delete removes id if owner created it.
func (s *Store[T]) Delete(id, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && e.owner == owner {
		delete(s.entries, id)
	}
}

// DeleteOwner removes every entry owned by owner (used on logout).
func (s *Store[T]) DeleteOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.owner == owner {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.entries {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
