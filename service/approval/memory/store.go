// Package memory provides the in-memory approval.Store used by default.
// Entries are volatile on purpose: a process restart invalidates every
// outstanding approval.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/service/approval"
)

// entry pairs a stored request with its own lock so that transitions on
// different ids never serialise against each other.
type entry struct {
	mu      sync.Mutex
	request *approval.Request
}

// lazyExpire resolves a pending entry whose deadline passed.  Callers must
// hold the entry lock.  It reports whether the entry expired on this read.
func (e *entry) lazyExpire() bool {
	if e.request.Status == approval.StatusPending && e.request.Expired() {
		e.request.Expire()
		return true
	}
	return false
}

// Store keeps approval requests keyed by id.  The map lock guards entry
// lookup and membership only; per-entry mutation happens under the entry
// lock, so the critical section for a transition is bounded to a single id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// onExpire, when set, is invoked with a snapshot after a lazy expiry
	// resolved an entry.  Called outside any store lock.
	onExpire func(*approval.Request)
}

// Option customises the store.
type Option func(*Store)

// WithExpiryListener registers fn to be called whenever a lazy expiry check
// transitions an entry to EXPIRED.
func WithExpiryListener(fn func(*approval.Request)) Option {
	return func(s *Store) { s.onExpire = fn }
}

// New creates an empty store.
func New(options ...Option) *Store {
	ret := &Store{entries: make(map[string]*entry)}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Put inserts a new request; an existing id fails with ErrDuplicateID.
func (s *Store) Put(_ context.Context, request *approval.Request) error {
	if request == nil || request.ID == "" {
		return errors.New("invalid request")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[request.ID]; ok {
		return approval.ErrDuplicateID
	}
	s.entries[request.ID] = &entry{request: request.Clone()}
	return nil
}

// Get returns a snapshot of the request, resolving lazy expiry first.
func (s *Store) Get(_ context.Context, id string) (*approval.Request, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, approval.ErrNotFound
	}
	e.mu.Lock()
	expired := e.lazyExpire()
	snapshot := e.request.Clone()
	e.mu.Unlock()
	if expired {
		s.notifyExpired(snapshot)
	}
	return snapshot, nil
}

// ListPending sweeps every entry for expiry and returns snapshots of those
// still pending.
func (s *Store) ListPending(_ context.Context) ([]*approval.Request, error) {
	s.mu.RLock()
	all := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		all = append(all, e)
	}
	s.mu.RUnlock()

	var pending []*approval.Request
	var expired []*approval.Request
	for _, e := range all {
		e.mu.Lock()
		if e.lazyExpire() {
			expired = append(expired, e.request.Clone())
		} else if e.request.IsPending() {
			pending = append(pending, e.request.Clone())
		}
		e.mu.Unlock()
	}
	for _, snapshot := range expired {
		s.notifyExpired(snapshot)
	}
	return pending, nil
}

// Transition applies fn to the live entry under its lock, after the lazy
// expiry check.  The returned snapshot reflects the entry after fn ran, also
// when fn failed, so racing losers can observe the winning terminal state.
func (s *Store) Transition(_ context.Context, id string, fn func(*approval.Request) error) (*approval.Request, error) {
	e := s.lookup(id)
	if e == nil {
		return nil, approval.ErrNotFound
	}
	e.mu.Lock()
	expired := e.lazyExpire()
	err := fn(e.request)
	snapshot := e.request.Clone()
	e.mu.Unlock()
	if expired {
		s.notifyExpired(snapshot)
	}
	return snapshot, err
}

// SweepRetention removes resolved entries older than maxAge.  Entries still
// pending (including unexpired ones past no deadline) are never removed.
func (s *Store) SweepRetention(_ context.Context, maxAge time.Duration) (int, error) {
	cutoff := clock.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		resolvedAt := e.request.ResolvedAt
		e.mu.Unlock()
		if !resolvedAt.IsZero() && resolvedAt.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Size returns the current number of stored entries, resolved included.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) lookup(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

func (s *Store) notifyExpired(snapshot *approval.Request) {
	if s.onExpire != nil {
		s.onExpire(snapshot)
	}
}

var _ approval.Store = (*Store)(nil)
