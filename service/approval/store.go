package approval

import (
	"context"
	"time"
)

// Store is a concurrent keyed store of approval requests.
//
// Expiry is lazy: Get, ListPending and Transition resolve a pending entry
// whose deadline has passed to EXPIRED before acting, so readers never
// observe a stale PENDING flag.  All read operations return snapshot copies;
// the live entry is mutated only through Transition.
type Store interface {
	// Put inserts a new request.  An id collision fails with ErrDuplicateID
	// rather than silently overwriting.
	Put(ctx context.Context, request *Request) error

	// Get returns a snapshot of the request or ErrNotFound.
	Get(ctx context.Context, id string) (*Request, error)

	// ListPending sweeps every entry for expiry and returns snapshots of
	// those still pending.
	ListPending(ctx context.Context) ([]*Request, error)

	// Transition applies fn to the live entry under its lock, after the lazy
	// expiry check.  At most one of several racing transitions wins; losers
	// observe the terminal state inside fn and report ErrInvalidState.  The
	// returned snapshot reflects the entry after fn ran (also on failure, so
	// callers can inspect the winning state).
	Transition(ctx context.Context, id string, fn func(*Request) error) (*Request, error)

	// SweepRetention removes resolved entries older than maxAge, returning
	// the number removed.  Pending entries are never removed.
	SweepRetention(ctx context.Context, maxAge time.Duration) (int, error)
}
