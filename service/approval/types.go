package approval

import (
	"errors"
	"time"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/internal/idgen"
	"github.com/jobgate/jobgate/service/identity"
)

// Status is the lifecycle state of an approval request.  PENDING is the only
// non-terminal state; every transition out of it is final.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusExpired  Status = "EXPIRED"
)

// Terminal reports whether the status is a final state.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Common, reusable approval errors.  Sentinel variables let callers detect
// conditions via errors.Is instead of brittle string comparisons.
var (
	// ErrNotFound is returned when the requested id does not exist in the
	// store.
	ErrNotFound = errors.New("approval: request not found")

	// ErrInvalidState is returned when a transition is attempted on a
	// request that is no longer pending (already decided or expired).
	ErrInvalidState = errors.New("approval: request is not pending")

	// ErrDuplicateID indicates an id collision on insert.  Ids carry enough
	// entropy that this signals a caller bug rather than bad luck.
	ErrDuplicateID = errors.New("approval: duplicate request id")
)

// Request tracks a single authorization decision for a protected resource.
//
// The identification and timing fields are fixed at creation; only the
// resolution fields change afterwards, exactly once, on the transition out
// of PENDING.  A Request is not safe for concurrent mutation on its own;
// the store serialises transitions per entry and hands out snapshot copies,
// so callers never hold the live instance.
type Request struct {
	ID                   string                 `json:"id"`
	Resource             string                 `json:"resource"`
	Parameters           map[string]interface{} `json:"parameters,omitempty"`
	RequesterID          string                 `json:"requesterId"`
	RequesterDisplayName string                 `json:"requesterDisplayName"`
	CreatedAt            time.Time              `json:"createdAt"`
	ExpiresAt            time.Time              `json:"expiresAt"`

	Status           Status    `json:"status"`
	ResolvedBy       string    `json:"resolvedBy,omitempty"`
	ResolutionReason string    `json:"resolutionReason,omitempty"`
	ResolvedAt       time.Time `json:"resolvedAt,omitempty"`

	// ExecutionID identifies the action triggered after approval; empty when
	// the request was not approved or the scheduler handoff failed.
	ExecutionID string `json:"executionId,omitempty"`
}

// NewRequest builds a PENDING request for the supplied resource with a
// deadline of now+timeout.
func NewRequest(resource string, parameters map[string]interface{}, requester identity.Identity, timeout time.Duration) *Request {
	now := clock.Now()
	return &Request{
		ID:                   idgen.New(),
		Resource:             resource,
		Parameters:           parameters,
		RequesterID:          requester.ID,
		RequesterDisplayName: requester.DisplayName,
		CreatedAt:            now,
		ExpiresAt:            now.Add(timeout),
		Status:               StatusPending,
	}
}

// Expired reports whether the deadline has passed, regardless of status.
func (r *Request) Expired() bool {
	return clock.Now().After(r.ExpiresAt)
}

// IsPending reports whether the request can still be decided.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending && !r.Expired()
}

// TimeRemaining returns the duration until the deadline, floored at zero.
func (r *Request) TimeRemaining() time.Duration {
	remaining := r.ExpiresAt.Sub(clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Approve transitions PENDING -> APPROVED.  A pending request whose deadline
// already passed is first resolved to EXPIRED and the call fails with
// ErrInvalidState.
func (r *Request) Approve(approver string) error {
	if err := r.ensurePending(); err != nil {
		return err
	}
	r.Status = StatusApproved
	r.ResolvedBy = approver
	r.ResolvedAt = clock.Now()
	return nil
}

// Reject transitions PENDING -> REJECTED with the supplied reason.  Same
// precondition as Approve.
func (r *Request) Reject(rejecter, reason string) error {
	if err := r.ensurePending(); err != nil {
		return err
	}
	r.Status = StatusRejected
	r.ResolvedBy = rejecter
	r.ResolutionReason = reason
	r.ResolvedAt = clock.Now()
	return nil
}

// Expire transitions PENDING -> EXPIRED; a no-op when already terminal.
func (r *Request) Expire() {
	if r.Status != StatusPending {
		return
	}
	r.Status = StatusExpired
	r.ResolvedAt = clock.Now()
}

// RecordExecution stores the handle of the action triggered after approval.
// It is set at most once and only on an APPROVED request.
func (r *Request) RecordExecution(handle string) error {
	if r.Status != StatusApproved || r.ExecutionID != "" {
		return ErrInvalidState
	}
	r.ExecutionID = handle
	return nil
}

func (r *Request) ensurePending() error {
	if r.Status == StatusPending && r.Expired() {
		r.Expire()
	}
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	return nil
}

// Clone returns a deep-enough copy for handing out to callers: the parameter
// map is copied so that a snapshot can never mutate the stored entry.
func (r *Request) Clone() *Request {
	ret := *r
	if r.Parameters != nil {
		params := make(map[string]interface{}, len(r.Parameters))
		for k, v := range r.Parameters {
			params[k] = v
		}
		ret.Parameters = params
	}
	return &ret
}
