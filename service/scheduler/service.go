// Package scheduler defines the contract towards the external job system
// that actually runs an approved action.  The approval workflow calls
// Schedule exactly once per approval and records the returned handle; it
// never interprets the handle beyond that.
package scheduler

import "context"

// Metadata carries the causation trail of a scheduled action.
type Metadata struct {
	RequestID   string `json:"requestId"`
	RequesterID string `json:"requesterId"`
	ApprovedBy  string `json:"approvedBy"`
}

// Service schedules an approved action.  Implementations must tolerate being
// called at most once per approval and return an opaque execution handle.
type Service interface {
	Schedule(ctx context.Context, resource string, parameters map[string]interface{}, meta Metadata) (string, error)
}

// Func adapts a plain function to the Service interface.
type Func func(ctx context.Context, resource string, parameters map[string]interface{}, meta Metadata) (string, error)

func (f Func) Schedule(ctx context.Context, resource string, parameters map[string]interface{}, meta Metadata) (string, error) {
	return f(ctx, resource, parameters, meta)
}
