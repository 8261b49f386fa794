// Package identity supplies the caller principal consumed by the approval
// workflow.  The actual user directory is an external collaborator; this
// package only defines the snapshot the workflow records and the context
// plumbing used to carry it through call chains.
package identity

import "context"

// Identity is a point-in-time snapshot of a principal.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Anonymous is the sentinel identity used when no caller principal is
// available.
var Anonymous = Identity{ID: "anonymous", DisplayName: "Anonymous (API)"}

// Resolver supplies the identity of the current caller.
type Resolver interface {
	Resolve(ctx context.Context) Identity
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(ctx context.Context) Identity

func (f ResolverFunc) Resolve(ctx context.Context) Identity { return f(ctx) }

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithIdentity embeds the identity in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, id)
}

// FromContext extracts the identity from ctx, falling back to Anonymous.
func FromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Anonymous
	}
	if v, ok := ctx.Value(ctxKey).(Identity); ok {
		return v
	}
	return Anonymous
}
