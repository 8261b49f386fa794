package jobgate

import (
	"context"
	"time"

	"github.com/jobgate/jobgate/service/approval"
	"github.com/jobgate/jobgate/service/identity"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve,
//
//	(false, "…") to reject with reason.
type DecisionFunc func(r *approval.Request) (approved bool, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request on behalf of decider.  It returns stop() - call it (or
// cancel ctx) to exit.  Intended for automation and tests; interactive
// reviewers go through Approve/Reject directly.
func AutoDecider(ctx context.Context, svc *Service, decider identity.Identity, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.ListPending(ctx)
				for _, r := range requests {
					if ok, reason := fn(r); ok {
						_, _ = svc.Approve(ctx, r.ID, decider)
					} else {
						_, _ = svc.Reject(ctx, r.ID, decider, reason)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests.
func AutoApprove(ctx context.Context, svc *Service, decider identity.Identity, interval time.Duration) func() {
	return AutoDecider(ctx, svc, decider,
		func(*approval.Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given
// reason.
func AutoReject(ctx context.Context, svc *Service, decider identity.Identity, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, decider,
		func(*approval.Request) (bool, string) { return false, reason }, interval)
}
