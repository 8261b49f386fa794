// Package jobgate gates sensitive automated actions behind a human-in-the-loop
// approval workflow.
//
// A caller asks the gate whether a named resource is protected; if so it
// creates an approval request that is held PENDING while reviewers are
// notified through a webhook.  The action runs only once an authorized party
// approves the request, and is blocked when it is rejected or left to
// expire.  Pending requests are intentionally volatile - a process restart
// invalidates every outstanding approval.
//
// End-users interact with the workflow via the Service façade exposed by the
// root package:
//
//	svc := jobgate.New(jobgate.WithConfig(cfg))
//	if svc.RequiresApproval("prod-deploy") {
//		request, _ := svc.Create(ctx, "prod-deploy", params, requester)
//		// ... later, a reviewer decides:
//		approved, err := svc.Approve(ctx, request.ID, admin)
//	}
//
// See the individual sub-packages for the policy rules, the request store
// and the notification dispatcher.
package jobgate
