// Package notify delivers approval-request notifications to a configured
// webhook endpoint.  Delivery is best effort and fully decoupled from the
// workflow: a single POST attempt per request on a detached goroutine, with
// failures logged and swallowed.  The approval record itself remains the
// source of truth; a lost notification only loses convenience.
package notify
