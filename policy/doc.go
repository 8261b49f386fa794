// Package policy implements the protection rules that decide which resources
// require a human approval before an automated action may run.  It is
// deliberately decoupled from the approval workflow so that the match logic
// can be configured and exercised on its own.
package policy
