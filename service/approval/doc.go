// Package approval holds the human-in-the-loop authorization domain: the
// approval request entity with its state machine, the store contract that
// guards concurrent transitions, and the event envelope published when a
// request is created or resolved.
package approval
