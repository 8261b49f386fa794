package approval

import "time"

// Standard event topics published on the approval event queue.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestResolved = "request.resolved"
	TopicRequestExpired  = "request.expired"
)

// Event is the envelope published whenever a request is created or leaves
// the PENDING state.  Request is a snapshot; consumers may retain it.
type Event struct {
	Topic     string            `json:"topic"`
	Request   *Request          `json:"request"`
	CreatedAt time.Time         `json:"createdAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}
