package approval

import "time"

// View is the transport representation of a request, suitable for JSON
// serialisation towards a UI or API layer.  TimeRemainingSeconds is derived
// at rendering time and floored at zero.
type View struct {
	ID                   string                 `json:"id"`
	Resource             string                 `json:"resource"`
	Parameters           map[string]interface{} `json:"parameters,omitempty"`
	RequesterID          string                 `json:"requesterId"`
	RequesterDisplayName string                 `json:"requesterDisplayName"`
	Status               string                 `json:"status"`
	CreatedAt            time.Time              `json:"createdAt"`
	ExpiresAt            time.Time              `json:"expiresAt"`
	TimeRemainingSeconds int64                  `json:"timeRemainingSeconds"`
	ResolvedBy           string                 `json:"resolvedBy,omitempty"`
	ResolutionReason     string                 `json:"rejectionReason,omitempty"`
	ExecutionID          string                 `json:"executionId,omitempty"`
}

// View renders the request for transport.
func (r *Request) View() *View {
	return &View{
		ID:                   r.ID,
		Resource:             r.Resource,
		Parameters:           r.Parameters,
		RequesterID:          r.RequesterID,
		RequesterDisplayName: r.RequesterDisplayName,
		Status:               string(r.Status),
		CreatedAt:            r.CreatedAt,
		ExpiresAt:            r.ExpiresAt,
		TimeRemainingSeconds: int64(r.TimeRemaining() / time.Second),
		ResolvedBy:           r.ResolvedBy,
		ResolutionReason:     r.ResolutionReason,
		ExecutionID:          r.ExecutionID,
	}
}
