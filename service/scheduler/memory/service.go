// Package memory provides an in-memory scheduler used by tests and by
// embedders that wire the approval workflow before a real job system exists.
// It records every handoff so the trail from approval to execution stays
// inspectable.
package memory

import (
	"context"
	"time"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/internal/idgen"
	"github.com/jobgate/jobgate/service/dao"
	"github.com/jobgate/jobgate/service/dao/store"
	"github.com/jobgate/jobgate/service/scheduler"
)

// Execution is a recorded handoff of an approved action.
type Execution struct {
	ID          string                 `json:"id"`
	Resource    string                 `json:"resource"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Meta        scheduler.Metadata     `json:"meta"`
	ScheduledAt time.Time              `json:"scheduledAt"`
}

func executionKey(e *Execution) string { return e.ID }

// Service records scheduled executions in a generic memory store.
type Service struct {
	executions dao.Service[string, Execution]
}

// New creates an empty in-memory scheduler.
func New() *Service {
	return &Service{
		executions: store.NewMemoryStore[string, Execution](executionKey),
	}
}

// Schedule records the handoff and returns a fresh execution handle.
func (s *Service) Schedule(ctx context.Context, resource string, parameters map[string]interface{}, meta scheduler.Metadata) (string, error) {
	execution := &Execution{
		ID:          idgen.New(),
		Resource:    resource,
		Parameters:  parameters,
		Meta:        meta,
		ScheduledAt: clock.Now(),
	}
	if err := s.executions.Save(ctx, execution); err != nil {
		return "", err
	}
	return execution.ID, nil
}

// Execution returns the recorded handoff for a handle, or dao.ErrNotFound
// when the handle is unknown.
func (s *Service) Execution(ctx context.Context, handle string) (*Execution, error) {
	return s.executions.Load(ctx, handle)
}

// Executions lists every recorded handoff.
func (s *Service) Executions(ctx context.Context) ([]*Execution, error) {
	return s.executions.List(ctx)
}

var _ scheduler.Service = (*Service)(nil)
