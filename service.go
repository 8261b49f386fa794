package jobgate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jobgate/jobgate/internal/clock"
	"github.com/jobgate/jobgate/policy"
	"github.com/jobgate/jobgate/service/approval"
	amemory "github.com/jobgate/jobgate/service/approval/memory"
	"github.com/jobgate/jobgate/service/identity"
	"github.com/jobgate/jobgate/service/messaging"
	mmemory "github.com/jobgate/jobgate/service/messaging/memory"
	"github.com/jobgate/jobgate/service/notify"
	"github.com/jobgate/jobgate/service/scheduler"
	smemory "github.com/jobgate/jobgate/service/scheduler/memory"
	"github.com/jobgate/jobgate/tracing"
)

// Service orchestrates the approval workflow: it consults the protection
// policy, owns the request store, dispatches notifications and hands
// approved actions to the scheduler collaborator.  Construct one per process
// and inject it by reference into whatever consumes it (API handlers,
// automation); there is no ambient singleton.
type Service struct {
	config     *configStore
	policy     *policy.Policy
	store      approval.Store
	dispatcher *notify.Dispatcher
	scheduler  scheduler.Service
	events     messaging.Queue[approval.Event]
}

// New creates a service.  Unset collaborators fall back to the in-memory
// implementations, which keeps the workflow intentionally volatile: a
// process restart invalidates every outstanding approval.
func New(options ...Option) *Service {
	ret := &Service{config: &configStore{}}
	for _, option := range options {
		option(ret)
	}
	ret.ensureBaseSetup()
	return ret
}

func (s *Service) ensureBaseSetup() {
	if s.config.snapshot() == nil {
		s.config.update(DefaultConfig())
	}
	s.policy = policy.New(s.config.snapshot().protectionPolicy())
	if s.events == nil {
		s.events = mmemory.NewQueue[approval.Event](mmemory.DefaultConfig())
	}
	if s.store == nil {
		s.store = amemory.New(amemory.WithExpiryListener(func(request *approval.Request) {
			s.publish(approval.TopicRequestExpired, request)
		}))
	}
	if s.dispatcher == nil {
		s.dispatcher = notify.New(func() notify.Config {
			return s.config.snapshot().notification()
		})
	}
	if s.scheduler == nil {
		s.scheduler = smemory.New()
	}
}

// RequiresApproval reports whether the named resource is protected and
// therefore needs an approved request before the action may run.
func (s *Service) RequiresApproval(resource string) bool {
	return s.policy.RequiresApproval(resource)
}

// Create registers a new PENDING request for a protected resource and
// dispatches the reviewer notification asynchronously.  It returns the
// stored request immediately without waiting on delivery.
func (s *Service) Create(ctx context.Context, resource string, parameters map[string]interface{}, requester identity.Identity) (*approval.Request, error) {
	var err error
	_, span := tracing.StartSpan(ctx, "approval.create", "SERVER")
	defer func() { tracing.EndSpan(span, err) }()

	if requester.ID == "" {
		requester = identity.Anonymous
	}
	request := approval.NewRequest(resource, parameters, requester, s.config.snapshot().timeout())
	span.WithAttributes(map[string]string{"approval.request_id": request.ID, "approval.resource": resource})

	if err = s.store.Put(ctx, request); err != nil {
		return nil, err
	}
	log.Printf("approval: created request %s for resource %s by %s", request.ID, resource, requester.ID)

	s.publish(approval.TopicRequestCreated, request)
	s.dispatcher.Notify(request.Clone())
	return request, nil
}

// Get returns the request with the given id, applying lazy expiry, or
// approval.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*approval.Request, error) {
	return s.store.Get(ctx, id)
}

// ListPending returns all requests that can still be decided.
func (s *Service) ListPending(ctx context.Context) ([]*approval.Request, error) {
	return s.store.ListPending(ctx)
}

// Approve attempts the APPROVED transition and, on success, hands the action
// to the scheduler and records the returned execution handle.
//
// When the transition fails (unknown id, already decided, expired on read)
// it returns a nil request with the sentinel error and no side effects.  A
// scheduler failure after a successful transition does NOT roll the request
// back - the approval is a one-way authorization decision - so the recorded
// request is returned together with the scheduling error.
func (s *Service) Approve(ctx context.Context, id string, approver identity.Identity) (*approval.Request, error) {
	var err error
	_, span := tracing.StartSpan(ctx, "approval.approve", "SERVER")
	span.WithAttributes(map[string]string{"approval.request_id": id})
	defer func() { tracing.EndSpan(span, err) }()

	if approver.ID == "" {
		approver = identity.Anonymous
	}
	snapshot, err := s.store.Transition(ctx, id, func(r *approval.Request) error {
		return r.Approve(approver.ID)
	})
	if err != nil {
		log.Printf("approval: request %s cannot be approved: %v", id, err)
		return nil, err
	}
	log.Printf("approval: request %s approved by %s", id, approver.ID)

	handle, schedErr := s.scheduler.Schedule(ctx, snapshot.Resource, snapshot.Parameters, scheduler.Metadata{
		RequestID:   snapshot.ID,
		RequesterID: snapshot.RequesterID,
		ApprovedBy:  approver.ID,
	})
	if schedErr != nil {
		log.Printf("approval: request %s approved but scheduling %s failed: %v", id, snapshot.Resource, schedErr)
		s.publish(approval.TopicRequestResolved, snapshot)
		err = fmt.Errorf("approval %s recorded, scheduling %s failed: %w", id, snapshot.Resource, schedErr)
		return snapshot, err
	}

	snapshot, err = s.store.Transition(ctx, id, func(r *approval.Request) error {
		return r.RecordExecution(handle)
	})
	if err != nil {
		return snapshot, err
	}
	s.publish(approval.TopicRequestResolved, snapshot)
	return snapshot, nil
}

// Reject attempts the REJECTED transition with the supplied reason.  A nil
// error means the rejection was recorded; otherwise the sentinel error
// reports why the transition was refused.
func (s *Service) Reject(ctx context.Context, id string, rejecter identity.Identity, reason string) (*approval.Request, error) {
	var err error
	_, span := tracing.StartSpan(ctx, "approval.reject", "SERVER")
	span.WithAttributes(map[string]string{"approval.request_id": id})
	defer func() { tracing.EndSpan(span, err) }()

	if rejecter.ID == "" {
		rejecter = identity.Anonymous
	}
	snapshot, err := s.store.Transition(ctx, id, func(r *approval.Request) error {
		return r.Reject(rejecter.ID, reason)
	})
	if err != nil {
		log.Printf("approval: request %s cannot be rejected: %v", id, err)
		return nil, err
	}
	log.Printf("approval: request %s rejected by %s: %s", id, rejecter.ID, reason)
	s.publish(approval.TopicRequestResolved, snapshot)
	return snapshot, nil
}

// SweepRetention removes resolved requests older than the configured
// retention window, returning how many were removed.  Pending requests are
// never touched.
func (s *Service) SweepRetention(ctx context.Context) (int, error) {
	return s.store.SweepRetention(ctx, s.config.snapshot().retention())
}

// StartHousekeeping runs the expiry and retention sweeps every interval
// until ctx is cancelled or the returned stop function is called.  The
// workflow stays correct without it - expiry is enforced lazily on every
// read - housekeeping only bounds how long untouched entries linger.
func (s *Service) StartHousekeeping(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = time.Minute
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
				// Listing drives the lazy expiry sweep across all entries.
				_, _ = s.store.ListPending(ctx)
				if _, err := s.SweepRetention(ctx); err != nil {
					log.Printf("approval: retention sweep failed: %v", err)
				}
			}
		}
	}()
	return func() { close(done) }
}

// UpdateConfig validates and commits a new configuration; the protection
// policy and the notification dispatcher observe it on their next read.
func (s *Service) UpdateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.config.update(cfg)
	s.policy.Update(cfg.protectionPolicy())
	return nil
}

// Config returns the currently committed configuration.
func (s *Service) Config() *Config {
	return s.config.snapshot()
}

// Events exposes the lifecycle event queue (request.created,
// request.resolved, request.expired) for in-process consumers.
func (s *Service) Events() messaging.Queue[approval.Event] {
	return s.events
}

// Dispatcher exposes the notification dispatcher, mainly so embedders can
// drain in-flight deliveries on shutdown.
func (s *Service) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

// publish emits a lifecycle event best effort: a full queue drops the event
// rather than waiting for a consumer, so the side-channel never extends or
// fails a workflow call.
func (s *Service) publish(topic string, request *approval.Request) {
	event := &approval.Event{Topic: topic, Request: request.Clone(), CreatedAt: clock.Now()}
	if !s.events.TryPublish(event) {
		log.Printf("approval: dropped %s event for request %s: queue full", topic, request.ID)
	}
}
