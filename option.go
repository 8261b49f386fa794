package jobgate

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jobgate/jobgate/service/approval"
	"github.com/jobgate/jobgate/service/messaging"
	"github.com/jobgate/jobgate/service/notify"
	"github.com/jobgate/jobgate/service/scheduler"
	"github.com/jobgate/jobgate/tracing"
)

// Option customises the Service.
type Option func(s *Service)

// WithConfig sets the initial configuration; invalid configurations are
// rejected lazily by Validate via UpdateConfig, so prefer LoadConfig +
// WithConfig for documents of unknown provenance.
func WithConfig(cfg *Config) Option {
	return func(s *Service) { s.config.update(cfg) }
}

// WithStore sets the approval request store.
func WithStore(store approval.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithScheduler sets the scheduler collaborator invoked after approval.
func WithScheduler(svc scheduler.Service) Option {
	return func(s *Service) { s.scheduler = svc }
}

// WithDispatcher sets the notification dispatcher.
func WithDispatcher(dispatcher *notify.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// WithEventQueue sets the lifecycle event queue.
func WithEventQueue(queue messaging.Queue[approval.Event]) Option {
	return func(s *Service) { s.events = queue }
}

// WithTracing configures OpenTelemetry tracing.  If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path.  Safe to call multiple times - the first initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter (OTLP, Jaeger, Zipkin, ...).
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
