package macae

import (
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/planner"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/tracing"
)

// Option configures the Service façade.
type Option func(s *Service)

// WithConfig replaces DefaultConfig.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRegistry sets the agent registry; agents may also be registered later
// through Registry().
func WithRegistry(registry *agent.Registry) Option {
	return func(s *Service) {
		s.registry = registry
	}
}

// WithPlanner sets the planner used by RunTask.
func WithPlanner(p planner.Planner) Option {
	return func(s *Service) {
		s.planner = p
	}
}

// WithJournalSink persists log entries and terminal snapshots through sink
// via an asynchronous writer.
func WithJournalSink(sink journal.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithMeter enables approval metrics.
func WithMeter(meter metric.Meter) Option {
	return func(s *Service) {
		s.meter = meter
	}
}

// WithTracing exports spans with the stdout exporter to output, a file path;
// empty output writes to stdout. Failures are logged and leave tracing off.
func WithTracing(serviceName, serviceVersion, output string) Option {
	return func(s *Service) {
		provider, err := tracing.Init(serviceName, serviceVersion, output)
		if err != nil {
			s.logger.Warnw("tracing disabled", "error", err)
			return
		}
		s.tracer = provider
	}
}

// WithTracingExporter exports spans with a custom SpanExporter, for
// example OTLP.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		provider, err := tracing.InitWithExporter(serviceName, serviceVersion, exporter)
		if err != nil {
			s.logger.Warnw("tracing disabled", "error", err)
			return
		}
		s.tracer = provider
	}
}
