package memory

import (
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

type Option func(*Service)

// WithNotifier sets where request and resolution events are delivered.
func WithNotifier(n approval.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecorder lets the gate write decisions onto the workflow context.
func WithRecorder(r approval.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMeter mirrors request and resolution counts into OpenTelemetry counters.
func WithMeter(meter metric.Meter) Option {
	return func(s *Service) { s.meter = meter }
}
