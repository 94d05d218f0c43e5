package coordinator

import (
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/policy"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/planner"
)

// Option configures the coordinator.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithPlanner sets the planning collaborator used by Plan and RunTask.
func WithPlanner(p planner.Planner) Option {
	return func(s *Service) {
		s.planner = p
	}
}

// WithCompiler replaces the results compiler.
func WithCompiler(c Compiler) Option {
	return func(s *Service) {
		s.compiler = c
	}
}

// WithPublisher sets the progress broadcaster.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithJournal sets the sink receiving log entries and terminal snapshots.
func WithJournal(sink journal.Sink) Option {
	return func(s *Service) {
		s.journal = sink
	}
}

// WithPolicy sets the default policy; a policy on the request or the
// context takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
