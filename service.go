package macae

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/policy"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	memapproval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval/memory"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/coordinator"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/event"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/planner"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
	memstore "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store/memory"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/tracing"
)

// Service wires the store, approval gate, event bus, coordinator, janitor
// and journal writer into one engine.
type Service struct {
	config   *Config
	logger   *zap.SugaredLogger
	registry *agent.Registry
	planner  planner.Planner
	sink     journal.Sink
	meter    metric.Meter
	tracer   *tracing.Provider

	store       *memstore.Store
	gate        *memapproval.Service
	bus         *event.Bus
	coordinator *coordinator.Service
	janitor     *store.Janitor
	journal     *journal.Writer

	mu    sync.Mutex
	stops []func()
}

// New creates the engine. Call Start to launch background workers.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), logger: zap.NewNop().Sugar()}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	if err := s.config.Validate(); err != nil {
		return err
	}
	settings, err := s.config.CoordinatorSettings()
	if err != nil {
		return err
	}
	if s.registry == nil {
		s.registry = agent.NewRegistry()
	}

	s.store = memstore.New(memstore.WithLogger(s.logger.Named("store")))
	s.bus = event.New(event.WithBuffer(s.config.Events.Buffer), event.WithLogger(s.logger.Named("events")))

	gateOptions := []memapproval.Option{
		memapproval.WithNotifier(s.bus),
		memapproval.WithRecorder(s.store),
		memapproval.WithLogger(s.logger.Named("approval")),
	}
	if s.meter != nil {
		gateOptions = append(gateOptions, memapproval.WithMeter(s.meter))
	}
	s.gate = memapproval.New(gateOptions...)

	coordinatorOptions := []coordinator.Option{
		coordinator.WithConfig(settings),
		coordinator.WithPublisher(s.bus),
		coordinator.WithPolicy(policy.FromConfig(s.config.Policy)),
		coordinator.WithLogger(s.logger.Named("coordinator")),
	}
	if s.planner != nil {
		coordinatorOptions = append(coordinatorOptions, coordinator.WithPlanner(s.planner))
	}
	if s.sink != nil {
		s.journal = journal.NewWriter(s.sink,
			journal.WithQueueConfig(memory.Config{
				MaxRetries:  s.config.Journal.MaxRetries,
				RetryDelay:  s.config.Journal.RetryDelay,
				QueueBuffer: s.config.Journal.Buffer,
			}),
			journal.WithLogger(s.logger.Named("journal")))
		coordinatorOptions = append(coordinatorOptions, coordinator.WithJournal(s.journal))
	}
	s.coordinator = coordinator.New(s.store, s.gate, s.registry, coordinatorOptions...)

	if s.config.Store.Retention > 0 {
		s.janitor = store.NewJanitor(s.store, s.config.Store.Retention, s.config.Store.SweepInterval, s.logger.Named("janitor"))
	}
	return nil
}

// Start launches the journal writer and the retention janitor.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal != nil {
		s.stops = append(s.stops, s.journal.Start(ctx))
	}
	if s.janitor != nil {
		s.stops = append(s.stops, s.janitor.Start(ctx))
	}
	s.logger.Infow("engine started", "agents", s.registry.IDs(), "journal", s.config.Journal.Kind)
	return nil
}

// Shutdown cancels running workflows, drains the journal and stops workers.
func (s *Service) Shutdown(ctx context.Context) error {
	for _, id := range s.coordinator.Running() {
		s.coordinator.Cancel(id)
	}
	var errs []error
	if s.journal != nil {
		if err := s.journal.Drain(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.mu.Lock()
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	if err := s.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Run executes one workflow to a terminal status.
func (s *Service) Run(ctx context.Context, req *coordinator.Request) (*coordinator.Outcome, error) {
	return s.coordinator.Run(ctx, req)
}

// RunTask plans task and runs the resulting sequence.
func (s *Service) RunTask(ctx context.Context, sessionID, task string) (*coordinator.Outcome, error) {
	return s.coordinator.RunTask(ctx, sessionID, task)
}

func (s *Service) Config() *Config { return s.config }

func (s *Service) Registry() *agent.Registry { return s.registry }

func (s *Service) Store() store.Service { return s.store }

func (s *Service) Approvals() approval.Service { return s.gate }

func (s *Service) Events() *event.Bus { return s.bus }

func (s *Service) Coordinator() *coordinator.Service { return s.coordinator }

// Journal returns the asynchronous journal writer or nil when none is configured.
func (s *Service) Journal() *journal.Writer { return s.journal }

func (s *Service) Logger() *zap.SugaredLogger { return s.logger }
