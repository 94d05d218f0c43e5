package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/idgen"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/policy"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/progress"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/compiler"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/planner"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/tracing"
)

// Plan sources reported by PlanResult.
const (
	SourcePlanner = "planner"
	SourceDefault = "default"
)

// Compiler turns collected results into the final report.
type Compiler interface {
	Compile(ctx context.Context, task string, collected *workflow.CollectedData, log []*workflow.LogEntry) (*workflow.Report, error)
}

// Publisher broadcasts progress events. It must not block.
type Publisher interface {
	PublishProgress(ctx context.Context, e progress.Event) int
}

// Request starts one run. An empty WorkflowID is generated.
type Request struct {
	WorkflowID      string
	SessionID       string
	TaskDescription string
	Sequence        agent.Sequence
	// Policy overrides the policy carried by the context and the coordinator default.
	Policy *policy.Policy
}

// Outcome is the terminal result of a run. CollectedData and ExecutionLog
// are always populated, including for rejected and failed runs.
type Outcome struct {
	WorkflowID    string                  `json:"workflow_id"`
	Status        workflow.Status         `json:"status"`
	CollectedData *workflow.CollectedData `json:"collected_data"`
	ExecutionLog  []*workflow.LogEntry    `json:"execution_log"`
	Report        *workflow.Report        `json:"report,omitempty"`
	// Delivered is set only once the final checkpoint approved the report.
	Delivered bool  `json:"delivered"`
	Cancelled bool  `json:"cancelled,omitempty"`
	Err       error `json:"-"`
}

// Succeeded reports whether the run completed.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Status == workflow.StatusCompleted
}

// PlanResult is the answer of Plan.
type PlanResult struct {
	Sequence agent.Sequence
	Source   string
	// Err holds the planner error that caused a fallback.
	Err error
}

// Service drives runs through the workflow state machine: plan checkpoint,
// sequential agent steps, compilation and final checkpoint.
type Service struct {
	config    Config
	store     store.Service
	gate      approval.Service
	registry  *agent.Registry
	planner   planner.Planner
	compiler  Compiler
	publisher Publisher
	journal   journal.Sink
	policy    *policy.Policy
	logger    *zap.SugaredLogger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

type run struct {
	id       string
	task     string
	sequence agent.Sequence
	funcs    []agent.Func
	policy   *policy.Policy
	ctx      context.Context
	cancel   context.CancelFunc
	tracker  *progress.Tracker
}

// New creates a coordinator. The gate should record decisions on st; when it
// does not, the coordinator records them itself.
func New(st store.Service, gate approval.Service, registry *agent.Registry, opts ...Option) *Service {
	ret := &Service{
		config:   DefaultConfig(),
		store:    st,
		gate:     gate,
		registry: registry,
		compiler: compiler.New(),
		journal:  journal.Nop{},
		logger:   zap.NewNop().Sugar(),
		running:  make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.registry == nil {
		ret.registry = agent.NewRegistry()
	}
	if p, err := ParseFailurePolicy(string(ret.config.FailurePolicy)); err == nil {
		ret.config.FailurePolicy = p
	}
	return ret
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.config
}

// Run executes req to a terminal status. It returns an error only when the
// run could not start; run-level failures are reported on the Outcome.
func (s *Service) Run(ctx context.Context, req *Request) (*Outcome, error) {
	r, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.execute(r), nil
}

// Start validates and registers req, then executes it in the background.
// The run is detached from ctx cancellation; use Cancel to stop it.
func (s *Service) Start(ctx context.Context, req *Request) (string, <-chan *Outcome, error) {
	r, err := s.prepare(context.WithoutCancel(ctx), req)
	if err != nil {
		return "", nil, err
	}
	done := make(chan *Outcome, 1)
	go func() {
		done <- s.execute(r)
		close(done)
	}()
	return r.id, done, nil
}

// RunTask plans task and runs the resulting sequence.
func (s *Service) RunTask(ctx context.Context, sessionID, task string) (*Outcome, error) {
	plan := s.Plan(ctx, task)
	return s.Run(ctx, &Request{SessionID: sessionID, TaskDescription: task, Sequence: plan.Sequence})
}

// Plan asks the planner for a sequence and falls back to the configured
// default when it fails or answers with an empty or invalid sequence.
func (s *Service) Plan(ctx context.Context, task string) *PlanResult {
	if s.planner == nil {
		return &PlanResult{Sequence: s.config.DefaultSequence.Clone(), Source: SourceDefault}
	}
	seq, err := s.planner.Plan(ctx, task)
	switch {
	case err != nil:
	case len(seq) == 0:
		err = planner.ErrEmptyPlan
	default:
		err = seq.Validate()
	}
	if err != nil {
		s.logger.Warnw("planner failed, using default sequence", "error", err, "sequence", s.config.DefaultSequence.Strings())
		return &PlanResult{Sequence: s.config.DefaultSequence.Clone(), Source: SourceDefault, Err: err}
	}
	return &PlanResult{Sequence: seq.Clone(), Source: SourcePlanner}
}

// Cancel stops a running workflow. It returns false when id is not running.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		s.logger.Infow("workflow cancellation requested", "workflow_id", id)
		cancel()
	}
	return ok
}

// Running lists ids of runs that have not reached a terminal status.
func (s *Service) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]string, 0, len(s.running))
	for id := range s.running {
		ret = append(ret, id)
	}
	return ret
}

func (s *Service) prepare(ctx context.Context, req *Request) (*run, error) {
	if req == nil {
		return nil, errors.New("coordinator: nil request")
	}
	pol := req.Policy
	if pol == nil {
		pol = policy.FromContext(ctx)
	}
	if pol == nil {
		pol = s.policy
	}
	funcs, err := s.preflight(req.Sequence, pol)
	if err != nil {
		return nil, err
	}
	id := req.WorkflowID
	if id == "" {
		id = idgen.WithPrefix("wf")
	}
	created, err := s.store.Create(ctx, id, req.SessionID, req.TaskDescription, req.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow %s: %w", id, err)
	}
	if !created {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateWorkflow, id)
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		id:       id,
		task:     req.TaskDescription,
		sequence: req.Sequence.Clone(),
		funcs:    funcs,
		policy:   pol,
		ctx:      runCtx,
		cancel:   cancel,
	}
	s.mu.Lock()
	s.running[id] = cancel
	s.mu.Unlock()
	return r, nil
}

func (s *Service) preflight(seq agent.Sequence, pol *policy.Policy) ([]agent.Func, error) {
	for i, id := range seq {
		if !id.Valid() {
			return nil, &ConfigurationError{Agent: id, Index: i, Err: agent.ErrUnknown}
		}
		if !pol.IsAllowed(id) {
			return nil, &ConfigurationError{Agent: id, Index: i, Err: ErrAgentBlocked}
		}
	}
	funcs, err := s.registry.Resolve(seq)
	if err != nil {
		var notRegistered *agent.NotRegisteredError
		if errors.As(err, &notRegistered) {
			return nil, &ConfigurationError{Agent: notRegistered.ID, Index: notRegistered.Index, Err: err}
		}
		return nil, &ConfigurationError{Index: -1, Err: err}
	}
	return funcs, nil
}

func (s *Service) release(r *run) {
	s.mu.Lock()
	delete(s.running, r.id)
	s.mu.Unlock()
	r.cancel()
}

func (s *Service) execute(r *run) *Outcome {
	defer s.release(r)
	ctx, span := tracing.StartRun(r.ctx, r.id, r.sequence.Strings())
	ctx, r.tracker = progress.WithNewTracker(ctx, r.id, r.sequence, s.broadcast())
	s.logger.Infow("workflow started", "workflow_id", r.id, "sequence", r.sequence.Strings())

	out := s.drive(ctx, r)
	s.finish(context.WithoutCancel(ctx), out)
	span.Status(string(out.Status))
	span.End(out.Err)
	s.logger.Infow("workflow finished", "workflow_id", r.id, "status", out.Status, "delivered", out.Delivered)
	return out
}

func (s *Service) broadcast() func(progress.Event) {
	if s.publisher == nil {
		return nil
	}
	return func(e progress.Event) {
		s.publisher.PublishProgress(context.Background(), e)
	}
}

// drive walks the state machine. Store writes use a non-cancellable context
// so a cancelled run still reaches its terminal status.
func (s *Service) drive(ctx context.Context, r *run) *Outcome {
	out := &Outcome{WorkflowID: r.id}
	st := context.WithoutCancel(ctx)

	if err := s.store.UpdateStatus(st, r.id, workflow.StatusAwaitingPlanApproval); err != nil {
		return s.fail(st, r, out, 0, -1, err)
	}
	plan := planPayload(r.task, r.sequence)
	r.tracker.AwaitingPlan(plan)
	result, err := s.checkpoint(ctx, r, approval.CheckpointPlan, plan, s.config.PlanApprovalTimeout)
	if err != nil {
		return s.fail(st, r, out, 0, -1, err)
	}
	if !result.Approved {
		return s.reject(st, r, out, approval.CheckpointPlan, 0, result)
	}
	for _, status := range []workflow.Status{workflow.StatusPlanApproved, workflow.StatusRunning} {
		if err := s.store.UpdateStatus(st, r.id, status); err != nil {
			return s.fail(st, r, out, 0, -1, err)
		}
	}

	done := 0
	for i, id := range r.sequence {
		if ctx.Err() != nil {
			return s.cancelled(st, r, out, done)
		}
		err := s.step(ctx, r, i)
		if err == nil {
			done = i + 1
			continue
		}
		var execErr *AgentExecutionError
		if !errors.As(err, &execErr) {
			return s.fail(st, r, out, done, i, err)
		}
		if ctx.Err() != nil {
			return s.cancelled(st, r, out, done)
		}
		if s.config.FailurePolicy != SkipAndContinue {
			return s.fail(st, r, out, done, i, err)
		}
		done = i + 1
		r.tracker.AgentFinished(i, fmt.Sprintf("%s agent failed, continuing: %v", id, execErr.Err))
	}
	if ctx.Err() != nil {
		return s.cancelled(st, r, out, done)
	}

	r.tracker.Compiling("Compiling results")
	report, err := s.compile(ctx, r)
	if err != nil {
		if ctx.Err() != nil {
			return s.cancelled(st, r, out, done)
		}
		return s.fail(st, r, out, done, -1, err)
	}
	if len(r.sequence) == 0 {
		return s.complete(st, r, out)
	}

	if err := s.store.UpdateStatus(st, r.id, workflow.StatusAwaitingFinalApproval); err != nil {
		return s.fail(st, r, out, done, -1, err)
	}
	r.tracker.AwaitingFinal("Awaiting final approval")
	result, err = s.checkpoint(ctx, r, approval.CheckpointFinal, report.Summary, s.config.FinalApprovalTimeout)
	if err != nil {
		return s.fail(st, r, out, done, -1, err)
	}
	if !result.Approved {
		return s.reject(st, r, out, approval.CheckpointFinal, done, result)
	}
	return s.complete(st, r, out)
}

// step invokes agent i. Agent failures come back as *AgentExecutionError;
// any other error is a store failure.
func (s *Service) step(ctx context.Context, r *run, i int) (err error) {
	id := r.sequence[i]
	ctx, span := tracing.StartStep(ctx, string(id), i)
	defer func() { span.End(err) }()
	st := context.WithoutCancel(ctx)

	r.tracker.AgentStarted(i, fmt.Sprintf("Running %s agent", id))
	wf, err := s.store.Get(st, r.id)
	if err != nil {
		return err
	}
	in := &agent.Input{
		WorkflowID:      r.id,
		TaskDescription: r.task,
		StepIndex:       i,
		CollectedData:   wf.CollectedData.Map(),
		Order:           wf.CollectedData.Keys(),
	}
	started := time.Now()
	env, cause := s.invoke(ctx, r.funcs[i], in)
	if cause == nil && !env.Success {
		cause = fmt.Errorf("agent reported failure: %s", env.Summary())
	}
	if cause != nil {
		advance := s.config.FailurePolicy == SkipAndContinue && ctx.Err() == nil
		if err := s.store.RecordFailure(st, r.id, id, i, cause, advance); err != nil {
			return err
		}
		s.journalLast(st, r.id)
		s.logger.Warnw("agent step failed", "workflow_id", r.id, "agent", id, "step", i, "error", cause)
		return &AgentExecutionError{Agent: id, StepIndex: i, Err: cause}
	}

	summary := env.Summary()
	if err := s.store.RecordStep(st, r.id, id, i, env, summary); err != nil {
		return err
	}
	s.journalLast(st, r.id)
	s.logger.Infow("agent step completed", "workflow_id", r.id, "agent", id, "step", i, "elapsed", time.Since(started))
	r.tracker.AgentFinished(i, fmt.Sprintf("%s agent: %s", id, summary))
	return nil
}

// invoke calls fn, recovering panics and enforcing the agent timeout. A
// cancelled run is visible to the agent through ctx; the coordinator itself
// only observes cancellation at step boundaries.
func (s *Service) invoke(ctx context.Context, fn agent.Func, in *agent.Input) (*agent.Envelope, error) {
	var expired <-chan time.Time
	if d := s.config.AgentTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
		timer := time.NewTimer(d)
		defer timer.Stop()
		expired = timer.C
	}

	type reply struct {
		env *agent.Envelope
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				replies <- reply{err: fmt.Errorf("agent panic: %v", r)}
			}
		}()
		env, err := fn(ctx, in)
		replies <- reply{env: env, err: err}
	}()

	select {
	case rep := <-replies:
		if rep.err == nil && rep.env == nil {
			return nil, ErrNoResult
		}
		return rep.env, rep.err
	case <-expired:
		return nil, fmt.Errorf("agent timed out after %s: %w", s.config.AgentTimeout, context.DeadlineExceeded)
	}
}

// checkpoint resolves cp according to the run policy.
func (s *Service) checkpoint(ctx context.Context, r *run, cp approval.Checkpoint, payload string, timeout time.Duration) (result *approval.Result, err error) {
	mode := r.policy.ModeFor(cp)
	ctx, span := tracing.StartCheckpoint(ctx, r.id, string(cp), string(mode))
	defer func() { span.End(err) }()

	switch mode {
	case policy.ModeAuto:
		result = &approval.Result{Approved: true, Feedback: "approved by policy"}
	case policy.ModeDeny:
		result = &approval.Result{Feedback: "denied by policy"}
	default:
		if s.gate == nil {
			return nil, fmt.Errorf("%s checkpoint: no approval gate configured", cp)
		}
		if result, err = s.gate.RequestApproval(ctx, r.id, cp, payload, timeout); err != nil {
			return nil, fmt.Errorf("%s checkpoint: %w", cp, err)
		}
	}
	span.Decided(result.Approved, result.Feedback)
	s.logger.Infow("checkpoint resolved", "workflow_id", r.id, "checkpoint", cp, "mode", mode, "resolution", result.Resolution())
	if err = s.ensureRecorded(context.WithoutCancel(ctx), r.id, cp, result.Approved); err != nil {
		return nil, err
	}
	return result, nil
}

// ensureRecorded writes the decision unless the gate already did.
func (s *Service) ensureRecorded(ctx context.Context, id string, cp approval.Checkpoint, approved bool) error {
	wf, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	recorded := wf.PlanApproved
	if cp == approval.CheckpointFinal {
		recorded = wf.FinalApproved
	}
	if recorded.IsSet() {
		return nil
	}
	return approval.Record(ctx, s.store, id, cp, approved)
}

func (s *Service) compile(ctx context.Context, r *run) (*workflow.Report, error) {
	st := context.WithoutCancel(ctx)
	wf, err := s.store.Get(st, r.id)
	if err != nil {
		return nil, err
	}
	report, err := s.compiler.Compile(ctx, wf.TaskDescription, wf.CollectedData, wf.ExecutionLog)
	if err != nil {
		return nil, fmt.Errorf("failed to compile results: %w", err)
	}
	if err := s.store.AttachReport(st, r.id, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) complete(ctx context.Context, r *run, out *Outcome) *Outcome {
	if err := s.store.UpdateStatus(ctx, r.id, workflow.StatusCompleted); err != nil {
		return s.fail(ctx, r, out, len(r.sequence), -1, err)
	}
	out.Status = workflow.StatusCompleted
	out.Delivered = true
	r.tracker.Completed("Workflow completed")
	return out
}

func (s *Service) reject(ctx context.Context, r *run, out *Outcome, cp approval.Checkpoint, done int, result *approval.Result) *Outcome {
	out.Status = workflow.StatusRejected
	out.Cancelled = result.Cancelled
	switch {
	case result.TimedOut:
		out.Err = fmt.Errorf("%s checkpoint: %w", cp, approval.ErrTimedOut)
	case result.Cancelled:
		out.Err = ErrCancelled
	}
	if err := s.store.UpdateStatus(ctx, r.id, workflow.StatusRejected); err != nil {
		s.logger.Errorw("failed to mark workflow rejected", "workflow_id", r.id, "error", err)
	}
	message := fmt.Sprintf("%s checkpoint %s", cp, result.Resolution())
	if result.Feedback != "" {
		message += ": " + result.Feedback
	}
	r.tracker.Rejected(done, message)
	s.logger.Infow("workflow rejected", "workflow_id", r.id, "checkpoint", cp, "resolution", result.Resolution(), "feedback", result.Feedback)
	return out
}

func (s *Service) cancelled(ctx context.Context, r *run, out *Outcome, done int) *Outcome {
	out.Cancelled = true
	return s.fail(ctx, r, out, done, -1, ErrCancelled)
}

func (s *Service) fail(ctx context.Context, r *run, out *Outcome, done, current int, cause error) *Outcome {
	out.Status = workflow.StatusFailed
	out.Err = cause
	if err := s.store.UpdateStatus(ctx, r.id, workflow.StatusFailed); err != nil {
		s.logger.Errorw("failed to mark workflow failed", "workflow_id", r.id, "error", err)
	}
	r.tracker.Failed(done, current, cause.Error())
	s.logger.Errorw("workflow failed", "workflow_id", r.id, "error", cause)
	return out
}

// finish copies the partial or final results onto out and journals the
// terminal snapshot.
func (s *Service) finish(ctx context.Context, out *Outcome) {
	wf, err := s.store.Get(ctx, out.WorkflowID)
	if err != nil {
		s.logger.Errorw("failed to load terminal workflow", "workflow_id", out.WorkflowID, "error", err)
		out.CollectedData = workflow.NewCollectedData()
		return
	}
	out.CollectedData = wf.CollectedData
	if out.CollectedData == nil {
		out.CollectedData = workflow.NewCollectedData()
	}
	out.ExecutionLog = wf.ExecutionLog
	out.Report = wf.Report
	if err := s.journal.WriteSnapshot(ctx, wf); err != nil {
		s.logger.Warnw("journal snapshot failed", "workflow_id", out.WorkflowID, "error", err)
	}
}

func (s *Service) journalLast(ctx context.Context, id string) {
	wf, err := s.store.Get(ctx, id)
	if err != nil || len(wf.ExecutionLog) == 0 {
		return
	}
	if err := s.journal.WriteEntry(ctx, id, wf.ExecutionLog[len(wf.ExecutionLog)-1]); err != nil {
		s.logger.Warnw("journal entry failed", "workflow_id", id, "error", err)
	}
}

func planPayload(task string, seq agent.Sequence) string {
	if len(seq) == 0 {
		return fmt.Sprintf("Task: %s\nPlan: no agents, results are compiled immediately", task)
	}
	return fmt.Sprintf("Task: %s\nPlan: %s", task, seq.String())
}
