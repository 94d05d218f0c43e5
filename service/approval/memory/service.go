package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/clock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/idgen"
	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

type key struct {
	workflowID string
	checkpoint approval.Checkpoint
}

type decision struct {
	approved bool
	feedback string
}

type pending struct {
	request  *approval.Request
	decision chan decision
}

// Service is an in-process approval gate.
type Service struct {
	mu      sync.Mutex
	pending map[key]*pending

	notifier approval.Notifier
	recorder approval.Recorder
	logger   *zap.SugaredLogger
	meter    metric.Meter
	metrics  *instruments

	total, approved, rejected, timedOut, cancelled atomic.Int64
}

// New creates a gate.
func New(options ...Option) *Service {
	ret := &Service{
		pending: make(map[key]*pending),
		logger:  zap.NewNop().Sugar(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.meter != nil {
		m, err := newInstruments(ret.meter)
		if err != nil {
			ret.logger.Warnw("approval metrics disabled", "error", err)
		} else {
			ret.metrics = m
		}
	}
	return ret
}

func (s *Service) RequestApproval(ctx context.Context, workflowID string, checkpoint approval.Checkpoint, payload string, timeout time.Duration) (*approval.Result, error) {
	if !checkpoint.Valid() {
		return nil, approval.ErrInvalidCheckpoint
	}
	if timeout <= 0 {
		return nil, approval.ErrTimeoutRequired
	}
	now := clock.Now()
	k := key{workflowID: workflowID, checkpoint: checkpoint}
	p := &pending{
		request: &approval.Request{
			ID:         idgen.WithPrefix("apr"),
			WorkflowID: workflowID,
			Checkpoint: checkpoint,
			Payload:    payload,
			CreatedAt:  now,
			Deadline:   now.Add(timeout),
			Resolution: approval.ResolutionPending,
		},
		decision: make(chan decision, 1),
	}

	s.mu.Lock()
	if _, ok := s.pending[k]; ok {
		s.mu.Unlock()
		return nil, approval.ErrAlreadyPending
	}
	s.pending[k] = p
	requested := p.request.Clone()
	s.mu.Unlock()

	s.total.Add(1)
	s.metrics.requested(ctx, checkpoint)
	s.logger.Infow("approval requested", "workflow_id", workflowID, "checkpoint", checkpoint, "deadline", p.request.Deadline)
	s.notify(ctx, &approval.Event{Topic: approval.TopicRequested, Request: requested})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result *approval.Result
	select {
	case d := <-p.decision:
		result = &approval.Result{Approved: d.approved, Feedback: d.feedback}
	case <-timer.C:
		result = s.abandon(k, p, &approval.Result{TimedOut: true, Feedback: "no response before deadline"})
	case <-ctx.Done():
		result = s.abandon(k, p, &approval.Result{Cancelled: true, Feedback: "workflow cancelled"})
	}
	return result, s.resolve(ctx, p.request, result)
}

// abandon withdraws p unless a response claimed it first, in which case the
// response wins.
func (s *Service) abandon(k key, p *pending, fallback *approval.Result) *approval.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[k] == p {
		delete(s.pending, k)
		return fallback
	}
	d := <-p.decision
	return &approval.Result{Approved: d.approved, Feedback: d.feedback}
}

func (s *Service) resolve(ctx context.Context, request *approval.Request, result *approval.Result) error {
	resolution := result.Resolution()
	at := clock.Now()
	request.Resolution = resolution
	request.Feedback = result.Feedback
	request.ResolvedAt = &at

	switch resolution {
	case approval.ResolutionApproved:
		s.approved.Add(1)
	case approval.ResolutionRejected:
		s.rejected.Add(1)
	case approval.ResolutionTimedOut:
		s.timedOut.Add(1)
	case approval.ResolutionCancelled:
		s.cancelled.Add(1)
	}
	// the caller's context may already be cancelled
	bg := context.WithoutCancel(ctx)
	s.metrics.resolved(bg, request.Checkpoint, resolution)
	s.logger.Infow("approval resolved", "workflow_id", request.WorkflowID, "checkpoint", request.Checkpoint, "resolution", resolution)
	s.notify(bg, &approval.Event{Topic: approval.TopicResolved, Request: request.Clone()})

	if s.recorder == nil {
		return nil
	}
	if err := approval.Record(bg, s.recorder, request.WorkflowID, request.Checkpoint, result.Approved); err != nil {
		s.logger.Errorw("failed to record approval", "workflow_id", request.WorkflowID, "checkpoint", request.Checkpoint, "error", err)
		return err
	}
	return nil
}

func (s *Service) notify(ctx context.Context, event *approval.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.logger.Warnw("approval notification failed", "workflow_id", event.Request.WorkflowID, "topic", event.Topic, "error", err)
	}
}

func (s *Service) SubmitResponse(_ context.Context, workflowID string, checkpoint approval.Checkpoint, approved bool, feedback string) bool {
	k := key{workflowID: workflowID, checkpoint: checkpoint}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[k]
	if !ok {
		s.logger.Debugw("approval response ignored", "workflow_id", workflowID, "checkpoint", checkpoint)
		return false
	}
	delete(s.pending, k)
	p.decision <- decision{approved: approved, feedback: feedback}
	return true
}

func (s *Service) ListPending(_ context.Context) []*approval.Request {
	s.mu.Lock()
	ret := make([]*approval.Request, 0, len(s.pending))
	for _, p := range s.pending {
		ret = append(ret, p.request.Clone())
	}
	s.mu.Unlock()
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].ID < ret[j].ID
		}
		return ret[i].CreatedAt.Before(ret[j].CreatedAt)
	})
	return ret
}

func (s *Service) Stats() approval.Stats {
	s.mu.Lock()
	waiting := int64(len(s.pending))
	s.mu.Unlock()
	return approval.Stats{
		Total:     s.total.Load(),
		Pending:   waiting,
		Approved:  s.approved.Load(),
		Rejected:  s.rejected.Load(),
		TimedOut:  s.timedOut.Load(),
		Cancelled: s.cancelled.Load(),
	}
}

var _ approval.Service = (*Service)(nil)
