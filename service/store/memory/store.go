package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/clock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

type record struct {
	mu      sync.Mutex
	context *workflow.Context
}

// Store is an in-memory store.Service with a lock per workflow id.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	logger  *zap.SugaredLogger
}

// New creates an empty store.
func New(options ...Option) *Store {
	ret := &Store{
		records: make(map[string]*record),
		logger:  zap.NewNop().Sugar(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *Store) Create(_ context.Context, id, sessionID, task string, sequence agent.Sequence) (bool, error) {
	if id == "" {
		return false, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return false, nil
	}
	s.records[id] = &record{context: workflow.New(id, sessionID, task, sequence, clock.Now())}
	return true, nil
}

func (s *Store) UpdateStatus(_ context.Context, id string, status workflow.Status) error {
	return s.mutate(id, func(wf *workflow.Context) {
		if wf.Status != status && !wf.Status.CanTransitionTo(status) {
			s.logger.Warnw("illegal workflow status transition", "workflow_id", id, "from", wf.Status, "to", status)
		}
		wf.Status = status
		if status.IsTerminal() && wf.CompletedAt == nil {
			at := clock.Now()
			wf.CompletedAt = &at
		}
	})
}

func (s *Store) SetPlanApproval(_ context.Context, id string, approved bool) error {
	return s.mutate(id, func(wf *workflow.Context) {
		wf.PlanApproved = s.correct(id, "plan", wf.PlanApproved, approved)
	})
}

func (s *Store) SetFinalApproval(_ context.Context, id string, approved bool) error {
	return s.mutate(id, func(wf *workflow.Context) {
		wf.FinalApproved = s.correct(id, "final", wf.FinalApproved, approved)
	})
}

func (s *Store) correct(id, checkpoint string, previous workflow.Approval, approved bool) workflow.Approval {
	next := workflow.ApprovalOf(approved)
	if previous.IsSet() {
		s.logger.Warnw("approval corrected", "workflow_id", id, "checkpoint", checkpoint, "previous", previous.String(), "current", next.String())
	}
	return next
}

func (s *Store) Get(_ context.Context, id string) (*workflow.Context, error) {
	r, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.context.Clone(), nil
}

func (s *Store) RecordStep(_ context.Context, id string, agentID agent.ID, stepIndex int, result *agent.Envelope, summary string) error {
	return s.mutate(id, func(wf *workflow.Context) {
		if wf.CollectedData.Set(agentID, result.Clone()) {
			s.logger.Debugw("agent result replaced", "workflow_id", id, "agent", agentID, "step", stepIndex)
		}
		wf.ExecutionLog = append(wf.ExecutionLog, &workflow.LogEntry{
			Agent:         agentID,
			StepIndex:     stepIndex,
			ResultSummary: summary,
			Timestamp:     clock.Now(),
		})
		advance(wf, stepIndex)
	})
}

func (s *Store) RecordFailure(_ context.Context, id string, agentID agent.ID, stepIndex int, cause error, advanceCursor bool) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	return s.mutate(id, func(wf *workflow.Context) {
		wf.ExecutionLog = append(wf.ExecutionLog, &workflow.LogEntry{
			Agent:         agentID,
			StepIndex:     stepIndex,
			ResultSummary: "failed",
			Error:         message,
			Timestamp:     clock.Now(),
		})
		if advanceCursor {
			advance(wf, stepIndex)
		}
	})
}

// advance moves the cursor past stepIndex; it never moves backwards.
func advance(wf *workflow.Context, stepIndex int) {
	if next := stepIndex + 1; next > wf.CurrentStepIndex {
		wf.CurrentStepIndex = next
	}
}

func (s *Store) AttachReport(_ context.Context, id string, report *workflow.Report) error {
	return s.mutate(id, func(wf *workflow.Context) {
		wf.Report = report
	})
}

func (s *Store) List(_ context.Context) ([]*workflow.Context, error) {
	s.mu.RLock()
	records := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	s.mu.RUnlock()

	ret := make([]*workflow.Context, 0, len(records))
	for _, r := range records {
		r.mu.Lock()
		ret = append(ret, r.context.Clone())
		r.mu.Unlock()
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].WorkflowID < ret[j].WorkflowID
		}
		return ret[i].CreatedAt.Before(ret[j].CreatedAt)
	})
	return ret, nil
}

func (s *Store) CleanupOlderThan(_ context.Context, maxAge time.Duration) (int, error) {
	if maxAge < 0 {
		return 0, fmt.Errorf("cleanup: negative retention %v", maxAge)
	}
	cutoff := clock.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, r := range s.records {
		r.mu.Lock()
		expired := r.context.Status.IsTerminal() && r.context.UpdatedAt.Before(cutoff)
		r.mu.Unlock()
		if expired {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) lookup(id string) (*record, error) {
	if id == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return r, nil
}

func (s *Store) mutate(id string, fn func(wf *workflow.Context)) error {
	r, err := s.lookup(id)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.context)
	r.context.UpdatedAt = clock.Now()
	return nil
}

var _ store.Service = (*Store)(nil)
