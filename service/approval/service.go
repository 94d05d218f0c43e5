package approval

import (
	"context"
	"time"
)

// Service gates a run at its checkpoints.
type Service interface {
	// RequestApproval creates a request and blocks until it resolves.
	RequestApproval(ctx context.Context, workflowID string, checkpoint Checkpoint, payload string, timeout time.Duration) (*Result, error)

	// SubmitResponse resolves the pending request; it returns false when
	// nothing is pending for the pair.
	SubmitResponse(ctx context.Context, workflowID string, checkpoint Checkpoint, approved bool, feedback string) bool

	ListPending(ctx context.Context) []*Request

	Stats() Stats
}

// Notifier delivers request and resolution events to humans or UIs.
type Notifier interface {
	Notify(ctx context.Context, event *Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event *Event) error

func (f NotifierFunc) Notify(ctx context.Context, event *Event) error { return f(ctx, event) }

// Recorder persists checkpoint decisions on the workflow context.
type Recorder interface {
	SetPlanApproval(ctx context.Context, id string, approved bool) error
	SetFinalApproval(ctx context.Context, id string, approved bool) error
}

// Record writes approved for checkpoint through r.
func Record(ctx context.Context, r Recorder, workflowID string, checkpoint Checkpoint, approved bool) error {
	if checkpoint == CheckpointFinal {
		return r.SetFinalApproval(ctx, workflowID, approved)
	}
	return r.SetPlanApproval(ctx, workflowID, approved)
}
