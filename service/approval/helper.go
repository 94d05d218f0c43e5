package approval

import (
	"context"
	"time"
)

// DecisionFunc decides a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with feedback.
type DecisionFunc func(r *Request) (approved bool, feedback string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request. It returns stop(); cancelling ctx also stops it.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
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
				for _, r := range svc.ListPending(ctx) {
					ok, feedback := fn(r)
					svc.SubmitResponse(ctx, r.WorkflowID, r.Checkpoint, ok, feedback)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove approves every pending request.
func AutoApprove(ctx context.Context,
	svc Service,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return true, "auto-approved" }, interval)
}

// AutoReject rejects every pending request with feedback.
func AutoReject(ctx context.Context,
	svc Service,
	feedback string,
	interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return false, feedback }, interval)
}

// PendingFilter selects pending requests.
type PendingFilter func(r *Request) bool

// WithWorkflowID keeps requests of one workflow.
func WithWorkflowID(id string) PendingFilter {
	return func(r *Request) bool { return r.WorkflowID == id }
}

// WithCheckpoint keeps requests of one checkpoint.
func WithCheckpoint(c Checkpoint) PendingFilter {
	return func(r *Request) bool { return r.Checkpoint == c }
}

// FilterPending lists pending requests matching every filter.
func FilterPending(ctx context.Context, svc Service, filters ...PendingFilter) []*Request {
	all := svc.ListPending(ctx)
	ret := make([]*Request, 0, len(all))
next:
	for _, r := range all {
		for _, f := range filters {
			if !f(r) {
				continue next
			}
		}
		ret = append(ret, r)
	}
	return ret
}
