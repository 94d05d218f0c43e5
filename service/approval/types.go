package approval

import (
	"fmt"
	"strings"
	"time"
)

// Checkpoint names an approval gate of a run.
type Checkpoint string

const (
	CheckpointPlan  Checkpoint = "plan"
	CheckpointFinal Checkpoint = "final"
)

func (c Checkpoint) Valid() bool {
	return c == CheckpointPlan || c == CheckpointFinal
}

// ParseCheckpoint accepts "plan" or "final" in any case.
func ParseCheckpoint(raw string) (Checkpoint, error) {
	c := Checkpoint(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCheckpoint, raw)
	}
	return c, nil
}

// Resolution is the lifecycle state of a request.
type Resolution string

const (
	ResolutionPending   Resolution = "pending"
	ResolutionApproved  Resolution = "approved"
	ResolutionRejected  Resolution = "rejected"
	ResolutionTimedOut  Resolution = "timed_out"
	ResolutionCancelled Resolution = "cancelled"
)

// Request is one approval request.
type Request struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflow_id"`
	Checkpoint Checkpoint `json:"checkpoint"`
	Payload    string     `json:"payload"`
	CreatedAt  time.Time  `json:"created_at"`
	Deadline   time.Time  `json:"deadline"`
	Resolution Resolution `json:"resolution"`
	Feedback   string     `json:"feedback,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Clone returns a copy of r.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	if r.ResolvedAt != nil {
		at := *r.ResolvedAt
		ret.ResolvedAt = &at
	}
	return &ret
}

// Result is what a suspended caller receives. Approved is true only for an
// explicit approval.
type Result struct {
	Approved  bool   `json:"approved"`
	Feedback  string `json:"feedback,omitempty"`
	TimedOut  bool   `json:"timed_out,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Resolution maps the result back to the request state.
func (r *Result) Resolution() Resolution {
	switch {
	case r.TimedOut:
		return ResolutionTimedOut
	case r.Cancelled:
		return ResolutionCancelled
	case r.Approved:
		return ResolutionApproved
	default:
		return ResolutionRejected
	}
}

// Stats counts requests by outcome since process start.
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	TimedOut  int64 `json:"timed_out"`
	Cancelled int64 `json:"cancelled"`
}

// Event topics published through a Notifier.
const (
	TopicRequested = "approval.requested"
	TopicResolved  = "approval.resolved"
)

// Event carries a request to a Notifier.
type Event struct {
	Topic   string   `json:"topic"`
	Request *Request `json:"request"`
}
