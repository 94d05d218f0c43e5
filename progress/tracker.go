package progress

import (
	"context"
	"sync"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/internal/clock"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// The plan checkpoint reports 0; step index starts at index*100/len(sequence)
// and compilation, the final checkpoint and completion report 100.
const (
	percentPlan       = 0
	percentCompletion = 100
)

// Tracker derives events for one run. It is safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	workflowID string
	sequence   agent.Sequence
	percent    int
	last       *Event
	onChange   func(Event)
}

// NewTracker creates a tracker; onChange receives every emitted event.
func NewTracker(workflowID string, sequence agent.Sequence, onChange func(Event)) *Tracker {
	return &Tracker{workflowID: workflowID, sequence: sequence.Clone(), onChange: onChange}
}

// AwaitingPlan reports the plan checkpoint.
func (t *Tracker) AwaitingPlan(message string) Event {
	return t.emit(StageAwaitingPlanApproval, 0, -1, percentPlan, message)
}

// AgentStarted reports step index running.
func (t *Tracker) AgentStarted(index int, message string) Event {
	return t.emit(AgentStage(t.at(index)), index, index, t.stepPercent(index), message)
}

// AgentFinished reports step index done; the agent moves to completed.
func (t *Tracker) AgentFinished(index int, message string) Event {
	return t.emit(AgentStage(t.at(index)), index+1, -1, t.stepPercent(index+1), message)
}

// Compiling reports that results are being compiled.
func (t *Tracker) Compiling(message string) Event {
	return t.emit(StageResultsCompilation, len(t.sequence), -1, percentCompletion, message)
}

// AwaitingFinal reports the final checkpoint.
func (t *Tracker) AwaitingFinal(message string) Event {
	return t.emit(StageAwaitingFinalApproval, len(t.sequence), -1, percentCompletion, message)
}

// Completed reports a successful end.
func (t *Tracker) Completed(message string) Event {
	return t.emit(StageCompleted, len(t.sequence), -1, percentCompletion, message)
}

// Rejected reports a rejected checkpoint; done is the number of steps passed.
func (t *Tracker) Rejected(done int, message string) Event {
	return t.emit(StageRejected, done, -1, 0, message)
}

// Failed reports a failed run. current is the failing step or -1.
func (t *Tracker) Failed(done, current int, message string) Event {
	return t.emit(StageFailed, done, current, 0, message)
}

// Snapshot returns the last emitted event.
func (t *Tracker) Snapshot() (Event, bool) {
	if t == nil {
		return Event{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return Event{}, false
	}
	return *t.last, true
}

func (t *Tracker) at(index int) agent.ID {
	if index < 0 || index >= len(t.sequence) {
		return ""
	}
	return t.sequence[index]
}

// stepPercent is the share of the sequence before step index.
func (t *Tracker) stepPercent(index int) int {
	if len(t.sequence) == 0 {
		return percentCompletion
	}
	return index * 100 / len(t.sequence)
}

// emit builds an event where sequence[:done] is completed and the rest is
// pending. A valid current index overrides done: that agent is reported as
// running with everything before it completed.
func (t *Tracker) emit(stage Stage, done, current, percent int, message string) Event {
	if t == nil {
		return Event{}
	}
	t.mu.Lock()
	n := len(t.sequence)
	if done < 0 {
		done = 0
	}
	if done > n {
		done = n
	}
	event := Event{
		Version:         Version,
		WorkflowID:      t.workflowID,
		Stage:           stage,
		CompletedAgents: append([]agent.ID{}, t.sequence[:done]...),
		Message:         message,
		Timestamp:       clock.Now(),
	}
	rest := done
	if current >= 0 && current < n {
		id := t.sequence[current]
		event.CurrentAgent = &id
		event.CompletedAgents = append([]agent.ID{}, t.sequence[:current]...)
		rest = current + 1
	}
	event.PendingAgents = append([]agent.ID{}, t.sequence[rest:]...)
	if percent > t.percent {
		t.percent = percent
	}
	event.ProgressPercentage = t.percent
	t.last = &event
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(event)
	}
	return event
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, workflowID string, sequence agent.Sequence, onChange func(Event)) (context.Context, *Tracker) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := NewTracker(workflowID, sequence, onChange)
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx.
func FromContext(ctx context.Context) (*Tracker, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Tracker)
	return tr, ok
}
