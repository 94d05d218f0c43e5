package workflow

import "fmt"

// Status is the lifecycle state of one workflow run.
type Status string

const (
	StatusCreated               Status = "created"
	StatusAwaitingPlanApproval  Status = "awaiting_plan_approval"
	StatusPlanApproved          Status = "plan_approved"
	StatusRunning               Status = "running"
	StatusAwaitingFinalApproval Status = "awaiting_final_approval"
	StatusCompleted             Status = "completed"
	StatusRejected              Status = "rejected"
	StatusFailed                Status = "failed"
)

var allowedTransitions = map[Status]map[Status]struct{}{
	StatusCreated: {
		StatusAwaitingPlanApproval: {},
		StatusFailed:               {},
	},
	StatusAwaitingPlanApproval: {
		StatusPlanApproved: {},
		StatusRejected:     {},
		StatusFailed:       {},
	},
	StatusPlanApproved: {
		StatusRunning: {},
		StatusFailed:  {},
	},
	StatusRunning: {
		StatusAwaitingFinalApproval: {},
		// empty sequences complete without a final checkpoint
		StatusCompleted: {},
		StatusFailed:    {},
	},
	StatusAwaitingFinalApproval: {
		StatusCompleted: {},
		StatusRejected:  {},
		StatusFailed:    {},
	},
	StatusCompleted: {},
	StatusRejected:  {},
	StatusFailed:    {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusFailed
}

// CanTransitionTo reports whether s -> to is a legal state machine edge.
func (s Status) CanTransitionTo(to Status) bool {
	_, ok := allowedTransitions[s][to]
	return ok
}

// ValidateTransition returns an error describing an illegal transition.
func ValidateTransition(from, to Status) error {
	if !from.Valid() {
		return fmt.Errorf("invalid workflow status: %q", from)
	}
	if !to.Valid() {
		return fmt.Errorf("invalid workflow status: %q", to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid workflow transition: %s -> %s", from, to)
	}
	return nil
}
