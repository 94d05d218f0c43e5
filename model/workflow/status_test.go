package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	type testCase struct {
		name     string
		from     Status
		to       Status
		expected bool
	}

	tests := []testCase{
		{name: "created to plan wait", from: StatusCreated, to: StatusAwaitingPlanApproval, expected: true},
		{name: "plan wait to approved", from: StatusAwaitingPlanApproval, to: StatusPlanApproved, expected: true},
		{name: "plan wait to rejected", from: StatusAwaitingPlanApproval, to: StatusRejected, expected: true},
		{name: "approved to running", from: StatusPlanApproved, to: StatusRunning, expected: true},
		{name: "running to final wait", from: StatusRunning, to: StatusAwaitingFinalApproval, expected: true},
		{name: "running to completed", from: StatusRunning, to: StatusCompleted, expected: true},
		{name: "final wait to completed", from: StatusAwaitingFinalApproval, to: StatusCompleted, expected: true},
		{name: "final wait to rejected", from: StatusAwaitingFinalApproval, to: StatusRejected, expected: true},
		{name: "any to failed", from: StatusRunning, to: StatusFailed, expected: true},
		{name: "skip plan approval", from: StatusCreated, to: StatusRunning, expected: false},
		{name: "regression", from: StatusRunning, to: StatusAwaitingPlanApproval, expected: false},
		{name: "terminal is final", from: StatusCompleted, to: StatusFailed, expected: false},
		{name: "rejected is final", from: StatusRejected, to: StatusRunning, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.from.CanTransitionTo(tc.to))
			err := ValidateTransition(tc.from, tc.to)
			if tc.expected {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusRejected, StatusFailed} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []Status{StatusCreated, StatusAwaitingPlanApproval, StatusPlanApproved, StatusRunning, StatusAwaitingFinalApproval} {
		assert.False(t, s.IsTerminal(), s)
	}
	assert.False(t, Status("paused").Valid())
	assert.Error(t, ValidateTransition("paused", StatusFailed))
}
