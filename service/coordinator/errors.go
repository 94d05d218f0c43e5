package coordinator

import (
	"errors"
	"fmt"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

var (
	// ErrCancelled marks a run stopped through Cancel or its context.
	ErrCancelled = errors.New("coordinator: workflow cancelled")

	// ErrDuplicateWorkflow is returned when the workflow id is already in use.
	ErrDuplicateWorkflow = errors.New("coordinator: workflow already exists")

	// ErrAgentBlocked is wrapped by ConfigurationError for agents excluded by policy.
	ErrAgentBlocked = errors.New("agent blocked by policy")

	// ErrNoResult is wrapped by AgentExecutionError when an agent returns nothing.
	ErrNoResult = errors.New("agent returned no result")
)

// ConfigurationError reports a sequence that cannot run. It is raised before
// any workflow state is created.
type ConfigurationError struct {
	Agent agent.ID
	Index int
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid agent sequence at %d (%q): %v", e.Index, e.Agent, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// AgentExecutionError reports a failed step.
type AgentExecutionError struct {
	Agent     agent.ID
	StepIndex int
	Err       error
}

func (e *AgentExecutionError) Error() string {
	return fmt.Sprintf("agent %s failed at step %d: %v", e.Agent, e.StepIndex, e.Err)
}

func (e *AgentExecutionError) Unwrap() error { return e.Err }
