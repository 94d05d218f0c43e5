package workflow

import (
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Context is the authoritative state of one workflow run.
type Context struct {
	WorkflowID       string         `json:"workflow_id"`
	SessionID        string         `json:"session_id"`
	TaskDescription  string         `json:"task_description"`
	AgentSequence    agent.Sequence `json:"agent_sequence"`
	Status           Status         `json:"status"`
	PlanApproved     Approval       `json:"plan_approved"`
	FinalApproved    Approval       `json:"final_approved"`
	CurrentStepIndex int            `json:"current_step_index"`
	CollectedData    *CollectedData `json:"collected_data"`
	ExecutionLog     []*LogEntry    `json:"execution_log"`
	Report           *Report        `json:"report,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
}

// LogEntry records one executed (or failed) step.
type LogEntry struct {
	Agent         agent.ID  `json:"agent"`
	StepIndex     int       `json:"step_index"`
	ResultSummary string    `json:"result_summary"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Failed reports whether the entry carries an error marker.
func (e *LogEntry) Failed() bool { return e != nil && e.Error != "" }

// New creates a context in the created state.
func New(workflowID, sessionID, task string, sequence agent.Sequence, now time.Time) *Context {
	return &Context{
		WorkflowID:      workflowID,
		SessionID:       sessionID,
		TaskDescription: task,
		AgentSequence:   sequence.Clone(),
		Status:          StatusCreated,
		CollectedData:   NewCollectedData(),
		ExecutionLog:    []*LogEntry{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone returns a deep copy safe to hand out of the store.
func (c *Context) Clone() *Context {
	if c == nil {
		return nil
	}
	ret := *c
	ret.AgentSequence = c.AgentSequence.Clone()
	ret.CollectedData = c.CollectedData.Clone()
	ret.ExecutionLog = make([]*LogEntry, len(c.ExecutionLog))
	for i, entry := range c.ExecutionLog {
		e := *entry
		ret.ExecutionLog[i] = &e
	}
	if c.CompletedAt != nil {
		at := *c.CompletedAt
		ret.CompletedAt = &at
	}
	return &ret
}
