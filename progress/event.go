package progress

import (
	"strings"
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Version is carried on every event; bump it when a wire field is renamed.
const Version = "1"

// Stage identifies what a run is doing when an event is emitted.
type Stage string

const (
	StageAwaitingPlanApproval  Stage = "awaiting_plan_approval"
	StageResultsCompilation    Stage = "results_compilation"
	StageAwaitingFinalApproval Stage = "awaiting_final_approval"
	StageCompleted             Stage = "completed"
	StageRejected              Stage = "rejected"
	StageFailed                Stage = "failed"

	agentStagePrefix = "agent_"
)

// AgentStage returns the stage reported while id executes, e.g. agent_email.
func AgentStage(id agent.ID) Stage {
	return Stage(agentStagePrefix + string(id))
}

// Agent returns the agent id of an agent_<id> stage.
func (s Stage) Agent() (agent.ID, bool) {
	if !strings.HasPrefix(string(s), agentStagePrefix) {
		return "", false
	}
	id := agent.ID(strings.TrimPrefix(string(s), agentStagePrefix))
	return id, id.Valid()
}

// Terminal reports whether no further event follows for the run.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageRejected || s == StageFailed
}

// Event is the progress message pushed to subscribers. Field names are part of
// the wire contract.
type Event struct {
	Version            string     `json:"version"`
	WorkflowID         string     `json:"workflow_id"`
	Stage              Stage      `json:"stage"`
	ProgressPercentage int        `json:"progress_percentage"`
	CurrentAgent       *agent.ID  `json:"current_agent"`
	CompletedAgents    []agent.ID `json:"completed_agents"`
	PendingAgents      []agent.ID `json:"pending_agents"`
	Message            string     `json:"message"`
	Timestamp          time.Time  `json:"timestamp"`
}

// Agents reconstructs the run's sequence from the event.
func (e *Event) Agents() agent.Sequence {
	ret := make(agent.Sequence, 0, len(e.CompletedAgents)+len(e.PendingAgents)+1)
	ret = append(ret, e.CompletedAgents...)
	if e.CurrentAgent != nil {
		ret = append(ret, *e.CurrentAgent)
	}
	return append(ret, e.PendingAgents...)
}
