package workflow

import (
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Report is the aggregated result of a run. It is immutable once compiled.
type Report struct {
	TaskDescription string            `json:"task_description"`
	Sections        []*Section        `json:"sections"`
	Failures        []*LogEntry       `json:"failures,omitempty"`
	CrossReferences []*CrossReference `json:"cross_references,omitempty"`
	Summary         string            `json:"summary"`
	CompiledAt      time.Time         `json:"compiled_at"`
}

// Section describes one agent's contribution.
type Section struct {
	Agent       agent.ID `json:"agent"`
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Fields      []string `json:"fields,omitempty"`
	Occurrences int      `json:"occurrences"`
}

// CrossReference links a business identifier to every agent that mentioned it.
type CrossReference struct {
	Kind   string     `json:"kind"`
	Value  string     `json:"value"`
	Agents []agent.ID `json:"agents"`
}
