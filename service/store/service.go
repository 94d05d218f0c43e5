// Package store defines the workflow context store: the single authoritative
// record of every in-flight and recently finished run.
package store

import (
	"context"
	"time"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

// Service keeps workflow contexts. Operations on one id are linearizable;
// distinct ids never contend on a shared lock for longer than a map lookup.
type Service interface {
	// Create registers a new context in the created state. It returns false when
	// the id already exists.
	Create(ctx context.Context, id, sessionID, task string, sequence agent.Sequence) (bool, error)

	UpdateStatus(ctx context.Context, id string, status workflow.Status) error

	SetPlanApproval(ctx context.Context, id string, approved bool) error

	SetFinalApproval(ctx context.Context, id string, approved bool) error

	// Get returns a deep copy of the context.
	Get(ctx context.Context, id string) (*workflow.Context, error)

	// RecordStep merges a step result into collected data, appends a log entry
	// and advances the step cursor.
	RecordStep(ctx context.Context, id string, agentID agent.ID, stepIndex int, result *agent.Envelope, summary string) error

	// RecordFailure appends an error-marked log entry. The cursor moves past the
	// step only when advance is set.
	RecordFailure(ctx context.Context, id string, agentID agent.ID, stepIndex int, cause error, advance bool) error

	AttachReport(ctx context.Context, id string, report *workflow.Report) error

	List(ctx context.Context) ([]*workflow.Context, error)

	// CleanupOlderThan evicts terminal contexts not updated within maxAge.
	CleanupOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}
