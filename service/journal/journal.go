// Package journal hands execution log entries and terminal snapshots to a
// durable sink without slowing a run down. Writes are queued and retried in
// process; nothing survives a restart.
package journal

import (
	"context"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
)

// Sink persists journal records.
type Sink interface {
	WriteEntry(ctx context.Context, workflowID string, entry *workflow.LogEntry) error
	WriteSnapshot(ctx context.Context, snapshot *workflow.Context) error
}

// Nop discards every record.
type Nop struct{}

func (Nop) WriteEntry(context.Context, string, *workflow.LogEntry) error { return nil }
func (Nop) WriteSnapshot(context.Context, *workflow.Context) error       { return nil }

// Record kinds.
const (
	KindEntry    = "entry"
	KindSnapshot = "snapshot"
)

// Record is one queued write.
type Record struct {
	Kind       string
	WorkflowID string
	Entry      *workflow.LogEntry
	Snapshot   *workflow.Context
}

// Apply writes r to sink.
func (r *Record) Apply(ctx context.Context, sink Sink) error {
	if r.Kind == KindSnapshot {
		return sink.WriteSnapshot(ctx, r.Snapshot)
	}
	return sink.WriteEntry(ctx, r.WorkflowID, r.Entry)
}
