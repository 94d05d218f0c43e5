package fs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal/fs"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

func TestSink(t *testing.T) {
	ctx := context.Background()
	sink, err := fs.New(ctx, "mem://localhost/journal-test")
	require.NoError(t, err)

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	entries := []*workflow.LogEntry{
		{Agent: agent.Invoice, StepIndex: 1, Error: "timeout", Timestamp: now.Add(time.Second)},
		{Agent: agent.Email, StepIndex: 0, ResultSummary: "2 messages", Timestamp: now},
	}
	for _, entry := range entries {
		require.NoError(t, sink.WriteEntry(ctx, "wf-1", entry))
	}

	snapshot := workflow.New("wf-1", "s-1", "Why is PO-7781 late?", agent.Sequence{agent.Email, agent.Invoice}, now)
	snapshot.Status = workflow.StatusFailed
	snapshot.CollectedData.Set(agent.Email, &agent.Envelope{Success: true, Message: "2 messages"})
	require.NoError(t, sink.WriteSnapshot(ctx, snapshot))

	loaded, err := sink.LoadSnapshot(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailed, loaded.Status)
	assert.Equal(t, []agent.ID{agent.Email}, loaded.CollectedData.Keys())
	assert.Equal(t, snapshot.TaskDescription, loaded.TaskDescription)

	logged, err := sink.Entries(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, logged, 2)
	assert.Equal(t, agent.Email, logged[0].Agent)
	assert.True(t, logged[1].Failed())

	_, err = sink.LoadSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = sink.Entries(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, sink.WriteEntry(ctx, "", entries[0]), store.ErrInvalidID)

	_, err = fs.New(ctx, "")
	assert.Error(t, err)
}
