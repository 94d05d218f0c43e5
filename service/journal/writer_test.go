package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
)

type sinkMock struct {
	mock.Mock
}

func (m *sinkMock) WriteEntry(ctx context.Context, workflowID string, entry *workflow.LogEntry) error {
	return m.Called(workflowID, entry.StepIndex).Error(0)
}

func (m *sinkMock) WriteSnapshot(ctx context.Context, snapshot *workflow.Context) error {
	return m.Called(snapshot.WorkflowID, snapshot.Status).Error(0)
}

func testConfig(buffer int) memory.Config {
	return memory.Config{MaxRetries: 2, RetryDelay: time.Millisecond, QueueBuffer: buffer}
}

func TestWriter(t *testing.T) {
	type testCase struct {
		name    string
		setup   func(m *sinkMock)
		written int64
		dropped int64
	}

	tests := []testCase{
		{
			name: "writes in order",
			setup: func(m *sinkMock) {
				m.On("WriteEntry", "wf-1", 0).Return(nil).Once()
				m.On("WriteSnapshot", "wf-1", workflow.StatusCompleted).Return(nil).Once()
			},
			written: 2,
		},
		{
			name: "retries transient failure",
			setup: func(m *sinkMock) {
				m.On("WriteEntry", "wf-1", 0).Return(errors.New("busy")).Once()
				m.On("WriteEntry", "wf-1", 0).Return(nil).Once()
				m.On("WriteSnapshot", "wf-1", workflow.StatusCompleted).Return(nil).Once()
			},
			written: 2,
		},
		{
			name: "gives up after retries",
			setup: func(m *sinkMock) {
				m.On("WriteEntry", "wf-1", 0).Return(errors.New("down")).Times(3)
				m.On("WriteSnapshot", "wf-1", workflow.StatusCompleted).Return(nil).Once()
			},
			written: 1,
			dropped: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			sink := &sinkMock{}
			tc.setup(sink)
			writer := journal.NewWriter(sink, journal.WithQueueConfig(testConfig(10)))
			stop := writer.Start(ctx)
			defer stop()

			snapshot := workflow.New("wf-1", "s", "t", agent.Sequence{agent.Email}, time.Now())
			snapshot.Status = workflow.StatusCompleted
			require.NoError(t, writer.WriteEntry(ctx, "wf-1", &workflow.LogEntry{Agent: agent.Email, StepIndex: 0}))
			require.NoError(t, writer.WriteSnapshot(ctx, snapshot))

			drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			require.NoError(t, writer.Drain(drainCtx))
			written, dropped := writer.Stats()
			assert.Equal(t, tc.written, written)
			assert.Equal(t, tc.dropped, dropped)
			sink.AssertExpectations(t)
		})
	}
}

func TestWriter_QueueFull(t *testing.T) {
	ctx := context.Background()
	writer := journal.NewWriter(journal.Nop{}, journal.WithQueueConfig(testConfig(1)))

	require.NoError(t, writer.WriteEntry(ctx, "wf-1", &workflow.LogEntry{}))
	err := writer.WriteEntry(ctx, "wf-1", &workflow.LogEntry{StepIndex: 1})
	assert.ErrorIs(t, err, messaging.ErrQueueFull)

	stop := writer.Start(ctx)
	defer stop()
	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, writer.Drain(drainCtx))
	written, dropped := writer.Stats()
	assert.Equal(t, int64(1), written)
	assert.Equal(t, int64(1), dropped)
}
