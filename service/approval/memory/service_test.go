package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval/memory"
)

type recorderMock struct {
	mock.Mock
}

func (m *recorderMock) SetPlanApproval(ctx context.Context, id string, approved bool) error {
	return m.Called(id, approved).Error(0)
}

func (m *recorderMock) SetFinalApproval(ctx context.Context, id string, approved bool) error {
	return m.Called(id, approved).Error(0)
}

type eventLog struct {
	mu     sync.Mutex
	events []*approval.Event
}

func (l *eventLog) Notify(_ context.Context, e *approval.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) topics() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ret := make([]string, 0, len(l.events))
	for _, e := range l.events {
		ret = append(ret, e.Topic)
	}
	return ret
}

// waitPending blocks until the gate has a pending request for the workflow.
func waitPending(t *testing.T, svc approval.Service, workflowID string) *approval.Request {
	t.Helper()
	var found *approval.Request
	require.Eventually(t, func() bool {
		for _, r := range svc.ListPending(context.Background()) {
			if r.WorkflowID == workflowID {
				found = r
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	return found
}

func TestService_RequestApproval(t *testing.T) {
	type testCase struct {
		name       string
		checkpoint approval.Checkpoint
		respond    *bool
		cancel     bool
		timeout    time.Duration
		expected   approval.Result
		recorded   bool
	}
	yes, no := true, false

	tests := []testCase{
		{
			name:       "approved",
			checkpoint: approval.CheckpointPlan,
			respond:    &yes,
			timeout:    time.Second,
			expected:   approval.Result{Approved: true, Feedback: "fine"},
			recorded:   true,
		},
		{
			name:       "rejected",
			checkpoint: approval.CheckpointFinal,
			respond:    &no,
			timeout:    time.Second,
			expected:   approval.Result{Approved: false, Feedback: "fine"},
			recorded:   false,
		},
		{
			name:       "timed out fails closed",
			checkpoint: approval.CheckpointPlan,
			timeout:    20 * time.Millisecond,
			expected:   approval.Result{TimedOut: true, Feedback: "no response before deadline"},
		},
		{
			name:       "cancelled",
			checkpoint: approval.CheckpointFinal,
			cancel:     true,
			timeout:    time.Second,
			expected:   approval.Result{Cancelled: true, Feedback: "workflow cancelled"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := &recorderMock{}
			if tc.checkpoint == approval.CheckpointPlan {
				recorder.On("SetPlanApproval", "wf-1", tc.recorded).Return(nil).Once()
			} else {
				recorder.On("SetFinalApproval", "wf-1", tc.recorded).Return(nil).Once()
			}
			notifications := &eventLog{}
			svc := memory.New(memory.WithRecorder(recorder), memory.WithNotifier(notifications))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tc.respond != nil || tc.cancel {
				go func() {
					request := waitPending(t, svc, "wf-1")
					assert.Equal(t, tc.checkpoint, request.Checkpoint)
					assert.Equal(t, "review plan", request.Payload)
					assert.Equal(t, approval.ResolutionPending, request.Resolution)
					if tc.respond != nil {
						assert.True(t, svc.SubmitResponse(ctx, "wf-1", tc.checkpoint, *tc.respond, "fine"))
						return
					}
					cancel()
				}()
			}

			result, err := svc.RequestApproval(ctx, "wf-1", tc.checkpoint, "review plan", tc.timeout)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, *result)
			assert.Empty(t, svc.ListPending(context.Background()))
			recorder.AssertExpectations(t)
			assert.Equal(t, []string{approval.TopicRequested, approval.TopicResolved}, notifications.topics())
		})
	}
}

func TestService_DuplicatePending(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	done := make(chan *approval.Result)
	go func() {
		result, _ := svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", time.Second)
		done <- result
	}()
	waitPending(t, svc, "wf-1")

	_, err := svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", time.Second)
	assert.ErrorIs(t, err, approval.ErrAlreadyPending)

	// another checkpoint or workflow is independent
	go func() { _, _ = svc.RequestApproval(ctx, "wf-2", approval.CheckpointPlan, "p", 30*time.Millisecond) }()
	waitPending(t, svc, "wf-2")

	require.True(t, svc.SubmitResponse(ctx, "wf-1", approval.CheckpointPlan, true, ""))
	assert.True(t, (<-done).Approved)
}

func TestService_LateResponse(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	assert.False(t, svc.SubmitResponse(ctx, "wf-1", approval.CheckpointPlan, true, ""))

	result, err := svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.True(t, result.TimedOut)

	assert.False(t, svc.SubmitResponse(ctx, "wf-1", approval.CheckpointPlan, true, "too late"))

	go func() {
		waitPending(t, svc, "wf-1")
		assert.True(t, svc.SubmitResponse(ctx, "wf-1", approval.CheckpointPlan, false, "first"))
		assert.False(t, svc.SubmitResponse(ctx, "wf-1", approval.CheckpointPlan, true, "second"))
	}()
	result, err = svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", time.Second)
	require.NoError(t, err)
	assert.False(t, result.Approved)
	assert.Equal(t, "first", result.Feedback)
}

func TestService_InvalidRequests(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	_, err := svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", 0)
	assert.ErrorIs(t, err, approval.ErrTimeoutRequired)
	_, err = svc.RequestApproval(ctx, "wf-1", approval.CheckpointPlan, "p", -time.Second)
	assert.ErrorIs(t, err, approval.ErrTimeoutRequired)
	_, err = svc.RequestApproval(ctx, "wf-1", "midway", "p", time.Second)
	assert.ErrorIs(t, err, approval.ErrInvalidCheckpoint)
	assert.Equal(t, int64(0), svc.Stats().Total)
}

func TestService_Failures(t *testing.T) {
	ctx := context.Background()
	recorder := &recorderMock{}
	recorder.On("SetPlanApproval", "missing", false).Return(errors.New("not found"))
	failing := approval.NotifierFunc(func(context.Context, *approval.Event) error { return errors.New("down") })
	svc := memory.New(memory.WithRecorder(recorder), memory.WithNotifier(failing))

	result, err := svc.RequestApproval(ctx, "missing", approval.CheckpointPlan, "p", 5*time.Millisecond)
	assert.EqualError(t, err, "not found")
	require.NotNil(t, result)
	assert.True(t, result.TimedOut)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc := memory.New(memory.WithMeter(noop.NewMeterProvider().Meter("test")))
	for _, checkpoint := range []approval.Checkpoint{approval.CheckpointPlan, approval.CheckpointFinal} {
		go func(c approval.Checkpoint) {
			waitPending(t, svc, "wf-1")
			svc.SubmitResponse(ctx, "wf-1", c, true, "")
		}(checkpoint)
		result, err := svc.RequestApproval(ctx, "wf-1", checkpoint, "p", time.Second)
		require.NoError(t, err)
		assert.True(t, result.Approved)
	}

	_, _ = svc.RequestApproval(ctx, "wf-2", approval.CheckpointPlan, "p", 5*time.Millisecond)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _ = svc.RequestApproval(cancelled, "wf-3", approval.CheckpointPlan, "p", time.Second)

	assert.Equal(t, approval.Stats{Total: 4, Approved: 2, TimedOut: 1, Cancelled: 1}, svc.Stats())
}
