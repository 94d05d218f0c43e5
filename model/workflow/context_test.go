package workflow

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
)

func TestCollectedData_Set(t *testing.T) {
	data := NewCollectedData()
	assert.False(t, data.Set(agent.Email, &agent.Envelope{Success: true, Message: "first"}))
	assert.False(t, data.Set(agent.Invoice, &agent.Envelope{Success: true}))
	assert.True(t, data.Set(agent.Email, &agent.Envelope{Success: true, Message: "second"}))

	assert.Equal(t, 2, data.Len())
	assert.Equal(t, []agent.ID{agent.Invoice, agent.Email}, data.Keys())
	env, ok := data.Get(agent.Email)
	require.True(t, ok)
	assert.Equal(t, "second", env.Message)

	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"invoice":{"success":true},"email":{"success":true,"message":"second"}}`, string(encoded))

	decoded := &CollectedData{}
	require.NoError(t, json.Unmarshal(encoded, decoded))
	assert.Equal(t, data.Keys(), decoded.Keys())
}

func TestCollectedData_Nil(t *testing.T) {
	var data *CollectedData
	assert.Equal(t, 0, data.Len())
	assert.Nil(t, data.Keys())
	assert.Empty(t, data.Map())
	assert.Equal(t, 0, data.Clone().Len())
	_, ok := data.Get(agent.CRM)
	assert.False(t, ok)
}

func TestContext_Clone(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ctx := New("wf-1", "s-1", "find PO-1", agent.Sequence{agent.Email, agent.CRM}, now)
	ctx.CollectedData.Set(agent.Email, &agent.Envelope{Success: true, Data: map[string]interface{}{"count": 1}})
	ctx.ExecutionLog = append(ctx.ExecutionLog, &LogEntry{Agent: agent.Email, ResultSummary: "ok", Timestamp: now})

	clone := ctx.Clone()
	clone.AgentSequence[0] = agent.Analysis
	clone.ExecutionLog[0].ResultSummary = "changed"
	clone.CollectedData.Set(agent.CRM, &agent.Envelope{})
	env, _ := clone.CollectedData.Get(agent.Email)
	env.Data["count"] = 2

	assert.Equal(t, agent.Email, ctx.AgentSequence[0])
	assert.Equal(t, "ok", ctx.ExecutionLog[0].ResultSummary)
	assert.Equal(t, 1, ctx.CollectedData.Len())
	original, _ := ctx.CollectedData.Get(agent.Email)
	assert.Equal(t, 1, original.Data["count"])
	assert.Equal(t, StatusCreated, ctx.Status)
	assert.Nil(t, (*Context)(nil).Clone())
}

func TestApproval_JSON(t *testing.T) {
	type testCase struct {
		name     string
		value    Approval
		expected string
	}
	tests := []testCase{
		{name: "unset", value: ApprovalUnset, expected: "null"},
		{name: "granted", value: ApprovalGranted, expected: "true"},
		{name: "denied", value: ApprovalDenied, expected: "false"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(data))
			var decoded Approval
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc.value, decoded)
		})
	}
	approved, set := ApprovalOf(false).Bool()
	assert.False(t, approved)
	assert.True(t, set)
}

func TestLogEntry_Failed(t *testing.T) {
	assert.False(t, (&LogEntry{}).Failed())
	assert.True(t, (&LogEntry{Error: errors.New("boom").Error()}).Failed())
	assert.False(t, (*LogEntry)(nil).Failed())
}
