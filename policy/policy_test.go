package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
)

func TestPolicy_IsAllowed(t *testing.T) {
	type testCase struct {
		name     string
		policy   *Policy
		id       agent.ID
		expected bool
	}

	tests := []testCase{
		{name: "nil policy", policy: nil, id: agent.Email, expected: true},
		{name: "empty lists", policy: &Policy{}, id: agent.CRM, expected: true},
		{name: "blocked", policy: &Policy{BlockList: []string{"crm"}}, id: agent.CRM, expected: false},
		{name: "blocked by alias", policy: &Policy{BlockList: []string{"Salesforce"}}, id: agent.CRM, expected: false},
		{name: "allowed", policy: &Policy{AllowList: []string{"email", "invoice"}}, id: agent.Invoice, expected: true},
		{name: "not in allow list", policy: &Policy{AllowList: []string{"email"}}, id: agent.Analysis, expected: false},
		{name: "block wins", policy: &Policy{AllowList: []string{"email"}, BlockList: []string{"EMAIL"}}, id: agent.Email, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.policy.IsAllowed(tc.id))
		})
	}
}

func TestPolicy_ModeFor(t *testing.T) {
	var nilPolicy *Policy
	assert.Equal(t, ModeAsk, nilPolicy.ModeFor(approval.CheckpointPlan))
	p := &Policy{PlanMode: ModeAuto}
	assert.Equal(t, ModeAuto, p.ModeFor(approval.CheckpointPlan))
	assert.Equal(t, ModeAsk, p.ModeFor(approval.CheckpointFinal))
	p.FinalMode = ModeDeny
	assert.Equal(t, ModeDeny, p.ModeFor(approval.CheckpointFinal))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, (*Policy)(nil).Validate())
	assert.NoError(t, (&Policy{PlanMode: ModeAuto, AllowList: []string{"gmail"}}).Validate())
	assert.Error(t, (&Policy{PlanMode: "sometimes"}).Validate())
	assert.Error(t, (&Policy{FinalMode: "never"}).Validate())
	assert.ErrorIs(t, (&Policy{BlockList: []string{"weather"}}).Validate(), agent.ErrUnknown)
}

func TestConfigRoundTrip(t *testing.T) {
	assert.Nil(t, ToConfig(nil))
	assert.Nil(t, FromConfig(nil))
	p := FromConfig(&Config{Plan: "AUTO", Final: "ask", BlockList: []string{"crm"}})
	assert.Equal(t, ModeAuto, p.PlanMode)
	assert.Equal(t, &Config{Plan: "auto", Final: "ask", BlockList: []string{"crm"}}, ToConfig(p))
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	p := &Policy{FinalMode: ModeDeny}
	assert.Same(t, p, FromContext(WithPolicy(context.Background(), p)))
}
