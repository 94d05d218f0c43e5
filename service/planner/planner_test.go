package planner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/planner"
)

func TestParseSequence(t *testing.T) {
	type testCase struct {
		name        string
		text        string
		expected    agent.Sequence
		expectError error
	}

	tests := []testCase{
		{name: "json array", text: `["email", "invoice"]`, expected: agent.Sequence{agent.Email, agent.Invoice}},
		{name: "json object", text: `{"agents": ["crm", "analysis"]}`, expected: agent.Sequence{agent.CRM, agent.Analysis}},
		{name: "fenced json", text: "```json\n[\"email_search\", \"salesforce\"]\n```", expected: agent.Sequence{agent.Email, agent.CRM}},
		{name: "csv", text: "Email, Invoice ,analysis", expected: agent.Sequence{agent.Email, agent.Invoice, agent.Analysis}},
		{name: "arrows", text: "email → invoice -> email", expected: agent.Sequence{agent.Email, agent.Invoice, agent.Email}},
		{name: "empty", text: "  ", expectError: planner.ErrEmptyPlan},
		{name: "empty array", text: "[]", expectError: planner.ErrEmptyPlan},
		{name: "unknown agent", text: "email, weather", expectError: agent.ErrUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seq, err := planner.ParseSequence(tc.text)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, seq)
		})
	}

	_, err := planner.ParseSequence(`[email]`)
	assert.Error(t, err)
}

func TestPlanners(t *testing.T) {
	ctx := context.Background()
	static := planner.Static{agent.Email, agent.CRM}
	seq, err := static.Plan(ctx, "anything")
	require.NoError(t, err)
	seq[0] = agent.Analysis
	again, _ := static.Plan(ctx, "anything")
	assert.Equal(t, agent.Email, again[0])

	text := planner.Text(func(context.Context, string) (string, error) { return `["invoice"]`, nil })
	seq, err = text.Plan(ctx, "task")
	require.NoError(t, err)
	assert.Equal(t, agent.Sequence{agent.Invoice}, seq)

	failing := planner.Text(func(context.Context, string) (string, error) { return "", errors.New("llm down") })
	_, err = failing.Plan(ctx, "task")
	assert.EqualError(t, err, "llm down")
}
