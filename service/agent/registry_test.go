package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent/mock"
)

func TestParse(t *testing.T) {
	type testCase struct {
		name        string
		raw         string
		expect      agent.ID
		expectError bool
	}
	tests := []testCase{
		{name: "exact", raw: "email", expect: agent.Email},
		{name: "case and space", raw: "  Invoice ", expect: agent.Invoice},
		{name: "alias", raw: "salesforce", expect: agent.CRM},
		{name: "unknown", raw: "fax", expectError: true},
		{name: "empty", raw: "", expectError: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := agent.Parse(tc.raw)
			if tc.expectError {
				assert.True(t, errors.Is(err, agent.ErrUnknown))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestParseSequence(t *testing.T) {
	seq, err := agent.ParseSequence([]string{"email", "invoice", "email"})
	require.NoError(t, err)
	assert.Equal(t, agent.Sequence{agent.Email, agent.Invoice, agent.Email}, seq)

	_, err = agent.ParseSequence([]string{"email", "telex"})
	assert.ErrorIs(t, err, agent.ErrUnknown)
	assert.Contains(t, err.Error(), "sequence[1]")
}

func TestRegistry_Resolve(t *testing.T) {
	registry := agent.NewRegistry()
	require.NoError(t, registry.RegisterAdapter(mock.New(agent.Email, 0)))
	require.NoError(t, registry.RegisterAdapter(mock.New(agent.Invoice, 0)))

	funcs, err := registry.Resolve(agent.Sequence{agent.Email, agent.Invoice})
	require.NoError(t, err)
	assert.Len(t, funcs, 2)

	_, err = registry.Resolve(agent.Sequence{agent.Email, agent.CRM})
	var notRegistered *agent.NotRegisteredError
	require.ErrorAs(t, err, &notRegistered)
	assert.Equal(t, agent.CRM, notRegistered.ID)
	assert.Equal(t, 1, notRegistered.Index)

	_, err = registry.Resolve(agent.Sequence{"pager"})
	assert.ErrorIs(t, err, agent.ErrUnknown)

	assert.Error(t, registry.Register("pager", func(context.Context, *agent.Input) (*agent.Envelope, error) { return nil, nil }))
	assert.Equal(t, []agent.ID{agent.Email, agent.Invoice}, registry.IDs())
}

func TestMockAdapter_Invoke(t *testing.T) {
	registry := agent.NewRegistry()
	require.NoError(t, mock.RegisterAll(registry, 0))

	fn, ok := registry.Lookup(agent.Invoice)
	require.True(t, ok)
	env, err := fn(context.Background(), &agent.Input{TaskDescription: "why is PO-7781 missing?"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	invoices := env.Data["invoices"].([]interface{})
	assert.Equal(t, "PO-7781", invoices[0].(map[string]interface{})["po"])
}

func TestEnvelope_Summary(t *testing.T) {
	var nilEnv *agent.Envelope
	assert.Equal(t, "no result", nilEnv.Summary())
	assert.Equal(t, "done", (&agent.Envelope{Message: "done"}).Summary())
	assert.Equal(t, "2 field(s): a, b", (&agent.Envelope{Data: map[string]interface{}{"b": 1, "a": 2}}).Summary())
}
