package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal/postgres"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

func TestSink(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("journal"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	sink := postgres.New(pool)
	require.NoError(t, sink.Migrate(ctx))
	require.NoError(t, sink.Migrate(ctx))

	t.Run("entries", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, sink.WriteEntry(ctx, "wf-1", &workflow.LogEntry{Agent: agent.Email, StepIndex: 0, ResultSummary: "ok", Timestamp: now}))
		require.NoError(t, sink.WriteEntry(ctx, "wf-1", &workflow.LogEntry{Agent: agent.CRM, StepIndex: 1, Error: "denied", Timestamp: now}))

		entries, err := sink.Entries(ctx, "wf-1")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, agent.CRM, entries[1].Agent)
		assert.True(t, entries[1].Failed())
		assert.True(t, now.Equal(entries[0].Timestamp))
	})

	t.Run("snapshot upsert", func(t *testing.T) {
		snapshot := workflow.New("wf-1", "s", "task", agent.Sequence{agent.Email}, time.Now())
		snapshot.Status = workflow.StatusAwaitingFinalApproval
		require.NoError(t, sink.WriteSnapshot(ctx, snapshot))
		snapshot.Status = workflow.StatusCompleted
		snapshot.CollectedData.Set(agent.Email, &agent.Envelope{Success: true})
		require.NoError(t, sink.WriteSnapshot(ctx, snapshot))

		loaded, err := sink.LoadSnapshot(ctx, "wf-1")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusCompleted, loaded.Status)
		assert.Equal(t, 1, loaded.CollectedData.Len())

		_, err = sink.LoadSnapshot(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
