// Package postgres stores journal records in PostgreSQL through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/agent"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/store"
)

// Schema creates the journal tables.
const Schema = `
CREATE TABLE IF NOT EXISTS workflow_log (
	id BIGSERIAL PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	step_index INTEGER NOT NULL,
	agent TEXT NOT NULL,
	result_summary TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	logged_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workflow_log_workflow ON workflow_log(workflow_id, step_index);

CREATE TABLE IF NOT EXISTS workflow_snapshots (
	workflow_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	snapshot JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// DB is the subset of pgxpool.Pool used by the sink.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Sink writes journal records to PostgreSQL.
type Sink struct {
	db DB
}

// New creates a sink on db.
func New(db DB) *Sink {
	return &Sink{db: db}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables when missing.
func (s *Sink) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return nil
}

func (s *Sink) WriteEntry(ctx context.Context, workflowID string, entry *workflow.LogEntry) error {
	if workflowID == "" {
		return store.ErrInvalidID
	}
	_, err := s.db.Exec(ctx, `INSERT INTO workflow_log (workflow_id, step_index, agent, result_summary, error, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		workflowID, entry.StepIndex, string(entry.Agent), entry.ResultSummary, entry.Error, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

func (s *Sink) WriteSnapshot(ctx context.Context, snapshot *workflow.Context) error {
	if snapshot == nil || snapshot.WorkflowID == "" {
		return store.ErrInvalidID
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(ctx, `INSERT INTO workflow_snapshots (workflow_id, status, snapshot, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (workflow_id) DO UPDATE SET status = EXCLUDED.status, snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		snapshot.WorkflowID, string(snapshot.Status), data)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the last snapshot of a workflow.
func (s *Sink) LoadSnapshot(ctx context.Context, workflowID string) (*workflow.Context, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT snapshot FROM workflow_snapshots WHERE workflow_id = $1`, workflowID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	ret := &workflow.Context{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return ret, nil
}

// Entries reads the log entries of a workflow in insertion order.
func (s *Sink) Entries(ctx context.Context, workflowID string) ([]*workflow.LogEntry, error) {
	rows, err := s.db.Query(ctx, `SELECT step_index, agent, result_summary, error, logged_at
		FROM workflow_log WHERE workflow_id = $1 ORDER BY id`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()
	var ret []*workflow.LogEntry
	for rows.Next() {
		entry := &workflow.LogEntry{}
		var id string
		if err := rows.Scan(&entry.StepIndex, &id, &entry.ResultSummary, &entry.Error, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.Agent = agent.ID(id)
		ret = append(ret, entry)
	}
	return ret, rows.Err()
}

var _ journal.Sink = (*Sink)(nil)
