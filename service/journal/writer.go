package journal

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/model/workflow"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
)

// Option configures a Writer.
type Option func(w *Writer)

// WithQueueConfig sets buffering and in-process retry.
func WithQueueConfig(config memory.Config) Option {
	return func(w *Writer) { w.config = config }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Writer is an asynchronous Sink: records are queued and written to the
// wrapped sink by a background worker.
type Writer struct {
	sink    Sink
	config  memory.Config
	queue   *memory.Queue[Record]
	logger  *zap.SugaredLogger
	pending atomic.Int64
	written atomic.Int64
	dropped atomic.Int64
}

// NewWriter wraps sink. Call Start before writing.
func NewWriter(sink Sink, opts ...Option) *Writer {
	ret := &Writer{
		sink:   sink,
		config: memory.DefaultConfig(),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.config.DeadLetter = true
	ret.queue = memory.NewQueue[Record](ret.config)
	return ret
}

// Start launches the worker; it returns when ctx is done or stop() is called.
func (w *Writer) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		for {
			msg, err := w.queue.Consume(ctx)
			if err != nil {
				return
			}
			record := msg.T()
			if err := record.Apply(ctx, w.sink); err != nil {
				attempt := msg.(*memory.Message[Record]).Attempt()
				if attempt < w.config.MaxRetries {
					w.logger.Debugw("journal write failed, retrying", "workflow_id", record.WorkflowID, "kind", record.Kind, "attempt", attempt+1, "error", err)
					_ = msg.Nack(err)
					continue
				}
				w.logger.Errorw("journal record dropped", "workflow_id", record.WorkflowID, "kind", record.Kind, "error", err)
				w.dropped.Add(1)
			} else {
				w.written.Add(1)
			}
			_ = msg.Ack()
			w.pending.Add(-1)
		}
	}()
	return cancel
}

func (w *Writer) enqueue(record *Record) error {
	if err := w.queue.TryPublish(record); err != nil {
		w.dropped.Add(1)
		w.logger.Warnw("journal queue full", "workflow_id", record.WorkflowID, "kind", record.Kind)
		return err
	}
	w.pending.Add(1)
	return nil
}

func (w *Writer) WriteEntry(_ context.Context, workflowID string, entry *workflow.LogEntry) error {
	copied := *entry
	return w.enqueue(&Record{Kind: KindEntry, WorkflowID: workflowID, Entry: &copied})
}

func (w *Writer) WriteSnapshot(_ context.Context, snapshot *workflow.Context) error {
	return w.enqueue(&Record{Kind: KindSnapshot, WorkflowID: snapshot.WorkflowID, Snapshot: snapshot.Clone()})
}

// Drain waits until every queued record was written or given up on.
func (w *Writer) Drain(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for {
		if w.pending.Load()-int64(w.queue.DLQSize()) <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats reports records written and dropped.
func (w *Writer) Stats() (written, dropped int64) {
	return w.written.Load(), w.dropped.Load()
}

var _ Sink = (*Writer)(nil)
