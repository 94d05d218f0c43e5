// Package event fans workflow progress and approval notifications out to
// in-process subscribers. Publishing never blocks: a subscriber whose buffer
// is full misses the event.
package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/progress"
	approval "github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/approval"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
)

// AllWorkflows subscribes to events of every workflow.
const AllWorkflows = "*"

// ErrClosed is returned by Next on a closed subscription.
var ErrClosed = errors.New("event: subscription closed")

// Bus is an in-process publish/subscribe hub keyed by workflow id.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string]map[*Subscription]struct{}
	queueConfig memory.Config
	logger      *zap.SugaredLogger
	published   atomic.Int64
	dropped     atomic.Int64
}

// New creates a bus.
func New(opts ...Option) *Bus {
	ret := &Bus{
		subs:        make(map[string]map[*Subscription]struct{}),
		queueConfig: memory.Config{QueueBuffer: 64},
		logger:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.queueConfig.MaxRetries = 0
	ret.queueConfig.DeadLetter = false
	return ret
}

// Subscribe registers a subscription for workflowID or AllWorkflows.
func (b *Bus) Subscribe(workflowID string) *Subscription {
	sub := &Subscription{
		workflowID: workflowID,
		queue:      memory.NewQueue[Event[any]](b.queueConfig),
		bus:        b,
		done:       make(chan struct{}),
	}
	b.mu.Lock()
	set, ok := b.subs[workflowID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[workflowID] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sub.workflowID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.workflowID)
		}
	}
}

// Publish delivers e to every matching subscriber without blocking and
// returns the number of deliveries.
func (b *Bus) Publish(_ context.Context, e *Event[any]) int {
	if e == nil {
		return 0
	}
	b.published.Add(1)
	b.mu.RLock()
	targets := make([]*Subscription, 0, len(b.subs[e.WorkflowID()])+len(b.subs[AllWorkflows]))
	for sub := range b.subs[e.WorkflowID()] {
		targets = append(targets, sub)
	}
	if e.WorkflowID() != AllWorkflows {
		for sub := range b.subs[AllWorkflows] {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	delivered := 0
	for _, sub := range targets {
		if err := sub.queue.TryPublish(e); err != nil {
			b.dropped.Add(1)
			b.logger.Debugw("event dropped", "workflow_id", e.WorkflowID(), "topic", e.Topic(), "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// PublishProgress publishes a progress event.
func (b *Bus) PublishProgress(ctx context.Context, p progress.Event) int {
	return b.Publish(ctx, NewEvent[any](&Context{WorkflowID: p.WorkflowID, Topic: TopicProgress}, p))
}

// Notify publishes an approval event; it implements approval.Notifier.
func (b *Bus) Notify(ctx context.Context, e *approval.Event) error {
	if e == nil || e.Request == nil {
		return errors.New("event: empty approval event")
	}
	b.Publish(ctx, NewEvent[any](&Context{WorkflowID: e.Request.WorkflowID, Topic: e.Topic}, e.Request))
	return nil
}

// Stats reports totals since the bus was created.
func (b *Bus) Stats() (published, dropped int64) {
	return b.published.Load(), b.dropped.Load()
}

// Subscribers returns the number of subscriptions for workflowID.
func (b *Bus) Subscribers(workflowID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[workflowID])
}

var _ approval.Notifier = (*Bus)(nil)
