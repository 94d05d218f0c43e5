package event

import (
	"context"
	"sync"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
)

// Subscription is a bounded stream of events.
type Subscription struct {
	workflowID string
	queue      *memory.Queue[Event[any]]
	bus        *Bus
	done       chan struct{}
	once       sync.Once
}

// WorkflowID returns the subscribed workflow id or AllWorkflows.
func (s *Subscription) WorkflowID() string { return s.workflowID }

// Next waits for the next event.
func (s *Subscription) Next(ctx context.Context) (*Event[any], error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	msg, err := s.queue.Consume(ctx)
	if err != nil {
		select {
		case <-s.done:
			return nil, ErrClosed
		default:
			return nil, err
		}
	}
	_ = msg.Ack()
	return msg.T(), nil
}

// Pending returns the number of buffered events.
func (s *Subscription) Pending() int { return s.queue.Size() }

// Close detaches the subscription from the bus.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s)
		close(s.done)
	})
}
