package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging"
)

var errProcessed = errors.New("message already processed")

// Config controls buffering and redelivery.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is an item delivered by Queue.
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
	lastErr    error
}

func (m *Message[T]) T() *T { return &m.payload }

// ID returns the message id, stable across redeliveries.
func (m *Message[T]) ID() string { return m.id }

// Attempt returns how many times the message was redelivered.
func (m *Message[T]) Attempt() int { return m.retryCount }

// Err returns the error of the last Nack.
func (m *Message[T]) Err() error { return m.lastErr }

func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errProcessed
	}
	m.processed = true
	return nil
}

// Nack schedules a redelivery after RetryDelay while retries remain, then
// moves the message to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return errProcessed
	}
	m.processed = true
	m.lastErr = err
	next := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, retryCount: m.retryCount + 1, lastErr: err}
	if next.retryCount > m.queue.config.MaxRetries {
		m.queue.deadLetter(next)
		return nil
	}
	go func() {
		time.Sleep(m.queue.config.RetryDelay)
		if !m.queue.offer(next) {
			m.queue.deadLetter(next)
		}
	}()
	return nil
}

// Queue is a bounded in-memory messaging.Queue.
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	dlqMu    sync.Mutex
	dlq      []*Message[T]
}

// NewQueue creates a queue; a non-positive buffer falls back to the default.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

func (q *Queue[T]) newMessage(t *T) *Message[T] {
	return &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
}

func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.messages <- q.newMessage(t):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) TryPublish(t *T) error {
	if !q.offer(q.newMessage(t)) {
		return messaging.ErrQueueFull
	}
	return nil
}

func (q *Queue[T]) offer(msg *Message[T]) bool {
	select {
	case q.messages <- msg:
		return true
	default:
		return false
	}
}

func (q *Queue[T]) deadLetter(msg *Message[T]) {
	if !q.config.DeadLetter {
		return
	}
	q.dlqMu.Lock()
	q.dlq = append(q.dlq, msg)
	q.dlqMu.Unlock()
}

func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of buffered messages.
func (q *Queue[T]) Size() int { return len(q.messages) }

// Capacity returns the buffer size.
func (q *Queue[T]) Capacity() int { return cap(q.messages) }

// DLQSize returns the number of dead-lettered messages.
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns payloads that exhausted their retries.
func (q *Queue[T]) DeadLetters() []T {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	ret := make([]T, len(q.dlq))
	for i, msg := range q.dlq {
		ret[i] = msg.payload
	}
	return ret
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
