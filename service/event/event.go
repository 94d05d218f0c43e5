package event

import "time"

// Topics published on the bus.
const (
	TopicProgress = "progress"
)

// Context identifies the workflow and topic an event belongs to.
type Context struct {
	WorkflowID string `json:"workflow_id"`
	Topic      string `json:"topic"`
}

// Event is the envelope delivered to subscribers.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"created_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Data:      data,
	}
}

// WorkflowID returns the workflow the event belongs to.
func (e *Event[T]) WorkflowID() string {
	if e == nil || e.Context == nil {
		return ""
	}
	return e.Context.WorkflowID
}

// Topic returns the event topic.
func (e *Event[T]) Topic() string {
	if e == nil || e.Context == nil {
		return ""
	}
	return e.Context.Topic
}
