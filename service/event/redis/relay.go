// Package redis relays bus events to Redis pub/sub so that observers outside
// the process can follow a run.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/event"
)

// DefaultPrefix is used when no channel prefix is configured.
const DefaultPrefix = "macae:workflow"

// Publisher is the subset of the Redis client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// Relay forwards events on a best-effort basis; failures are logged and the
// event is not retried.
type Relay struct {
	client Publisher
	prefix string
	logger *zap.SugaredLogger
}

// New creates a relay.
func New(client Publisher, prefix string, logger *zap.SugaredLogger) *Relay {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Relay{client: client, prefix: prefix, logger: logger}
}

// NewClient connects a Redis client and verifies it with PING.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// Channel returns the channel a workflow's events are published to.
func Channel(prefix, workflowID string) string {
	return prefix + ":" + workflowID
}

// Forward publishes e and returns the number of Redis subscribers reached.
func (r *Relay) Forward(ctx context.Context, e *event.Event[any]) (int64, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}
	return r.client.Publish(ctx, Channel(r.prefix, e.WorkflowID()), data).Result()
}

// Start relays every event of bus until ctx is done or stop() is called.
func (r *Relay) Start(ctx context.Context, bus *event.Bus) (stop func()) {
	return event.Listen(ctx, bus.Subscribe(event.AllWorkflows), func(e *event.Event[any]) {
		if _, err := r.Forward(ctx, e); err != nil {
			r.logger.Warnw("redis relay failed", "workflow_id", e.WorkflowID(), "topic", e.Topic(), "error", err)
		}
	})
}
