package event

import (
	"go.uber.org/zap"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/messaging/memory"
)

type Option func(b *Bus)

// WithQueueConfig sets the per-subscription queue configuration. Only
// QueueBuffer matters: delivery never retries.
func WithQueueConfig(config memory.Config) Option {
	return func(b *Bus) { b.queueConfig = config }
}

// WithBuffer sets the per-subscription buffer size.
func WithBuffer(size int) Option {
	return func(b *Bus) { b.queueConfig.QueueBuffer = size }
}

// WithLogger sets the logger used for drop diagnostics.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}
