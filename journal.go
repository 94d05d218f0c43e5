package macae

import (
	"context"
	"fmt"

	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal/fs"
	"github.com/deepammi/Multi-Agent-Custom-Automation-Engine-Solution-Accelerator-sub005/service/journal/postgres"
)

// OpenJournal creates the sink selected by config. The returned closer
// releases its resources; it is never nil.
func OpenJournal(ctx context.Context, config JournalConfig) (journal.Sink, func(), error) {
	switch config.Kind {
	case JournalNone:
		return nil, func() {}, nil
	case JournalFS:
		sink, err := fs.New(ctx, config.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open fs journal: %w", err)
		}
		return sink, func() {}, nil
	case JournalPostgres:
		pool, err := postgres.Connect(ctx, config.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres journal: %w", err)
		}
		sink := postgres.New(pool)
		if err := sink.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to migrate postgres journal: %w", err)
		}
		return sink, pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown journal kind %q", config.Kind)
}
