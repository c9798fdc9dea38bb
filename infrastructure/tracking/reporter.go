// Package tracking provides progress tracking for queued operations:
// trackers that wrap a task status and reporters that deliver status
// changes to logs and the database.
package tracking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tart-proj/codescholar/domain/task"
)

// Reporter receives task status changes.
type Reporter interface {
	OnChange(ctx context.Context, status task.Status) error
}

// DBReporter implements Reporter by persisting status changes.
type DBReporter struct {
	store  task.StatusStore
	logger *slog.Logger
}

// NewDBReporter creates a DBReporter backed by the given status store.
func NewDBReporter(store task.StatusStore, logger *slog.Logger) *DBReporter {
	return &DBReporter{
		store:  store,
		logger: logger,
	}
}

// OnChange writes the status to the store.
func (r *DBReporter) OnChange(ctx context.Context, status task.Status) error {
	if _, err := r.store.Save(ctx, status); err != nil {
		return fmt.Errorf("save status %s: %w", status.ID(), err)
	}
	return nil
}

var _ Reporter = (*DBReporter)(nil)
