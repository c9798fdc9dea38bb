package codescholar

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/domain/task"
	"github.com/tart-proj/codescholar/infrastructure/tracking"
)

// registerHandlers registers all task handlers with the worker registry.
func (c *Client) registerHandlers() {
	c.registry.Register(task.OperationRunSearch, service.NewSearchHandler(c.Search, c.logger))
	c.registry.Register(task.OperationIngestDataset, service.NewIngestHandler(c.programs, c.loader, c.logger))
	c.registry.Register(task.OperationFlushCache, service.NewFlushCacheHandler(c.cache, c.logger))

	// Warm-up only applies to the embedding estimator; a custom scorer
	// has no host vectors to pre-compute.
	if c.warmer != nil {
		c.registry.Register(task.OperationWarmCache, service.NewWarmCacheHandler(c.warmer, c.logger))
	}

	c.logger.Info("registered task handlers", slog.Int("count", len(c.registry.Operations())))
}

// validateHandlers checks that every prescribed operation has a registered
// handler, so no queued workflow can stall on an unknown operation.
func (c *Client) validateHandlers() error {
	var missing []string
	for _, op := range c.prescribedOps.All() {
		if !c.registry.HasHandler(op) {
			missing = append(missing, op.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing handlers for operations: [%s]", strings.Join(missing, ", "))
}

// trackerFactory creates progress trackers wired to the configured
// reporters. Implements service.WorkerTrackerFactory.
type trackerFactory struct {
	reporters []tracking.Reporter
	logger    *slog.Logger
}

// ForOperation creates a tracker for the given operation.
func (f *trackerFactory) ForOperation(operation task.Operation, trackableType task.TrackableType, trackableID int64) service.WorkerTracker {
	tracker := tracking.TrackerForOperation(operation, f.logger, trackableType, trackableID)
	for _, reporter := range f.reporters {
		tracker.Subscribe(reporter)
	}
	return tracker
}
