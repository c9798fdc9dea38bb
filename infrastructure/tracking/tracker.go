package tracking

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tart-proj/codescholar/domain/task"
)

// Tracker carries the progress of one operation and fans every state
// change out to its subscribed reporters.
type Tracker struct {
	status      task.Status
	subscribers []Reporter
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewTracker wraps an existing Status.
func NewTracker(status task.Status, logger *slog.Logger) *Tracker {
	return &Tracker{status: status, logger: logger}
}

// TrackerForOperation starts a fresh root tracker for an operation on the
// given trackable, a search run or a dataset.
func TrackerForOperation(
	operation task.Operation,
	logger *slog.Logger,
	trackableType task.TrackableType,
	trackableID int64,
) *Tracker {
	return NewTracker(task.NewStatus(operation, nil, trackableType, trackableID), logger)
}

// Status returns the current Status snapshot.
func (t *Tracker) Status() task.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe registers a reporter for future state changes.
func (t *Tracker) Subscribe(reporter Reporter) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, reporter)
}

// SetTotal records how many steps the operation expects.
func (t *Tracker) SetTotal(ctx context.Context, total int) {
	t.apply(ctx, func(s task.Status) task.Status { return s.SetTotal(total) })
}

// SetCurrent advances progress to current with an optional message.
func (t *Tracker) SetCurrent(ctx context.Context, current int, message string) {
	t.apply(ctx, func(s task.Status) task.Status { return s.SetCurrent(current, message) })
}

// Skip marks the operation skipped.
func (t *Tracker) Skip(ctx context.Context, reason string) {
	t.apply(ctx, func(s task.Status) task.Status { return s.Skip(reason) })
}

// Fail marks the operation failed.
func (t *Tracker) Fail(ctx context.Context, errMsg string) {
	t.apply(ctx, func(s task.Status) task.Status { return s.Fail(errMsg) })
}

// Complete marks the operation done.
func (t *Tracker) Complete(ctx context.Context) {
	t.apply(ctx, func(s task.Status) task.Status { return s.Complete() })
}

// Child starts a tracker for a sub-operation. It shares the parent's
// subscribers and trackable, and its status is parented for display.
func (t *Tracker) Child(operation task.Operation) *Tracker {
	t.mu.RLock()
	parent := t.status
	subscribers := append([]Reporter(nil), t.subscribers...)
	t.mu.RUnlock()

	return &Tracker{
		status:      task.NewStatus(operation, &parent, parent.TrackableType(), parent.TrackableID()),
		subscribers: subscribers,
		logger:      t.logger,
	}
}

// Notify pushes the current status to every subscriber without changing
// it. Useful right after setup, so reporters see the operation exists.
func (t *Tracker) Notify(ctx context.Context) {
	t.mu.RLock()
	status := t.status
	t.mu.RUnlock()
	t.broadcast(ctx, status)
}

func (t *Tracker) apply(ctx context.Context, mutate func(task.Status) task.Status) {
	t.mu.Lock()
	t.status = mutate(t.status)
	status := t.status
	t.mu.Unlock()
	t.broadcast(ctx, status)
}

// broadcast delivers to every subscriber; one failing reporter never
// blocks the rest.
func (t *Tracker) broadcast(ctx context.Context, status task.Status) {
	t.mu.RLock()
	subscribers := append([]Reporter(nil), t.subscribers...)
	t.mu.RUnlock()

	for _, subscriber := range subscribers {
		if err := subscriber.OnChange(ctx, status); err != nil {
			t.logger.Error("reporter rejected status update",
				slog.String("error", err.Error()),
				slog.String("operation", status.Operation().String()),
			)
		}
	}
}
