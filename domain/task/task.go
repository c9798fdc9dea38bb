// Package task holds the queue and progress-reporting domain for
// background mining work: queued searches, dataset ingestion, and oracle
// cache maintenance.
package task

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Priority orders the queue. Levels are spaced far apart so per-batch
// offsets never promote one level past the next.
type Priority int

const (
	PriorityBackground    Priority = 1000
	PriorityNormal        Priority = 2000
	PriorityUserInitiated Priority = 5000
	PriorityCritical      Priority = 10000
)

// Task is a queued unit of work. A task has no state of its own: a row in
// the queue is by definition pending, and completion removes it.
type Task struct {
	id        int64
	dedupKey  string
	operation Operation
	priority  int
	payload   map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// NewTask builds a Task for enqueueing. The dedup key is derived from the
// operation and payload so re-submitting the same work collapses to one row.
func NewTask(operation Operation, priority int, payload map[string]any) Task {
	p := clonePayload(payload)
	return Task{
		dedupKey:  dedupKeyFor(operation, p),
		operation: operation,
		priority:  priority,
		payload:   p,
	}
}

// NewTaskWithID rebuilds a Task from its stored row.
func NewTaskWithID(
	id int64,
	dedupKey string,
	operation Operation,
	priority int,
	payload map[string]any,
	createdAt, updatedAt time.Time,
) Task {
	return Task{
		id:        id,
		dedupKey:  dedupKey,
		operation: operation,
		priority:  priority,
		payload:   clonePayload(payload),
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (t Task) ID() int64            { return t.id }
func (t Task) DedupKey() string     { return t.dedupKey }
func (t Task) Operation() Operation { return t.operation }
func (t Task) Priority() int        { return t.priority }

// Payload returns a copy of the task payload.
func (t Task) Payload() map[string]any { return clonePayload(t.payload) }

func (t Task) CreatedAt() time.Time { return t.createdAt }
func (t Task) UpdatedAt() time.Time { return t.updatedAt }

// WithID returns a copy carrying the assigned row ID.
func (t Task) WithID(id int64) Task {
	t.id = id
	return t
}

// WithTimestamps returns a copy carrying the stored timestamps.
func (t Task) WithTimestamps(createdAt, updatedAt time.Time) Task {
	t.createdAt = createdAt
	t.updatedAt = updatedAt
	return t
}

// PayloadJSON serializes the payload for storage.
func (t Task) PayloadJSON() ([]byte, error) {
	return json.Marshal(t.payload)
}

// dedupKeyFor prefers "{operation}:{run_id}" so every run dedupes on its
// own; payloads without a run ID fall back to an arbitrary payload value.
func dedupKeyFor(operation Operation, payload map[string]any) string {
	if runID, ok := payload[PayloadKeyRunID]; ok {
		return fmt.Sprintf("%s:%v", operation, runID)
	}
	for _, v := range payload {
		return fmt.Sprintf("%s:%v", operation, v)
	}
	return fmt.Sprintf("%s:%v", operation, nil)
}

func clonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	maps.Copy(out, payload)
	return out
}
