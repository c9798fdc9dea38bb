package task

import (
	"strconv"
	"strings"
	"time"
)

// ReportingState is the lifecycle of a reported operation.
type ReportingState string

const (
	ReportingStateStarted    ReportingState = "started"
	ReportingStateInProgress ReportingState = "in_progress"
	ReportingStateCompleted  ReportingState = "completed"
	ReportingStateFailed     ReportingState = "failed"
	ReportingStateSkipped    ReportingState = "skipped"
)

// IsTerminal reports whether the state can no longer change.
func (s ReportingState) IsTerminal() bool {
	switch s {
	case ReportingStateCompleted, ReportingStateFailed, ReportingStateSkipped:
		return true
	}
	return false
}

// TrackableType names the entity an operation reports progress against.
type TrackableType string

const (
	TrackableTypeRun     TrackableType = "codescholar.run"
	TrackableTypeDataset TrackableType = "codescholar.dataset"
)

// Status is a progress snapshot for one operation on one trackable. All
// mutating methods return an updated copy; the value itself never changes.
type Status struct {
	id            string
	state         ReportingState
	operation     Operation
	message       string
	createdAt     time.Time
	updatedAt     time.Time
	total         int
	current       int
	errorMessage  string
	parent        *Status
	trackableID   int64
	trackableType TrackableType
}

// NewStatus starts a Status in the started state. parent may be nil; a
// non-nil parent marks this as a sub-operation for display.
func NewStatus(
	operation Operation,
	parent *Status,
	trackableType TrackableType,
	trackableID int64,
) Status {
	now := time.Now().UTC()
	return Status{
		id:            statusID(operation, trackableType, trackableID),
		operation:     operation,
		parent:        parent,
		trackableType: trackableType,
		trackableID:   trackableID,
		state:         ReportingStateStarted,
		createdAt:     now,
		updatedAt:     now,
	}
}

// NewStatusWithDefaults starts a Status with no trackable.
func NewStatusWithDefaults(operation Operation) Status {
	return NewStatus(operation, nil, "", 0)
}

// NewStatusFull rebuilds a Status from its stored row.
func NewStatusFull(
	id string,
	state ReportingState,
	operation Operation,
	message string,
	createdAt, updatedAt time.Time,
	total, current int,
	errorMessage string,
	parent *Status,
	trackableID int64,
	trackableType TrackableType,
) Status {
	return Status{
		id:            id,
		state:         state,
		operation:     operation,
		message:       message,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		total:         total,
		current:       current,
		errorMessage:  errorMessage,
		parent:        parent,
		trackableID:   trackableID,
		trackableType: trackableType,
	}
}

func (s Status) ID() string                   { return s.id }
func (s Status) State() ReportingState        { return s.state }
func (s Status) Operation() Operation         { return s.operation }
func (s Status) Message() string              { return s.message }
func (s Status) CreatedAt() time.Time         { return s.createdAt }
func (s Status) UpdatedAt() time.Time         { return s.updatedAt }
func (s Status) Total() int                   { return s.total }
func (s Status) Current() int                 { return s.current }
func (s Status) Error() string                { return s.errorMessage }
func (s Status) Parent() *Status              { return s.parent }
func (s Status) TrackableID() int64           { return s.trackableID }
func (s Status) TrackableType() TrackableType { return s.trackableType }

// CompletionPercent reports progress clamped to [0, 100]. An unknown
// total reads as zero percent.
func (s Status) CompletionPercent() float64 {
	if s.total == 0 {
		return 0
	}
	percent := float64(s.current) / float64(s.total) * 100
	return min(max(percent, 0), 100)
}

// Skip ends the operation without doing its work.
func (s Status) Skip(message string) Status {
	s.state = ReportingStateSkipped
	s.message = message
	return s.touch()
}

// Fail ends the operation with an error.
func (s Status) Fail(errorMsg string) Status {
	s.state = ReportingStateFailed
	s.errorMessage = errorMsg
	return s.touch()
}

// SetTotal records the expected step count.
func (s Status) SetTotal(total int) Status {
	s.total = total
	return s.touch()
}

// SetCurrent advances progress; an empty message keeps the previous one.
func (s Status) SetCurrent(current int, message string) Status {
	s.state = ReportingStateInProgress
	s.current = current
	if message != "" {
		s.message = message
	}
	return s.touch()
}

// Complete ends the operation successfully, forcing progress to full.
// Already-terminal statuses are returned unchanged.
func (s Status) Complete() Status {
	if s.state.IsTerminal() {
		return s
	}
	s.state = ReportingStateCompleted
	s.current = s.total
	return s.touch()
}

func (s Status) touch() Status {
	s.updatedAt = time.Now().UTC()
	return s
}

// statusID joins trackable type, trackable ID, and operation with dashes,
// dropping the parts that are unset.
func statusID(operation Operation, trackableType TrackableType, trackableID int64) string {
	var parts []string
	if trackableType != "" {
		parts = append(parts, string(trackableType))
	}
	if trackableID != 0 {
		parts = append(parts, strconv.FormatInt(trackableID, 10))
	}
	parts = append(parts, string(operation))
	return strings.Join(parts, "-")
}
