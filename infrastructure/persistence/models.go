package persistence

import (
	"encoding/json"
	"time"
)

// ProgramModel represents one corpus program in the database. The dependence
// graph is stored as JSON; the api_list column mirrors the graph's API set
// so host candidates can be narrowed without decoding every graph.
type ProgramModel struct {
	ID        string          `gorm:"column:id;primaryKey;size:255"`
	Dataset   string          `gorm:"column:dataset;index;size:255"`
	Source    string          `gorm:"column:source;type:text"`
	Graph     json.RawMessage `gorm:"column:graph;type:json"`
	APIList   json.RawMessage `gorm:"column:api_list;type:json"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (ProgramModel) TableName() string {
	return "programs"
}

// IdiomModel represents an emitted idiom in the database.
type IdiomModel struct {
	ID        string          `gorm:"column:id;primaryKey;size:36"`
	RunID     string          `gorm:"column:run_id;index;size:36"`
	Dataset   string          `gorm:"column:dataset;index;size:255"`
	APIList   json.RawMessage `gorm:"column:api_list;type:json"`
	Size      int             `gorm:"column:size;index"`
	Support   int             `gorm:"column:support;index"`
	Rank      int             `gorm:"column:rank"`
	Signature string          `gorm:"column:signature;index;size:64"`
	Graph     json.RawMessage `gorm:"column:graph;type:json"`
	Witnesses json.RawMessage `gorm:"column:witnesses;type:json"`
	Source    string          `gorm:"column:source;type:text"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

// TableName returns the table name.
func (IdiomModel) TableName() string {
	return "idioms"
}

// ScoreModel caches oracle verdicts by canonical signature so repeated runs
// over the same corpus never re-embed a candidate.
type ScoreModel struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Signature string    `gorm:"column:signature;uniqueIndex;size:64;not null"`
	Vector    []float64 `gorm:"column:vector;type:json;serializer:json"`
	Support   int       `gorm:"column:support"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (ScoreModel) TableName() string {
	return "scores"
}

// TaskModel represents a queued task in the database.
type TaskModel struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	DedupKey  string          `gorm:"column:dedup_key;type:varchar(255);uniqueIndex:idx_tasks_dedup_key;not null"`
	Type      string          `gorm:"column:type;type:varchar(255);index;not null"`
	Payload   json.RawMessage `gorm:"column:payload;type:json"`
	Priority  int             `gorm:"column:priority;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name.
func (TaskModel) TableName() string {
	return "tasks"
}

// TaskStatusModel represents task status in the database.
type TaskStatusModel struct {
	ID            string    `gorm:"column:id;primaryKey;size:255"`
	State         string    `gorm:"column:state;size:50;not null"`
	Operation     string    `gorm:"column:operation;size:255;not null"`
	Message       string    `gorm:"column:message;type:text"`
	Total         int       `gorm:"column:total"`
	Current       int       `gorm:"column:current"`
	Error         string    `gorm:"column:error;type:text"`
	ParentID      *string   `gorm:"column:parent_id;size:255;index"`
	TrackableID   *int64    `gorm:"column:trackable_id;index"`
	TrackableType *string   `gorm:"column:trackable_type;size:100;index"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (TaskStatusModel) TableName() string {
	return "task_status"
}
