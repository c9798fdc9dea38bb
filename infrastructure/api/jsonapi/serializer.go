package jsonapi

import (
	"strconv"
	"time"

	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/task"
)

// IdiomAttributes represents idiom attributes in JSON:API format.
type IdiomAttributes struct {
	RunID     string    `json:"run_id"`
	Dataset   string    `json:"dataset"`
	Rank      int       `json:"rank"`
	Size      int       `json:"size"`
	Support   int       `json:"support"`
	APIs      []string  `json:"apis"`
	Signature string    `json:"signature"`
	Source    string    `json:"source,omitempty"`
	Witnesses []string  `json:"witnesses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IdiomResource converts an idiom to a JSON:API resource.
func IdiomResource(i idiom.Idiom) Resource {
	return Resource{
		Type: "idiom",
		ID:   i.ID().String(),
		Attributes: IdiomAttributes{
			RunID:     i.RunID().String(),
			Dataset:   i.Dataset(),
			Rank:      i.Rank(),
			Size:      i.Size(),
			Support:   i.Support(),
			APIs:      i.APIs(),
			Signature: i.Signature(),
			Source:    i.Source(),
			Witnesses: i.Witnesses(),
			CreatedAt: i.CreatedAt(),
		},
	}
}

// IdiomResources converts a slice of idioms to JSON:API resources.
func IdiomResources(idioms []idiom.Idiom) []Resource {
	resources := make([]Resource, len(idioms))
	for i, idm := range idioms {
		resources[i] = IdiomResource(idm)
	}
	return resources
}

// TaskAttributes represents queued task attributes in JSON:API format.
type TaskAttributes struct {
	Operation string         `json:"operation"`
	Priority  int            `json:"priority"`
	DedupKey  string         `json:"dedup_key,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TaskResource converts a task to a JSON:API resource.
func TaskResource(t task.Task) Resource {
	return Resource{
		Type: "task",
		ID:   strconv.FormatInt(t.ID(), 10),
		Attributes: TaskAttributes{
			Operation: t.Operation().String(),
			Priority:  t.Priority(),
			DedupKey:  t.DedupKey(),
			Payload:   t.Payload(),
			CreatedAt: t.CreatedAt(),
			UpdatedAt: t.UpdatedAt(),
		},
	}
}

// TaskResources converts a slice of tasks to JSON:API resources.
func TaskResources(tasks []task.Task) []Resource {
	resources := make([]Resource, len(tasks))
	for i, t := range tasks {
		resources[i] = TaskResource(t)
	}
	return resources
}

// StatusAttributes represents progress status attributes in JSON:API format.
type StatusAttributes struct {
	State     string    `json:"state"`
	Operation string    `json:"operation"`
	Message   string    `json:"message,omitempty"`
	Total     int       `json:"total"`
	Current   int       `json:"current"`
	Percent   float64   `json:"percent"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusResource converts a progress status to a JSON:API resource.
func StatusResource(s task.Status) Resource {
	return Resource{
		Type: "status",
		ID:   s.ID(),
		Attributes: StatusAttributes{
			State:     string(s.State()),
			Operation: s.Operation().String(),
			Message:   s.Message(),
			Total:     s.Total(),
			Current:   s.Current(),
			Percent:   s.CompletionPercent(),
			Error:     s.Error(),
			CreatedAt: s.CreatedAt(),
			UpdatedAt: s.UpdatedAt(),
		},
	}
}
