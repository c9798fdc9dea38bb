// Package dto defines request and response bodies for the v1 HTTP API.
package dto

import "time"

// SearchRequest is the body of POST /api/v1/searches.
type SearchRequest struct {
	// Seed is the set of API names idioms are grown around.
	Seed []string `json:"seed"`

	// Dataset scopes the search to one corpus dataset. Empty means the
	// whole corpus.
	Dataset string `json:"dataset,omitempty"`

	// Async queues the run for background execution instead of waiting
	// for the result.
	Async bool `json:"async,omitempty"`
}

// SearchResponse is the body returned by a synchronous search run.
type SearchResponse struct {
	RunID     string            `json:"run_id"`
	Dataset   string            `json:"dataset,omitempty"`
	Seed      []string          `json:"seed"`
	Converged bool              `json:"converged"`
	FinalSize int               `json:"final_size"`
	History   []MeasurementData `json:"history,omitempty"`
	Idioms    []IdiomData       `json:"idioms"`
}

// MeasurementData is one equilibrium measurement of a size level.
type MeasurementData struct {
	Size        int     `json:"size"`
	Reusability float64 `json:"reusability"`
	Diversity   float64 `json:"diversity"`
}

// IdiomData is one mined idiom in a search response.
type IdiomData struct {
	ID        string    `json:"id"`
	Rank      int       `json:"rank"`
	Size      int       `json:"size"`
	Support   int       `json:"support"`
	APIs      []string  `json:"apis"`
	Signature string    `json:"signature"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// QueuedResponse acknowledges an asynchronous request.
type QueuedResponse struct {
	Status string `json:"status"`
}
