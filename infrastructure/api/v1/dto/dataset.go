package dto

// IngestRequest is the body of POST /api/v1/datasets.
type IngestRequest struct {
	// Manifest is the path to a dataset manifest on the server.
	Manifest string `json:"manifest"`

	// Async queues the ingest for background execution.
	Async bool `json:"async,omitempty"`
}

// IngestResponse reports a completed synchronous ingest.
type IngestResponse struct {
	Programs int `json:"programs"`
}
