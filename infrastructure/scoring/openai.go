package scoring

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/config"
)

// DefaultBatchSize is the number of texts sent per embedding API call.
const DefaultBatchSize = 10

// errEmbeddingCountMismatch indicates the API returned fewer vectors than
// requested. Retryable: transient upstream issues can produce partial
// responses behind a 200 status.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// Embedder maps texts to embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]oracle.Vector, error)
}

// OpenAIEmbedder embeds graph renderings through an OpenAI-compatible
// embeddings endpoint. Failures that survive the retry budget surface as
// oracle.ErrUnavailable so the search loop treats them as fatal.
type OpenAIEmbedder struct {
	client        *openai.Client
	model         string
	batchSize     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewOpenAIEmbedder creates an embedder from an endpoint configuration.
func NewOpenAIEmbedder(endpoint config.Endpoint) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	if endpoint.Timeout() > 0 {
		cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	}

	model := endpoint.Model()
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &OpenAIEmbedder{
		client:        openai.NewClientWithConfig(cfg),
		model:         model,
		batchSize:     DefaultBatchSize,
		maxRetries:    endpoint.MaxRetries(),
		initialDelay:  endpoint.InitialDelay(),
		backoffFactor: endpoint.BackoffFactor(),
	}
}

// Embed returns one vector per input text, batching requests.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]oracle.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([]oracle.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([]oracle.Vector, error) {
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := e.withRetry(ctx, func() error {
		var callErr error
		resp, callErr = e.client.CreateEmbeddings(ctx, req)
		if callErr != nil {
			return callErr
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embed: %s", oracle.ErrUnavailable, err)
	}

	vectors := make([]oracle.Vector, len(resp.Data))
	for i, data := range resp.Data {
		v := make(oracle.Vector, len(data.Embedding))
		for j, x := range data.Embedding {
			v[j] = float64(x)
		}
		vectors[i] = v
	}
	return vectors, nil
}

// withRetry executes fn with exponential backoff.
func (e *OpenAIEmbedder) withRetry(ctx context.Context, fn func() error) error {
	delay := e.initialDelay
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * e.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	return errors.As(err, &reqErr)
}

var _ Embedder = (*OpenAIEmbedder)(nil)
