package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/domain/task"
)

// SearchHandler executes queued search runs.
type SearchHandler struct {
	search *Search
	logger *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(search *Search, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{search: search, logger: logger}
}

// Execute runs a search from a task payload carrying "seed" (comma-separated
// string or string list) and optionally "dataset".
func (h *SearchHandler) Execute(ctx context.Context, payload map[string]any) error {
	seed, err := payloadSeed(payload)
	if err != nil {
		return err
	}
	dataset, _ := payload[task.PayloadKeyDataset].(string)

	result, err := h.search.Run(ctx, seed, dataset)
	if err != nil {
		return fmt.Errorf("run search: %w", err)
	}

	h.logger.InfoContext(ctx, "queued search completed",
		slog.String("run_id", result.RunID().String()),
		slog.Int("idioms", len(result.Idioms())),
	)
	return nil
}

// ManifestLoader loads corpus programs from a dataset manifest.
type ManifestLoader interface {
	Load(ctx context.Context, path string) ([]corpus.Program, error)
}

// IngestHandler loads a dataset manifest into the corpus store.
type IngestHandler struct {
	store  corpus.Store
	loader ManifestLoader
	logger *slog.Logger
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(store corpus.Store, loader ManifestLoader, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{store: store, loader: loader, logger: logger}
}

// Execute ingests the manifest named by the "manifest" payload key.
func (h *IngestHandler) Execute(ctx context.Context, payload map[string]any) error {
	path, _ := payload[task.PayloadKeyManifest].(string)
	if path == "" {
		return fmt.Errorf("ingest: payload missing %q", task.PayloadKeyManifest)
	}

	programs, err := h.loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", path, err)
	}

	for _, p := range programs {
		if err := h.store.Save(ctx, p); err != nil {
			return fmt.Errorf("save program %s: %w", p.ID(), err)
		}
	}

	h.logger.InfoContext(ctx, "dataset ingested",
		slog.String("manifest", path),
		slog.Int("programs", len(programs)),
	)
	return nil
}

// CacheWarmer pre-embeds corpus programs so the first search run after an
// ingest does not pay the full embedding cost.
type CacheWarmer interface {
	Warm(ctx context.Context, dataset string) error
}

// WarmCacheHandler warms the oracle after a dataset ingest.
type WarmCacheHandler struct {
	warmer CacheWarmer
	logger *slog.Logger
}

// NewWarmCacheHandler creates a WarmCacheHandler.
func NewWarmCacheHandler(warmer CacheWarmer, logger *slog.Logger) *WarmCacheHandler {
	return &WarmCacheHandler{warmer: warmer, logger: logger}
}

// Execute warms the cache for the dataset named in the payload, or the
// whole corpus when none is given.
func (h *WarmCacheHandler) Execute(ctx context.Context, payload map[string]any) error {
	dataset, _ := payload[task.PayloadKeyDataset].(string)
	if err := h.warmer.Warm(ctx, dataset); err != nil {
		return fmt.Errorf("warm oracle cache: %w", err)
	}
	h.logger.InfoContext(ctx, "oracle cache warmed", slog.String("dataset", dataset))
	return nil
}

// FlushCacheHandler discards all cached oracle scores.
type FlushCacheHandler struct {
	cache  oracle.Cache
	logger *slog.Logger
}

// NewFlushCacheHandler creates a FlushCacheHandler.
func NewFlushCacheHandler(cache oracle.Cache, logger *slog.Logger) *FlushCacheHandler {
	return &FlushCacheHandler{cache: cache, logger: logger}
}

// Execute flushes the oracle cache.
func (h *FlushCacheHandler) Execute(ctx context.Context, _ map[string]any) error {
	if h.cache == nil {
		return nil
	}
	if err := h.cache.Flush(ctx); err != nil {
		return fmt.Errorf("flush oracle cache: %w", err)
	}
	h.logger.InfoContext(ctx, "oracle cache flushed")
	return nil
}

// payloadSeed extracts the seed API set from a task payload.
func payloadSeed(payload map[string]any) ([]string, error) {
	val, ok := payload[task.PayloadKeySeed]
	if !ok {
		return nil, ErrInvalidSeed
	}
	switch v := val.(type) {
	case string:
		var seed []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				seed = append(seed, trimmed)
			}
		}
		if len(seed) == 0 {
			return nil, ErrInvalidSeed
		}
		return seed, nil
	case []string:
		if len(v) == 0 {
			return nil, ErrInvalidSeed
		}
		return v, nil
	case []any:
		seed := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				seed = append(seed, s)
			}
		}
		if len(seed) == 0 {
			return nil, ErrInvalidSeed
		}
		return seed, nil
	default:
		return nil, ErrInvalidSeed
	}
}
