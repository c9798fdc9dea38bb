package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/domain/repository"
)

// Estimator scores partial idioms by order embedding: a candidate counts as
// contained in a host when its vector sits below the host vector up to the
// configured margin. Host vectors are embedded once and memoized for the
// lifetime of the estimator.
type Estimator struct {
	embedder Embedder
	store    corpus.Store
	margin   float64
	logger   *slog.Logger
	options  []repository.Option

	mu       sync.RWMutex
	hostVecs map[string]oracle.Vector
}

// EstimatorOption is a functional option for Estimator.
type EstimatorOption func(*Estimator)

// WithHostOptions scopes host lookup, e.g. to a single dataset.
func WithHostOptions(options ...repository.Option) EstimatorOption {
	return func(e *Estimator) { e.options = options }
}

// NewEstimator creates an Estimator over the given corpus store.
func NewEstimator(embedder Embedder, store corpus.Store, margin float64, logger *slog.Logger, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		embedder: embedder,
		store:    store,
		margin:   margin,
		logger:   logger,
		hostVecs: make(map[string]oracle.Vector),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score embeds the candidate and counts hosts it order-embeds into. The
// host pool is narrowed to programs containing every candidate API, which
// is a necessary condition for containment.
func (e *Estimator) Score(ctx context.Context, idiom *graph.Program, anchor graph.NodeID) (oracle.Score, error) {
	hosts, err := e.store.FindHosts(ctx, idiom.APIs(), e.options...)
	if err != nil {
		return oracle.Score{}, fmt.Errorf("find hosts: %w", err)
	}

	vec, err := e.embed(ctx, Encode(idiom, anchor))
	if err != nil {
		return oracle.Score{}, err
	}

	support := 0
	for _, h := range hosts {
		hostVec, err := e.hostVector(ctx, h)
		if err != nil {
			return oracle.Score{}, err
		}
		if oracle.OrderPenalty(vec, hostVec) <= e.margin {
			support++
		}
	}

	e.logger.Debug("estimated support",
		slog.Int("hosts", len(hosts)),
		slog.Int("support", support),
		slog.Int("size", idiom.Len()),
	)
	return oracle.NewScore(vec, support), nil
}

// hostVector returns the memoized embedding for a host program.
func (e *Estimator) hostVector(ctx context.Context, h corpus.Program) (oracle.Vector, error) {
	e.mu.RLock()
	vec, ok := e.hostVecs[h.ID()]
	e.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := e.embed(ctx, EncodeHost(h.Graph()))
	if err != nil {
		return nil, fmt.Errorf("embed host %s: %w", h.ID(), err)
	}

	e.mu.Lock()
	e.hostVecs[h.ID()] = vec
	e.mu.Unlock()
	return vec, nil
}

// Warm embeds every host program in the dataset (or the whole corpus when
// dataset is empty) in batched calls, filling the host vector memo ahead of
// search runs.
func (e *Estimator) Warm(ctx context.Context, dataset string) error {
	options := e.options
	if dataset != "" {
		options = append(options[:len(options):len(options)], repository.WithDataset(dataset))
	}
	hosts, err := e.store.FindHosts(ctx, nil, options...)
	if err != nil {
		return fmt.Errorf("find hosts: %w", err)
	}

	e.mu.RLock()
	var cold []corpus.Program
	for _, h := range hosts {
		if _, ok := e.hostVecs[h.ID()]; !ok {
			cold = append(cold, h)
		}
	}
	e.mu.RUnlock()
	if len(cold) == 0 {
		return nil
	}

	texts := make([]string, len(cold))
	for i, h := range cold {
		texts[i] = EncodeHost(h.Graph())
	}
	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed hosts: %w", err)
	}
	if len(vectors) != len(cold) {
		return fmt.Errorf("%w: expected %d vectors, got %d", oracle.ErrUnavailable, len(cold), len(vectors))
	}

	e.mu.Lock()
	for i, h := range cold {
		e.hostVecs[h.ID()] = vectors[i]
	}
	e.mu.Unlock()

	e.logger.Info("oracle warmed",
		slog.String("dataset", dataset),
		slog.Int("hosts", len(cold)),
	)
	return nil
}

func (e *Estimator) embed(ctx context.Context, text string) (oracle.Vector, error) {
	vectors, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", oracle.ErrUnavailable, len(vectors))
	}
	return vectors[0], nil
}

var _ oracle.Scorer = (*Estimator)(nil)
