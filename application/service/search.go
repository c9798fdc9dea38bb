// Package service provides application layer services that orchestrate
// domain operations.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/internal/config"
	"github.com/tart-proj/codescholar/internal/log"
)

// Result is the outcome of one search run.
type Result struct {
	runID     uuid.UUID
	dataset   string
	seed      []string
	idioms    []idiom.Idiom
	history   []Measurement
	finalSize int
	converged bool
}

// RunID returns the run identifier.
func (r Result) RunID() uuid.UUID { return r.runID }

// Dataset returns the searched dataset.
func (r Result) Dataset() string { return r.dataset }

// Seed returns the seed API set.
func (r Result) Seed() []string {
	out := make([]string, len(r.seed))
	copy(out, r.seed)
	return out
}

// Idioms returns the emitted idioms, largest size first, rank ascending
// within a size.
func (r Result) Idioms() []idiom.Idiom {
	out := make([]idiom.Idiom, len(r.idioms))
	copy(out, r.idioms)
	return out
}

// History returns the per-level equilibrium measurements.
func (r Result) History() []Measurement {
	out := make([]Measurement, len(r.history))
	copy(out, r.history)
	return out
}

// FinalSize returns the largest size level the search completed.
func (r Result) FinalSize() int { return r.finalSize }

// Converged reports whether the stop policy ended the search before the
// size cap.
func (r Result) Converged() bool { return r.converged }

// NewResult assembles a Result. Intended for alternate frontends and test
// doubles that stand in for Search.
func NewResult(runID uuid.UUID, dataset string, seed []string, idioms []idiom.Idiom, history []Measurement, finalSize int, converged bool) Result {
	return Result{
		runID:     runID,
		dataset:   dataset,
		seed:      seed,
		idioms:    idioms,
		history:   history,
		finalSize: finalSize,
		converged: converged,
	}
}

// Search grows idioms from a seed API set: build the size-1 beam from
// anchor nodes in matching hosts, grow one node per level, and emit ranked
// idioms when the stop policy or the size cap ends the run.
type Search struct {
	corpus   corpus.Store
	idioms   idiom.Store
	growth   *GrowthEngine
	selector *Selector
	policy   StopPolicy
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// NewSearch creates a Search. The idiom store may be nil, in which case
// results are returned without being persisted.
func NewSearch(
	store corpus.Store,
	idioms idiom.Store,
	growth *GrowthEngine,
	selector *Selector,
	policy StopPolicy,
	cfg config.SearchConfig,
	logger *slog.Logger,
) *Search {
	if policy == nil {
		policy = MaxSizePolicy{}
	}
	return &Search{
		corpus:   store,
		idioms:   idioms,
		growth:   growth,
		selector: selector,
		policy:   policy,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run executes a search for the seed API set over the dataset. A seed with
// no matching hosts yields an empty Result without error; an unreachable
// corpus is fatal.
func (s *Search) Run(ctx context.Context, seed []string, dataset string) (Result, error) {
	if len(seed) == 0 {
		return Result{}, ErrInvalidSeed
	}

	runID := uuid.New()
	ctx = log.WithRunID(ctx, runID.String())
	result := Result{runID: runID, dataset: dataset, seed: seed}

	var options []repository.Option
	if dataset != "" {
		options = append(options, repository.WithDataset(dataset))
	}
	hosts, err := s.corpus.FindHosts(ctx, seed, options...)
	if err != nil {
		return Result{}, fmt.Errorf("find hosts for seed %v: %w", seed, err)
	}
	if len(hosts) == 0 {
		s.logger.InfoContext(ctx, "no hosts match seed, empty result",
			slog.Any("seed", seed),
		)
		return result, nil
	}

	beam, err := s.seedBeam(hosts, seed)
	if err != nil {
		return Result{}, err
	}
	if beam.Len() == 0 {
		return result, nil
	}
	if err := s.growth.scoreBeam(ctx, beam); err != nil {
		return Result{}, err
	}
	s.growth.cut(beam)

	s.logger.InfoContext(ctx, "search started",
		slog.Any("seed", seed),
		slog.Int("hosts", len(hosts)),
		slog.Int("seed_candidates", beam.Len()),
	)

	result.history = append(result.history, Measure(beam.Size(), beam.Partials()))
	result.finalSize = beam.Size()

	// The seed level is an emission candidate too when the minimum size
	// admits single-node idioms.
	if s.cfg.EmitAllSizes() && beam.Size() >= s.cfg.MinIdiomSize() {
		result.idioms, err = s.selector.Select(runID, dataset, beam, nil)
		if err != nil {
			return Result{}, err
		}
	}

	for beam.Size() < s.cfg.MaxIdiomSize() {
		if err := ctx.Err(); err != nil {
			// In stopping-size-only mode nothing has been selected yet;
			// the last completed beam still yields valid output.
			if !s.cfg.EmitAllSizes() && beam.Size() >= s.cfg.MinIdiomSize() {
				if level, selErr := s.selector.Select(runID, dataset, beam, nil); selErr == nil {
					result.idioms = level
				}
			}
			return s.abort(ctx, result, err)
		}

		next, err := s.growth.Grow(ctx, beam, hosts)
		if err != nil {
			return Result{}, fmt.Errorf("grow to size %d: %w", beam.Size()+1, err)
		}
		if next.Len() == 0 {
			s.logger.InfoContext(ctx, "no candidates survived, stopping",
				slog.Int("size", beam.Size()+1),
			)
			break
		}

		beam = next
		result.finalSize = beam.Size()
		result.history = append(result.history, Measure(beam.Size(), beam.Partials()))

		if s.cfg.EmitAllSizes() && beam.Size() >= s.cfg.MinIdiomSize() {
			level, err := s.selector.Select(runID, dataset, beam, result.idioms)
			if err != nil {
				return Result{}, err
			}
			result.idioms = append(level, result.idioms...)
		}

		if s.cfg.StopAtEquilibrium() && s.policy.ShouldStop(result.history) {
			result.converged = true
			s.logger.InfoContext(ctx, "equilibrium reached",
				slog.Int("size", beam.Size()),
			)
			break
		}
	}

	if !s.cfg.EmitAllSizes() && beam.Size() >= s.cfg.MinIdiomSize() {
		result.idioms, err = s.selector.Select(runID, dataset, beam, nil)
		if err != nil {
			return Result{}, err
		}
	}

	if s.idioms != nil && len(result.idioms) > 0 {
		if err := s.idioms.SaveAll(ctx, result.idioms); err != nil {
			return Result{}, fmt.Errorf("persist idioms: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "search finished",
		slog.Int("final_size", result.finalSize),
		slog.Int("idioms", len(result.idioms)),
		slog.Bool("converged", result.converged),
	)
	return result, nil
}

// abort ends a cancelled run. Idioms emitted at completed sizes remain
// valid output, so they are persisted and returned alongside the
// cancellation error.
func (s *Search) abort(ctx context.Context, result Result, cause error) (Result, error) {
	if s.idioms != nil && len(result.idioms) > 0 {
		if err := s.idioms.SaveAll(context.WithoutCancel(ctx), result.idioms); err != nil {
			s.logger.ErrorContext(ctx, "persist idioms after cancellation",
				slog.String("error", err.Error()),
			)
		}
	}
	s.logger.InfoContext(ctx, "search cancelled",
		slog.Int("final_size", result.finalSize),
		slog.Int("idioms", len(result.idioms)),
	)
	return result, cause
}

// seedBeam builds the size-1 beam: one candidate per anchor node carrying
// a seed API, merged across hosts by canonical signature so each distinct
// anchor label starts with its full witness set.
func (s *Search) seedBeam(hosts []corpus.Program, seed []string) (*idiom.Beam, error) {
	beam := idiom.NewBeam(1, s.cfg.BeamWidth())
	for _, h := range hosts {
		for _, api := range seed {
			for _, node := range h.Graph().NodesWithAPI(api) {
				p, err := idiom.NewSeed(h, node)
				if err != nil {
					return nil, fmt.Errorf("seed beam: %w", err)
				}
				beam.Add(p)
			}
		}
	}
	return beam, nil
}
