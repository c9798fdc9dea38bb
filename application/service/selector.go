package service

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/config"
)

// Selector turns a completed beam into emitted idioms: prune below-threshold,
// near-duplicate and redundant candidates, then assign dense ranks by support.
type Selector struct {
	cfg    config.SearchConfig
	logger *slog.Logger
}

// NewSelector creates a Selector.
func NewSelector(cfg config.SearchConfig, logger *slog.Logger) *Selector {
	return &Selector{cfg: cfg, logger: logger}
}

// Select emits idioms from the beam. Candidates are visited in the beam's
// deterministic order (support descending, signature ascending); a candidate
// within the near-duplicate distance of an already selected one is skipped,
// keeping the level diverse. A candidate that is a supergraph of a previously
// emitted idiom without improving on its support is redundant and skipped
// too. Ties in support share a rank.
func (s *Selector) Select(runID uuid.UUID, dataset string, beam *idiom.Beam, emitted []idiom.Idiom) ([]idiom.Idiom, error) {
	var kept []idiom.Partial
	for _, p := range beam.Partials() {
		if p.Support() < s.cfg.SupportThreshold() {
			continue
		}
		if nearIdentical(p, kept, s.cfg.NearDupDistance()) {
			s.logger.Debug("near-duplicate suppressed",
				slog.String("signature", p.Signature()),
				slog.Int("size", p.Size()),
			)
			continue
		}
		if s.redundant(p, emitted) {
			s.logger.Debug("redundant supergraph suppressed",
				slog.String("signature", p.Signature()),
				slog.Int("size", p.Size()),
			)
			continue
		}
		kept = append(kept, p)
	}

	idioms := make([]idiom.Idiom, 0, len(kept))
	rank := 0
	lastSupport := -1
	for _, p := range kept {
		if p.Support() != lastSupport {
			rank++
			lastSupport = p.Support()
		}
		out, err := idiom.NewIdiom(runID, dataset, p, rank)
		if err != nil {
			return nil, fmt.Errorf("emit idiom %s: %w", p.Signature(), err)
		}
		idioms = append(idioms, out)
	}
	return idioms, nil
}

// redundant reports whether p grew out of an already emitted idiom without
// gaining support: it contains the emitted graph as a subgraph and its
// support does not exceed the emitted support.
func (s *Selector) redundant(p idiom.Partial, emitted []idiom.Idiom) bool {
	if len(emitted) == 0 {
		return false
	}
	g, err := p.Graph()
	if err != nil {
		return false
	}
	for _, e := range emitted {
		if e.Size() >= p.Size() || p.Support() > e.Support() {
			continue
		}
		if graph.Contains(e.Graph(), g) {
			return true
		}
	}
	return false
}

// nearIdentical reports whether p's embedding sits within threshold cosine
// distance of any member of selected. Unscored candidates never match.
func nearIdentical(p idiom.Partial, selected []idiom.Partial, threshold float64) bool {
	if threshold <= 0 {
		return false
	}
	score, ok := p.Score()
	if !ok || len(score.Vector()) == 0 {
		return false
	}
	for _, q := range selected {
		other, ok := q.Score()
		if !ok || len(other.Vector()) == 0 {
			continue
		}
		if oracle.CosineDistance(score.Vector(), other.Vector()) < threshold {
			return true
		}
	}
	return false
}
