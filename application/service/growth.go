package service

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/config"
)

// GrowthEngine produces the size k+1 beam from the size k beam: extend
// every member by one frontier node, canonicalize and merge duplicates,
// refresh witnesses, score concurrently, and cut to the beam width.
type GrowthEngine struct {
	scorer oracle.Scorer
	cache  oracle.Cache
	cfg    config.SearchConfig
	logger *slog.Logger
}

// NewGrowthEngine creates a GrowthEngine. The cache may be nil, in which
// case every candidate hits the scorer directly.
func NewGrowthEngine(scorer oracle.Scorer, cache oracle.Cache, cfg config.SearchConfig, logger *slog.Logger) *GrowthEngine {
	return &GrowthEngine{
		scorer: scorer,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// Grow builds the next beam. A candidate whose extension or scoring fails
// is dropped with a warning; the level fails only when the context does.
func (e *GrowthEngine) Grow(ctx context.Context, beam *idiom.Beam, hosts []corpus.Program) (*idiom.Beam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allowed := e.kindFilter()
	next := idiom.NewBeam(beam.Size()+1, beam.Width())

	for _, p := range beam.Partials() {
		for _, node := range p.Extensions(allowed) {
			extended, err := p.Extend(node)
			if err != nil {
				e.logger.Warn("extension failed, dropping candidate",
					slog.String("signature", p.Signature()),
					slog.Int("node", int(node)),
					slog.String("error", err.Error()),
				)
				continue
			}
			next.Add(extended)
		}
	}

	e.refreshWitnesses(next, hosts)

	if err := e.scoreBeam(ctx, next); err != nil {
		return nil, err
	}

	e.cut(next)
	return next, nil
}

// cut trims the beam to its width with a diversity-penalized greedy pass.
// Candidates are visited by support rank; one sitting within the
// near-duplicate distance of an already kept candidate is deferred, so a
// structurally distinct lineage beats a cluster of near-identical variants.
// Deferred candidates fill leftover slots when the diverse pool runs short.
func (e *GrowthEngine) cut(beam *idiom.Beam) {
	width := beam.Width()
	ranked := beam.Partials()
	if width <= 0 || len(ranked) <= width {
		return
	}

	kept := make([]idiom.Partial, 0, width)
	var deferred []idiom.Partial
	for _, p := range ranked {
		if len(kept) == width {
			break
		}
		if nearIdentical(p, kept, e.cfg.NearDupDistance()) {
			deferred = append(deferred, p)
			continue
		}
		kept = append(kept, p)
	}
	for _, p := range deferred {
		if len(kept) == width {
			break
		}
		kept = append(kept, p)
	}

	survivors := make(map[string]struct{}, len(kept))
	for _, p := range kept {
		survivors[p.Signature()] = struct{}{}
	}
	for _, p := range ranked {
		if _, ok := survivors[p.Signature()]; !ok {
			beam.Remove(p.Signature())
		}
	}
}

// kindFilter builds the growth whitelist from configuration; nil allows
// every kind.
func (e *GrowthEngine) kindFilter() func(graph.NodeKind) bool {
	kinds := e.cfg.AllowedNodeKinds()
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[graph.NodeKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[graph.NodeKind(k)] = struct{}{}
	}
	return func(k graph.NodeKind) bool {
		_, ok := set[k]
		return ok
	}
}

// refreshWitnesses recomputes each candidate's witness set by exact
// containment over the host pool. Growth can only shrink a witness set.
func (e *GrowthEngine) refreshWitnesses(beam *idiom.Beam, hosts []corpus.Program) {
	for _, p := range beam.Partials() {
		g, err := p.Graph()
		if err != nil {
			beam.Remove(p.Signature())
			continue
		}
		var ids []string
		for _, h := range hosts {
			if corpus.Contains(g, h) {
				ids = append(ids, h.ID())
			}
		}
		beam.Replace(p.WithWitnesses(ids))
	}
}

// scoreBeam scores every unscored member concurrently, bounded by the
// configured worker count. A member whose scoring fails is removed from
// the beam; only a context error aborts the level.
func (e *GrowthEngine) scoreBeam(ctx context.Context, beam *idiom.Beam) error {
	partials := beam.Partials()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	var mu sync.Mutex
	for _, p := range partials {
		if _, ok := p.Score(); ok {
			continue
		}
		p := p
		g.Go(func() error {
			score, err := e.score(ctx, p)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Warn("scoring failed, dropping candidate",
					slog.String("signature", p.Signature()),
					slog.String("error", err.Error()),
				)
				beam.Remove(p.Signature())
				return nil
			}
			beam.Replace(p.WithScore(score))
			return nil
		})
	}

	return g.Wait()
}

func (e *GrowthEngine) score(ctx context.Context, p idiom.Partial) (oracle.Score, error) {
	compute := func(ctx context.Context) (oracle.Score, error) {
		g, err := p.Graph()
		if err != nil {
			return oracle.Score{}, err
		}
		// Anchor is always the first node of the partial's induced graph.
		return e.scorer.Score(ctx, g, p.Anchor())
	}
	if e.cache == nil {
		return compute(ctx)
	}
	return e.cache.GetOrCompute(ctx, p.Signature(), compute)
}

func (e *GrowthEngine) workers() int {
	if n := e.cfg.ScoringWorkers(); n > 0 {
		return n
	}
	return 1
}
