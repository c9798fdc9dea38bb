// Package oracle defines the embedding oracle contract: mapping a partial
// idiom graph to a vector and an estimated corpus support count. The
// scoring model itself is external; this package holds only the contracts
// and the vector math shared by implementations.
package oracle

import (
	"context"
	"errors"

	"github.com/tart-proj/codescholar/domain/graph"
)

// ErrUnavailable indicates the scoring backend cannot be reached.
var ErrUnavailable = errors.New("oracle unavailable")

// Score is the oracle's verdict on one partial idiom.
type Score struct {
	vector  Vector
	support int
}

// NewScore creates a Score.
func NewScore(vector Vector, support int) Score {
	return Score{vector: vector.Clone(), support: support}
}

// Vector returns the idiom embedding.
func (s Score) Vector() Vector { return s.vector.Clone() }

// Support returns the estimated number of corpus programs containing the
// idiom. The estimate is monotone-consistent with growth in expectation
// only; individual candidates may violate it.
func (s Score) Support() int { return s.support }

// Scorer maps a partial idiom graph, anchored at the seed node, to a score.
// Deterministic for a fixed model and canonical signature.
type Scorer interface {
	Score(ctx context.Context, idiom *graph.Program, anchor graph.NodeID) (Score, error)
}

// Cache memoizes scores by canonical signature with get-or-compute
// semantics. Implementations must be safe for concurrent use and must
// invoke compute at most once per signature even under concurrent misses.
type Cache interface {
	GetOrCompute(ctx context.Context, signature string, compute func(context.Context) (Score, error)) (Score, error)

	// Flush discards all cached entries.
	Flush(ctx context.Context) error
}
