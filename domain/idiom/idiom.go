package idiom

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tart-proj/codescholar/domain/graph"
)

// Idiom is an emitted search result: an immutable snapshot of a partial
// idiom at the moment its size level completed, with the rank it earned
// within that level.
type Idiom struct {
	id        uuid.UUID
	runID     uuid.UUID
	dataset   string
	apis      []string
	size      int
	support   int
	rank      int
	signature string
	g         *graph.Program
	witnesses []string
	source    string
	createdAt time.Time
}

// NewIdiom freezes a ranked partial into an emitted idiom. Rank is 1-based
// within the partial's size level.
func NewIdiom(runID uuid.UUID, dataset string, p Partial, rank int) (Idiom, error) {
	if rank < 1 {
		return Idiom{}, fmt.Errorf("idiom: rank must be positive, got %d", rank)
	}
	g, err := p.Graph()
	if err != nil {
		return Idiom{}, fmt.Errorf("idiom: %w", err)
	}
	apis := p.APIs()
	sort.Strings(apis)
	return Idiom{
		id:        uuid.New(),
		runID:     runID,
		dataset:   dataset,
		apis:      apis,
		size:      p.Size(),
		support:   p.Support(),
		rank:      rank,
		signature: p.Signature(),
		g:         g,
		witnesses: p.Witnesses(),
		source:    p.Host().Source(),
		createdAt: time.Now().UTC(),
	}, nil
}

// RestoreIdiom reconstructs an Idiom from persisted state.
func RestoreIdiom(
	id, runID uuid.UUID,
	dataset string,
	apis []string,
	size, support, rank int,
	signature string,
	g *graph.Program,
	witnesses []string,
	source string,
	createdAt time.Time,
) Idiom {
	return Idiom{
		id:        id,
		runID:     runID,
		dataset:   dataset,
		apis:      apis,
		size:      size,
		support:   support,
		rank:      rank,
		signature: signature,
		g:         g,
		witnesses: witnesses,
		source:    source,
		createdAt: createdAt,
	}
}

// ID returns the idiom identifier.
func (i Idiom) ID() uuid.UUID { return i.id }

// RunID returns the search run that emitted this idiom.
func (i Idiom) RunID() uuid.UUID { return i.runID }

// Dataset returns the corpus dataset searched.
func (i Idiom) Dataset() string { return i.dataset }

// APIs returns the distinct API identifiers in the idiom, sorted.
func (i Idiom) APIs() []string {
	out := make([]string, len(i.apis))
	copy(out, i.apis)
	return out
}

// Size returns the node count.
func (i Idiom) Size() int { return i.size }

// Support returns the estimated corpus support at emission time.
func (i Idiom) Support() int { return i.support }

// Rank returns the 1-based rank within the idiom's size level. Ties in
// support share a rank.
func (i Idiom) Rank() int { return i.rank }

// Signature returns the canonical signature.
func (i Idiom) Signature() string { return i.signature }

// Graph returns the idiom's dependence graph.
func (i Idiom) Graph() *graph.Program { return i.g }

// Witnesses returns the IDs of corpus programs known to contain the idiom.
func (i Idiom) Witnesses() []string {
	out := make([]string, len(i.witnesses))
	copy(out, i.witnesses)
	return out
}

// Source returns the source snippet of the representative host program.
func (i Idiom) Source() string { return i.source }

// CreatedAt returns the emission timestamp.
func (i Idiom) CreatedAt() time.Time { return i.createdAt }
