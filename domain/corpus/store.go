package corpus

import (
	"context"
	"errors"

	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/repository"
)

// ErrUnavailable indicates the corpus backend is unreachable. This is fatal
// for a search run; a seed with zero matching hosts is NOT an error and is
// reported as an empty result instead.
var ErrUnavailable = errors.New("corpus unavailable")

// ErrNotFound indicates the requested program does not exist.
var ErrNotFound = errors.New("program not found")

// Store provides read access to the indexed corpus.
type Store interface {
	// FindHosts returns every program containing all APIs in the query set,
	// as full dependence graphs. An empty result means "no seeds" and is
	// returned without error.
	FindHosts(ctx context.Context, apis []string, options ...repository.Option) ([]Program, error)

	// Get retrieves a single program by ID.
	Get(ctx context.Context, id string) (Program, error)

	// Save adds a program to the corpus.
	Save(ctx context.Context, program Program) error

	// Count returns the number of programs matching the options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}

// Contains reports whether candidate occurs as an exact subgraph of host.
// Read-only; callers may invoke it concurrently.
func Contains(candidate *graph.Program, host Program) bool {
	return graph.Contains(candidate, host.Graph())
}

// Witnesses filters hosts down to those containing candidate, preserving
// order. Used to refresh a partial idiom's support witnesses after growth.
func Witnesses(candidate *graph.Program, hosts []Program) []Program {
	var out []Program
	for _, h := range hosts {
		if Contains(candidate, h) {
			out = append(out, h)
		}
	}
	return out
}
