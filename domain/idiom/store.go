package idiom

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/tart-proj/codescholar/domain/repository"
)

// ErrNotFound indicates the requested idiom does not exist.
var ErrNotFound = errors.New("idiom not found")

// Store persists emitted idioms.
type Store interface {
	// Save persists one idiom. Saving the same ID twice overwrites.
	Save(ctx context.Context, idiom Idiom) error

	// SaveAll persists a batch atomically where the backend allows.
	SaveAll(ctx context.Context, idioms []Idiom) error

	// Get retrieves an idiom by ID.
	Get(ctx context.Context, id uuid.UUID) (Idiom, error)

	// Find returns idioms matching the options. Use repository.WithRunID,
	// WithSize, WithMinSupport and the ordering options to shape results.
	Find(ctx context.Context, options ...repository.Option) ([]Idiom, error)

	// Count returns the number of idioms matching the options.
	Count(ctx context.Context, options ...repository.Option) (int64, error)
}
