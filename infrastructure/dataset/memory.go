package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/repository"
)

// MemoryStore is an in-memory corpus.Store. Host lookup scans every program,
// which is fine for the manifest-sized corpora the CLI mines locally.
type MemoryStore struct {
	mu       sync.RWMutex
	programs map[string]corpus.Program
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{programs: make(map[string]corpus.Program)}
}

// NewMemoryStoreFrom creates a MemoryStore holding the given programs.
func NewMemoryStoreFrom(programs []corpus.Program) *MemoryStore {
	s := NewMemoryStore()
	for _, p := range programs {
		s.programs[p.ID()] = p
	}
	return s
}

// FindHosts returns every program containing all seed APIs, in ID order.
func (s *MemoryStore) FindHosts(_ context.Context, apis []string, options ...repository.Option) ([]corpus.Program, error) {
	q := repository.Build(options...)
	dataset := conditionValue(q, "dataset")

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hosts []corpus.Program
	for _, p := range s.programs {
		if dataset != "" && p.Dataset() != dataset {
			continue
		}
		if p.ContainsAPIs(apis) {
			hosts = append(hosts, p)
		}
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].ID() < hosts[j].ID() })
	return hosts, nil
}

// Get retrieves a single program by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (corpus.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.programs[id]
	if !ok {
		return corpus.Program{}, fmt.Errorf("%w: program %s", corpus.ErrNotFound, id)
	}
	return p, nil
}

// Save adds a program, overwriting any previous one with the same ID.
func (s *MemoryStore) Save(_ context.Context, program corpus.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[program.ID()] = program
	return nil
}

// Count returns the number of stored programs matching the options.
func (s *MemoryStore) Count(_ context.Context, options ...repository.Option) (int64, error) {
	q := repository.Build(options...)
	dataset := conditionValue(q, "dataset")

	s.mu.RLock()
	defer s.mu.RUnlock()

	if dataset == "" {
		return int64(len(s.programs)), nil
	}
	var count int64
	for _, p := range s.programs {
		if p.Dataset() == dataset {
			count++
		}
	}
	return count, nil
}

func conditionValue(q repository.Query, field string) string {
	for _, cond := range q.Conditions() {
		if cond.Field() == field {
			if v, ok := cond.Value().(string); ok {
				return v
			}
		}
	}
	return ""
}
