package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/internal/database"
)

// ProgramStore implements corpus.Store using GORM.
type ProgramStore struct {
	db     database.Database
	mapper ProgramMapper
}

// NewProgramStore creates a new ProgramStore.
func NewProgramStore(db database.Database) ProgramStore {
	return ProgramStore{
		db:     db,
		mapper: ProgramMapper{},
	}
}

// FindHosts returns every program whose graph contains all APIs in the seed
// set. Rows are narrowed by dataset in SQL; the per-API containment check
// runs on the decoded graphs because JSON array membership is not portable
// across the supported drivers. Results are ordered by ID for determinism.
func (s ProgramStore) FindHosts(ctx context.Context, apis []string, options ...repository.Option) ([]corpus.Program, error) {
	var models []ProgramModel
	db := database.ApplyOptions(s.db.Session(ctx).Order("id ASC"), options...)
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find hosts: %w: %w", corpus.ErrUnavailable, err)
	}

	var hosts []corpus.Program
	for _, model := range models {
		p, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, fmt.Errorf("find hosts: %w", err)
		}
		if p.ContainsAPIs(apis) {
			hosts = append(hosts, p)
		}
	}
	return hosts, nil
}

// Get retrieves a single program by ID.
func (s ProgramStore) Get(ctx context.Context, id string) (corpus.Program, error) {
	var model ProgramModel
	err := s.db.Session(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return corpus.Program{}, fmt.Errorf("%w: program %s", corpus.ErrNotFound, id)
		}
		return corpus.Program{}, fmt.Errorf("get program: %w", err)
	}
	return s.mapper.ToDomain(model)
}

// Save adds a program to the corpus, overwriting any previous row with the
// same ID.
func (s ProgramStore) Save(ctx context.Context, program corpus.Program) error {
	model, err := s.mapper.ToModel(program)
	if err != nil {
		return err
	}
	err = s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save program: %w", err)
	}
	return nil
}

// Count returns the number of programs matching the options.
func (s ProgramStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := database.ApplyConditions(s.db.Session(ctx).Model(&ProgramModel{}), options...)
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return count, nil
}
