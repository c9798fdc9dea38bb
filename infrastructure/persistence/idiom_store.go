package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/internal/database"
)

// IdiomStore implements idiom.Store using GORM.
type IdiomStore struct {
	db     database.Database
	mapper IdiomMapper
}

// NewIdiomStore creates a new IdiomStore.
func NewIdiomStore(db database.Database) IdiomStore {
	return IdiomStore{
		db:     db,
		mapper: IdiomMapper{},
	}
}

// Save persists one idiom, overwriting any previous row with the same ID.
func (s IdiomStore) Save(ctx context.Context, i idiom.Idiom) error {
	model, err := s.mapper.ToModel(i)
	if err != nil {
		return err
	}
	err = s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save idiom: %w", err)
	}
	return nil
}

// SaveAll persists a batch of idioms in one transaction.
func (s IdiomStore) SaveAll(ctx context.Context, idioms []idiom.Idiom) error {
	if len(idioms) == 0 {
		return nil
	}

	models := make([]IdiomModel, len(idioms))
	for i, emitted := range idioms {
		model, err := s.mapper.ToModel(emitted)
		if err != nil {
			return err
		}
		models[i] = model
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("save idioms: %w", err)
	}
	return nil
}

// Get retrieves an idiom by ID.
func (s IdiomStore) Get(ctx context.Context, id uuid.UUID) (idiom.Idiom, error) {
	var model IdiomModel
	err := s.db.Session(ctx).Where("id = ?", id.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return idiom.Idiom{}, fmt.Errorf("%w: %s", idiom.ErrNotFound, id)
		}
		return idiom.Idiom{}, fmt.Errorf("get idiom: %w", err)
	}
	return s.mapper.ToDomain(model)
}

// Find returns idioms matching the options. Without an explicit ordering
// option, results come back largest size first, then rank ascending.
func (s IdiomStore) Find(ctx context.Context, options ...repository.Option) ([]idiom.Idiom, error) {
	q := repository.Build(options...)
	db := s.db.Session(ctx)
	if len(q.Orders()) == 0 {
		db = db.Order("size DESC, rank ASC, signature ASC")
	}
	db = database.ApplyOptions(db, options...)

	var models []IdiomModel
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("find idioms: %w", err)
	}

	idioms := make([]idiom.Idiom, 0, len(models))
	for _, model := range models {
		emitted, err := s.mapper.ToDomain(model)
		if err != nil {
			return nil, fmt.Errorf("find idioms: %w", err)
		}
		idioms = append(idioms, emitted)
	}
	return idioms, nil
}

// Count returns the number of idioms matching the options.
func (s IdiomStore) Count(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := database.ApplyConditions(s.db.Session(ctx).Model(&IdiomModel{}), options...)
	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count idioms: %w", err)
	}
	return count, nil
}
