package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/internal/database"
)

// ScoreStore persists oracle verdicts keyed by canonical signature. It is
// the durable tier behind the in-memory oracle cache: a signature scored in
// any previous run never goes back to the embedding model.
type ScoreStore interface {
	// Get returns the cached score for a signature, with false when the
	// signature has never been scored.
	Get(ctx context.Context, signature string) (oracle.Score, bool, error)

	// Put stores a score, overwriting any previous verdict for the
	// signature.
	Put(ctx context.Context, signature string, score oracle.Score) error

	// Flush discards every cached score.
	Flush(ctx context.Context) error
}

// NewScoreStore returns the score store variant for the connected database:
// a pgvector-backed store on PostgreSQL, a JSON-backed one on SQLite.
func NewScoreStore(db database.Database) ScoreStore {
	if db.IsPostgres() {
		return PgVectorScoreStore{db: db}
	}
	return SQLiteScoreStore{db: db}
}

// SQLiteScoreStore stores score vectors as JSON arrays.
type SQLiteScoreStore struct {
	db database.Database
}

// NewSQLiteScoreStore creates a SQLiteScoreStore.
func NewSQLiteScoreStore(db database.Database) SQLiteScoreStore {
	return SQLiteScoreStore{db: db}
}

// Get returns the cached score for a signature.
func (s SQLiteScoreStore) Get(ctx context.Context, signature string) (oracle.Score, bool, error) {
	var model ScoreModel
	err := s.db.Session(ctx).Where("signature = ?", signature).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return oracle.Score{}, false, nil
		}
		return oracle.Score{}, false, fmt.Errorf("get score: %w", err)
	}
	return oracle.NewScore(oracle.Vector(model.Vector), model.Support), true, nil
}

// Put stores a score.
func (s SQLiteScoreStore) Put(ctx context.Context, signature string, score oracle.Score) error {
	model := ScoreModel{
		Signature: signature,
		Vector:    score.Vector(),
		Support:   score.Support(),
	}
	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}},
		DoUpdates: clause.AssignmentColumns([]string{"vector", "support", "updated_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

// Flush discards every cached score.
func (s SQLiteScoreStore) Flush(ctx context.Context) error {
	err := s.db.Session(ctx).Where("1 = 1").Delete(&ScoreModel{}).Error
	if err != nil {
		return fmt.Errorf("flush scores: %w", err)
	}
	return nil
}

// PgVectorScoreStore stores score vectors in a native pgvector column so
// they stay queryable with vector operators.
type PgVectorScoreStore struct {
	db database.Database
}

// NewPgVectorScoreStore creates a PgVectorScoreStore.
func NewPgVectorScoreStore(db database.Database) PgVectorScoreStore {
	return PgVectorScoreStore{db: db}
}

// Migrate creates the pgvector-backed scores table. Separate from
// AutoMigrate because the vector type needs the pgvector extension.
func (s PgVectorScoreStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS score_vectors (
			signature VARCHAR(64) PRIMARY KEY,
			vector VECTOR,
			support INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if err := s.db.Session(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate score vectors: %w", err)
		}
	}
	return nil
}

// Get returns the cached score for a signature.
func (s PgVectorScoreStore) Get(ctx context.Context, signature string) (oracle.Score, bool, error) {
	var row struct {
		Vector  database.PgVector `gorm:"column:vector"`
		Support int               `gorm:"column:support"`
	}
	err := s.db.Session(ctx).
		Raw(`SELECT vector, support FROM score_vectors WHERE signature = ?`, signature).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return oracle.Score{}, false, nil
		}
		return oracle.Score{}, false, fmt.Errorf("get score: %w", err)
	}
	return oracle.NewScore(oracle.Vector(row.Vector.Floats()), row.Support), true, nil
}

// Put stores a score.
func (s PgVectorScoreStore) Put(ctx context.Context, signature string, score oracle.Score) error {
	err := s.db.Session(ctx).Exec(
		`INSERT INTO score_vectors (signature, vector, support, updated_at)
		 VALUES (?, ?, ?, now())
		 ON CONFLICT (signature)
		 DO UPDATE SET vector = EXCLUDED.vector, support = EXCLUDED.support, updated_at = now()`,
		signature, database.NewPgVector(score.Vector()), score.Support(),
	).Error
	if err != nil {
		return fmt.Errorf("put score: %w", err)
	}
	return nil
}

// Flush discards every cached score.
func (s PgVectorScoreStore) Flush(ctx context.Context) error {
	if err := s.db.Session(ctx).Exec(`DELETE FROM score_vectors`).Error; err != nil {
		return fmt.Errorf("flush scores: %w", err)
	}
	return nil
}
