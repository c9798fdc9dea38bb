package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// WithTransaction runs fn on a single transaction: an error from fn rolls
// everything back and is returned as-is, otherwise the transaction commits.
// Batch writers use this so a failure mid-batch leaves no partial rows.
func WithTransaction(ctx context.Context, db Database, fn func(tx *gorm.DB) error) error {
	tx := db.Session(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
