package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlLogger bridges GORM's logger.Interface onto slog. Queries land at
// Debug, so corpus-sized scans stay out of normal output; the SQL string is
// only rendered when the Debug level is actually enabled.
type sqlLogger struct{}

// LogMode is a no-op, slog owns level filtering.
func (l sqlLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l sqlLogger) Info(_ context.Context, msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...))
}

func (l sqlLogger) Warn(_ context.Context, msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...))
}

func (l sqlLogger) Error(_ context.Context, msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...))
}

// Idiom rows embed whole subgraphs, so statements can run long in logs.
const sqlLogLimit = 200

func clipSQL(sql string) string {
	if len(sql) <= sqlLogLimit {
		return sql
	}
	return sql[:sqlLogLimit-3] + "..."
}

// Trace reports each finished statement. ErrRecordNotFound is the ordinary
// empty result of a First lookup and is treated like success.
func (l sqlLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.Error("sql statement failed",
			"sql", clipSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}
	sql, rows := fc()
	slog.Debug("sql statement",
		"sql", clipSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}
