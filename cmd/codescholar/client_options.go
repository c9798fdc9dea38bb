package main

import (
	"strings"

	"github.com/tart-proj/codescholar"
	"github.com/tart-proj/codescholar/internal/config"
)

// clientOptions returns the codescholar.Option slice derived from the shared
// parts of AppConfig: database storage, the embedding oracle, search tuning,
// and the score cache. Callers append entrypoint-specific options (API keys,
// logger) before passing the full slice to codescholar.New.
func clientOptions(cfg config.AppConfig) []codescholar.Option {
	opts := storageOptions(cfg)

	if endpoint := cfg.EmbeddingEndpoint(); endpoint != nil && endpoint.IsConfigured() {
		opts = append(opts, codescholar.WithEmbeddingEndpoint(*endpoint))
	}

	opts = append(opts,
		codescholar.WithDataDir(cfg.DataDir()),
		codescholar.WithSearchConfig(cfg.Search()),
		codescholar.WithOracleCache(cfg.OracleCache()),
	)

	return opts
}

// storageOptions returns the codescholar.Option for the configured database
// backend.
func storageOptions(cfg config.AppConfig) []codescholar.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return []codescholar.Option{codescholar.WithPostgres(dbURL)}
	}

	dbPath := cfg.DataDir() + "/codescholar.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite:///")
		if dbPath == dbURL {
			dbPath = strings.TrimPrefix(dbURL, "sqlite:")
		}
	}

	return []codescholar.Option{codescholar.WithSQLite(dbPath)}
}

// isSQLite checks if the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}
