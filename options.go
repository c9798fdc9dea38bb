package codescholar

import (
	"io"
	"log/slog"
	"time"

	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/infrastructure/scoring"
	"github.com/tart-proj/codescholar/internal/config"
)

// databaseType identifies the database backend.
type databaseType int

const (
	databaseUnset databaseType = iota
	databaseSQLite
	databasePostgres
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	database              databaseType
	dbPath                string
	dbDSN                 string
	dataDir               string
	logger                *slog.Logger
	apiKeys               []string
	embedder              scoring.Embedder
	embeddingEndpoint     *config.Endpoint
	scorer                oracle.Scorer
	stopPolicy            service.StopPolicy
	search                config.SearchConfig
	oracleCache           config.OracleCacheConfig
	workerPollPeriod      time.Duration
	skipHandlerValidation bool
	closers               []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config,
// the single source of truth for default values.
func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:     config.DefaultDataDir(),
		search:      config.NewSearchConfig(),
		oracleCache: config.NewOracleCacheConfig(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database. Oracle score vectors are
// stored as JSON.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.database = databaseSQLite
		c.dbPath = path
	}
}

// WithPostgres configures PostgreSQL as the database. Oracle score vectors
// use the pgvector extension.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.database = databasePostgres
		c.dbDSN = dsn
	}
}

// WithOpenAI configures an OpenAI embedding oracle with default settings.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		e := config.NewEndpointWithOptions(
			config.WithAPIKey(apiKey),
			config.WithModel("text-embedding-3-small"),
		)
		c.embeddingEndpoint = &e
	}
}

// WithEmbeddingEndpoint configures the embedding oracle from a full
// endpoint configuration (base URL, model, retry policy).
func WithEmbeddingEndpoint(e config.Endpoint) Option {
	return func(c *clientConfig) {
		c.embeddingEndpoint = &e
	}
}

// WithEmbedder sets a custom graph embedder. Takes precedence over any
// configured endpoint.
func WithEmbedder(e scoring.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithScorer sets a custom oracle scorer, bypassing the embedding estimator
// entirely. Intended for tests and experimentation with alternate oracles.
func WithScorer(s oracle.Scorer) Option {
	return func(c *clientConfig) {
		c.scorer = s
	}
}

// WithStopPolicy sets a custom stop policy for idiom growth. Defaults to
// the reusability/diversity crossover policy.
func WithStopPolicy(p service.StopPolicy) Option {
	return func(c *clientConfig) {
		c.stopPolicy = p
	}
}

// WithSearchOptions applies search configuration options (beam width, size
// bounds, support threshold, equilibrium stopping).
func WithSearchOptions(opts ...config.SearchConfigOption) Option {
	return func(c *clientConfig) {
		c.search = c.search.Apply(opts...)
	}
}

// WithSearchConfig replaces the whole search configuration, e.g. one built
// from the environment.
func WithSearchConfig(cfg config.SearchConfig) Option {
	return func(c *clientConfig) {
		c.search = cfg
	}
}

// WithOracleCache sets the oracle score cache configuration.
func WithOracleCache(cfg config.OracleCacheConfig) Option {
	return func(c *clientConfig) {
		c.oracleCache = cfg
	}
}

// WithDataDir sets the data directory for the default database location.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithAPIKeys sets the API keys for HTTP API authentication.
func WithAPIKeys(keys ...string) Option {
	return func(c *clientConfig) {
		c.apiKeys = keys
	}
}

// WithWorkerPollPeriod sets how often the background worker checks for new
// tasks. Defaults to 1 second. Lower values speed up task processing at the
// cost of more frequent polling — useful in tests.
func WithWorkerPollPeriod(d time.Duration) Option {
	return func(c *clientConfig) {
		c.workerPollPeriod = d
	}
}

// WithSkipHandlerValidation skips the check that every prescribed queue
// operation has a registered handler. Intended for tests.
func WithSkipHandlerValidation() Option {
	return func(c *clientConfig) {
		c.skipHandlerValidation = true
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
