// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Field names map to environment variables directly; nested structs use
// underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL, SEARCH_BEAM_WIDTH).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.codescholar
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/codescholar.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// APIKeys is a comma-separated list of valid API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// EmbeddingEndpoint configures the embedding AI service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// Search configures the idiom search loop.
	Search SearchEnv `envconfig:"SEARCH"`

	// OracleCache configures embedding score caching.
	OracleCache OracleCacheEnv `envconfig:"ORACLE_CACHE"`

	// Reporting configures progress reporting.
	Reporting ReportingEnv `envconfig:"REPORTING"`

	// WorkerCount is the number of background workers.
	// Env: WORKER_COUNT (default: 1)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"1"`

	// ResultLimit is the default idiom listing limit.
	// Env: RESULT_LIMIT (default: 10)
	ResultLimit int `envconfig:"RESULT_LIMIT" default:"10"`
}

// EndpointEnv holds environment configuration for an AI endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g., text-embedding-3-small).
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// NumParallelTasks is the number of parallel tasks.
	// Env: *_NUM_PARALLEL_TASKS (default: 1)
	NumParallelTasks int `envconfig:"NUM_PARALLEL_TASKS" default:"1"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// SearchEnv holds environment configuration for the idiom search loop.
type SearchEnv struct {
	// MinIdiomSize is the smallest emitted idiom size.
	// Env: SEARCH_MIN_IDIOM_SIZE (default: 2)
	MinIdiomSize int `envconfig:"MIN_IDIOM_SIZE" default:"2"`

	// MaxIdiomSize is the hard cap on idiom size.
	// Env: SEARCH_MAX_IDIOM_SIZE (default: 20)
	MaxIdiomSize int `envconfig:"MAX_IDIOM_SIZE" default:"20"`

	// BeamWidth is the candidate count kept per size level.
	// Env: SEARCH_BEAM_WIDTH (default: 10)
	BeamWidth int `envconfig:"BEAM_WIDTH" default:"10"`

	// SupportThreshold is the minimum support an emitted idiom must have.
	// Env: SEARCH_SUPPORT_THRESHOLD (default: 2)
	SupportThreshold int `envconfig:"SUPPORT_THRESHOLD" default:"2"`

	// StopAtEquilibrium ends the search at the reusability/diversity
	// crossover instead of the size cap.
	// Env: SEARCH_STOP_AT_EQUILIBRIUM (default: true)
	StopAtEquilibrium bool `envconfig:"STOP_AT_EQUILIBRIUM" default:"true"`

	// EmitAllSizes emits idioms for every size level, not only the final one.
	// Env: SEARCH_EMIT_ALL_SIZES (default: false)
	EmitAllSizes bool `envconfig:"EMIT_ALL_SIZES" default:"false"`

	// ScoringWorkers is the number of concurrent oracle calls per level.
	// Env: SEARCH_SCORING_WORKERS (default: 4)
	ScoringWorkers int `envconfig:"SCORING_WORKERS" default:"4"`

	// NearDupDistance is the embedding distance below which candidates
	// count as near-duplicates during ranking.
	// Env: SEARCH_NEAR_DUP_DISTANCE (default: 0.05)
	NearDupDistance float64 `envconfig:"NEAR_DUP_DISTANCE" default:"0.05"`

	// AllowedNodeKinds is a comma-separated node-kind whitelist for growth.
	// Empty allows every kind.
	// Env: SEARCH_ALLOWED_NODE_KINDS
	AllowedNodeKinds string `envconfig:"ALLOWED_NODE_KINDS"`
}

// OracleCacheEnv holds environment configuration for score caching.
type OracleCacheEnv struct {
	// Enabled controls whether score caching is enabled.
	// Env: ORACLE_CACHE_ENABLED (default: true)
	Enabled bool `envconfig:"ENABLED" default:"true"`

	// Capacity is the in-memory cache entry limit.
	// Env: ORACLE_CACHE_CAPACITY (default: 4096)
	Capacity int `envconfig:"CAPACITY" default:"4096"`

	// Margin is the order-embedding containment margin.
	// Env: ORACLE_CACHE_MARGIN (default: 0.001)
	Margin float64 `envconfig:"MARGIN" default:"0.001"`
}

// ReportingEnv holds environment configuration for reporting.
type ReportingEnv struct {
	// LogTimeInterval is the logging interval in seconds.
	// Env: REPORTING_LOG_TIME_INTERVAL (default: 5)
	LogTimeInterval float64 `envconfig:"LOG_TIME_INTERVAL" default:"5"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "CODESCHOLAR" would require CODESCHOLAR_DATA_DIR
// instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	// Apply overrides from environment
	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}

	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}

	// Embedding endpoint
	if e.EmbeddingEndpoint.IsConfigured() {
		cfg = applyOption(cfg, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	// Search config
	cfg = applyOption(cfg, WithSearchConfig(e.Search.ToSearchConfig()))

	// Oracle cache config
	cfg = applyOption(cfg, WithOracleCacheConfig(e.OracleCache.ToOracleCacheConfig()))

	// Reporting config
	cfg = applyOption(cfg, WithReportingConfig(e.Reporting.ToReportingConfig()))

	// Worker count
	if e.WorkerCount > 0 {
		cfg = applyOption(cfg, WithWorkerCount(e.WorkerCount))
	}

	// Result limit
	if e.ResultLimit > 0 {
		cfg = applyOption(cfg, WithResultLimit(e.ResultLimit))
	}

	return cfg
}

// applyOption applies an option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithNumParallelTasks(e.NumParallelTasks),
		WithTimeout(time.Duration(e.Timeout * float64(time.Second))),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(time.Duration(e.InitialDelay * float64(time.Second))),
		WithBackoffFactor(e.BackoffFactor),
	}

	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}

	return NewEndpointWithOptions(opts...)
}

// ToSearchConfig converts SearchEnv to SearchConfig.
func (s SearchEnv) ToSearchConfig() SearchConfig {
	opts := []SearchConfigOption{
		WithMinIdiomSize(s.MinIdiomSize),
		WithMaxIdiomSize(s.MaxIdiomSize),
		WithBeamWidth(s.BeamWidth),
		WithSupportThreshold(s.SupportThreshold),
		WithStopAtEquilibrium(s.StopAtEquilibrium),
		WithEmitAllSizes(s.EmitAllSizes),
		WithScoringWorkers(s.ScoringWorkers),
		WithNearDupDistance(s.NearDupDistance),
	}
	if s.AllowedNodeKinds != "" {
		opts = append(opts, WithAllowedNodeKinds(parseKindList(s.AllowedNodeKinds)))
	}
	return NewSearchConfigWithOptions(opts...)
}

// ToOracleCacheConfig converts OracleCacheEnv to OracleCacheConfig.
func (o OracleCacheEnv) ToOracleCacheConfig() OracleCacheConfig {
	return NewOracleCacheConfig().
		WithEnabled(o.Enabled).
		WithCapacity(o.Capacity).
		WithMargin(o.Margin)
}

// ToReportingConfig converts ReportingEnv to ReportingConfig.
func (r ReportingEnv) ToReportingConfig() ReportingConfig {
	return NewReportingConfig().
		WithLogTimeInterval(time.Duration(r.LogTimeInterval * float64(time.Second)))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

// parseKindList parses a comma-separated node-kind list.
func parseKindList(s string) []string {
	parts := strings.Split(s, ",")
	kinds := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			kinds = append(kinds, trimmed)
		}
	}
	return kinds
}
