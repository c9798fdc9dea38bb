// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultWorkerCount           = 1
	DefaultResultLimit           = 10
	DefaultEndpointParallelTasks = 1
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultReportingInterval     = 5 * time.Second

	DefaultMinIdiomSize     = 2
	DefaultMaxIdiomSize     = 20
	DefaultBeamWidth        = 10
	DefaultSupportThreshold = 2
	DefaultScoringWorkers   = 4
	DefaultNearDupDistance  = 0.05
	DefaultOrderMargin      = 1e-3
	DefaultCacheCapacity    = 4096
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// ReportingConfig configures progress reporting.
type ReportingConfig struct {
	logTimeInterval time.Duration
}

// NewReportingConfig creates a new ReportingConfig with defaults.
func NewReportingConfig() ReportingConfig {
	return ReportingConfig{
		logTimeInterval: DefaultReportingInterval,
	}
}

// LogTimeInterval returns the time interval for logging progress.
func (r ReportingConfig) LogTimeInterval() time.Duration {
	return r.logTimeInterval
}

// WithLogTimeInterval returns a new config with the specified interval.
func (r ReportingConfig) WithLogTimeInterval(d time.Duration) ReportingConfig {
	r.logTimeInterval = d
	return r
}

// SearchConfig tunes the idiom search loop.
type SearchConfig struct {
	minIdiomSize      int
	maxIdiomSize      int
	beamWidth         int
	supportThreshold  int
	stopAtEquilibrium bool
	emitAllSizes      bool
	scoringWorkers    int
	nearDupDistance   float64
	allowedNodeKinds  []string
}

// NewSearchConfig creates a SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		minIdiomSize:      DefaultMinIdiomSize,
		maxIdiomSize:      DefaultMaxIdiomSize,
		beamWidth:         DefaultBeamWidth,
		supportThreshold:  DefaultSupportThreshold,
		stopAtEquilibrium: true,
		emitAllSizes:      false,
		scoringWorkers:    DefaultScoringWorkers,
		nearDupDistance:   DefaultNearDupDistance,
	}
}

// MinIdiomSize returns the smallest emitted idiom size.
func (s SearchConfig) MinIdiomSize() int { return s.minIdiomSize }

// MaxIdiomSize returns the hard cap on idiom size.
func (s SearchConfig) MaxIdiomSize() int { return s.maxIdiomSize }

// BeamWidth returns the candidate count kept per size level.
func (s SearchConfig) BeamWidth() int { return s.beamWidth }

// SupportThreshold returns the minimum support an emitted idiom must have.
func (s SearchConfig) SupportThreshold() int { return s.supportThreshold }

// StopAtEquilibrium returns whether the reusability/diversity crossover
// ends the search before the size cap.
func (s SearchConfig) StopAtEquilibrium() bool { return s.stopAtEquilibrium }

// EmitAllSizes returns whether idioms are emitted for every size level
// rather than only the final one.
func (s SearchConfig) EmitAllSizes() bool { return s.emitAllSizes }

// ScoringWorkers returns the number of concurrent oracle calls per level.
func (s SearchConfig) ScoringWorkers() int { return s.scoringWorkers }

// NearDupDistance returns the embedding distance below which two
// candidates of the same size count as near-duplicates during ranking.
func (s SearchConfig) NearDupDistance() float64 { return s.nearDupDistance }

// AllowedNodeKinds returns the node-kind whitelist for growth, empty
// meaning all kinds are allowed.
func (s SearchConfig) AllowedNodeKinds() []string {
	out := make([]string, len(s.allowedNodeKinds))
	copy(out, s.allowedNodeKinds)
	return out
}

// SearchConfigOption is a functional option for SearchConfig.
type SearchConfigOption func(*SearchConfig)

// WithMinIdiomSize sets the smallest emitted idiom size.
func WithMinIdiomSize(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.minIdiomSize = n
		}
	}
}

// WithMaxIdiomSize sets the hard cap on idiom size.
func WithMaxIdiomSize(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.maxIdiomSize = n
		}
	}
}

// WithBeamWidth sets the candidate count kept per size level.
func WithBeamWidth(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.beamWidth = n
		}
	}
}

// WithSupportThreshold sets the minimum emitted support.
func WithSupportThreshold(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.supportThreshold = n
		}
	}
}

// WithStopAtEquilibrium toggles equilibrium-based stopping.
func WithStopAtEquilibrium(enabled bool) SearchConfigOption {
	return func(s *SearchConfig) { s.stopAtEquilibrium = enabled }
}

// WithEmitAllSizes toggles per-level idiom emission.
func WithEmitAllSizes(enabled bool) SearchConfigOption {
	return func(s *SearchConfig) { s.emitAllSizes = enabled }
}

// WithScoringWorkers sets the concurrent oracle call count.
func WithScoringWorkers(n int) SearchConfigOption {
	return func(s *SearchConfig) {
		if n > 0 {
			s.scoringWorkers = n
		}
	}
}

// WithNearDupDistance sets the near-duplicate embedding distance.
func WithNearDupDistance(d float64) SearchConfigOption {
	return func(s *SearchConfig) {
		if d >= 0 {
			s.nearDupDistance = d
		}
	}
}

// WithAllowedNodeKinds sets the node-kind whitelist for growth.
func WithAllowedNodeKinds(kinds []string) SearchConfigOption {
	return func(s *SearchConfig) {
		s.allowedNodeKinds = make([]string, len(kinds))
		copy(s.allowedNodeKinds, kinds)
	}
}

// NewSearchConfigWithOptions creates a SearchConfig with functional options.
func NewSearchConfigWithOptions(opts ...SearchConfigOption) SearchConfig {
	s := NewSearchConfig()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Apply returns a new SearchConfig with the given options applied.
func (s SearchConfig) Apply(opts ...SearchConfigOption) SearchConfig {
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// OracleCacheConfig configures embedding score caching.
type OracleCacheConfig struct {
	enabled  bool
	capacity int
	margin   float64
}

// NewOracleCacheConfig creates an OracleCacheConfig with defaults.
func NewOracleCacheConfig() OracleCacheConfig {
	return OracleCacheConfig{
		enabled:  true,
		capacity: DefaultCacheCapacity,
		margin:   DefaultOrderMargin,
	}
}

// Enabled returns whether score caching is enabled.
func (c OracleCacheConfig) Enabled() bool { return c.enabled }

// Capacity returns the in-memory cache entry limit.
func (c OracleCacheConfig) Capacity() int { return c.capacity }

// Margin returns the order-embedding containment margin.
func (c OracleCacheConfig) Margin() float64 { return c.margin }

// WithEnabled returns a new config with the specified enabled state.
func (c OracleCacheConfig) WithEnabled(enabled bool) OracleCacheConfig {
	c.enabled = enabled
	return c
}

// WithCapacity returns a new config with the specified entry limit.
func (c OracleCacheConfig) WithCapacity(n int) OracleCacheConfig {
	if n > 0 {
		c.capacity = n
	}
	return c
}

// WithMargin returns a new config with the specified containment margin.
func (c OracleCacheConfig) WithMargin(m float64) OracleCacheConfig {
	if m > 0 {
		c.margin = m
	}
	return c
}

// Endpoint configures an AI service endpoint.
type Endpoint struct {
	baseURL          string
	model            string
	apiKey           string
	numParallelTasks int
	timeout          time.Duration
	maxRetries       int
	initialDelay     time.Duration
	backoffFactor    float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		numParallelTasks: DefaultEndpointParallelTasks,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointMaxRetries,
		initialDelay:     DefaultEndpointInitialDelay,
		backoffFactor:    DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// NumParallelTasks returns the number of parallel tasks.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithNumParallelTasks sets the parallel task count.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) { e.numParallelTasks = n }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	logLevel          string
	logFormat         LogFormat
	embeddingEndpoint *Endpoint
	search            SearchConfig
	oracleCache       OracleCacheConfig
	apiKeys           []string
	reporting         ReportingConfig
	workerCount       int
	resultLimit       int
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codescholar"
	}
	return filepath.Join(home, ".codescholar")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// PrepareDataDir creates the data directory if it does not exist and returns it.
func PrepareDataDir(dataDir string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:        DefaultHost,
		port:        DefaultPort,
		dataDir:     dataDir,
		dbURL:       "sqlite:///" + filepath.Join(dataDir, "codescholar.db"),
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
		search:      NewSearchConfig(),
		oracleCache: NewOracleCacheConfig(),
		apiKeys:     []string{},
		reporting:   NewReportingConfig(),
		workerCount: DefaultWorkerCount,
		resultLimit: DefaultResultLimit,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// EmbeddingEndpoint returns the embedding endpoint config.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// Search returns the idiom search config.
func (c AppConfig) Search() SearchConfig { return c.search }

// OracleCache returns the embedding score cache config.
func (c AppConfig) OracleCache() OracleCacheConfig { return c.oracleCache }

// APIKeys returns the configured API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// Reporting returns the reporting config.
func (c AppConfig) Reporting() ReportingConfig { return c.reporting }

// WorkerCount returns the number of background workers.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// ResultLimit returns the default result limit for idiom listings.
func (c AppConfig) ResultLimit() int { return c.resultLimit }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		// Update default DB URL when data dir changes
		if c.dbURL == "" || strings.Contains(c.dbURL, "codescholar.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "codescholar.db")
		}
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithEmbeddingEndpoint sets the embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithSearchConfig sets the idiom search config.
func WithSearchConfig(s SearchConfig) AppConfigOption {
	return func(c *AppConfig) { c.search = s }
}

// WithOracleCacheConfig sets the embedding score cache config.
func WithOracleCacheConfig(o OracleCacheConfig) AppConfigOption {
	return func(c *AppConfig) { c.oracleCache = o }
}

// WithAPIKeys sets the API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithReportingConfig sets the reporting config.
func WithReportingConfig(r ReportingConfig) AppConfigOption {
	return func(c *AppConfig) { c.reporting = r }
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.workerCount = n
		}
	}
}

// WithResultLimit sets the default result limit for idiom listings.
func WithResultLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.resultLimit = n
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
// This copies all fields from the receiver and then applies the options,
// making it safe to use when adding new fields to AppConfig.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Sensitive values like API keys are masked or shown as counts.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("embedding_base_url", c.endpointBaseURL(c.embeddingEndpoint)),
		slog.String("embedding_model", c.endpointModel(c.embeddingEndpoint)),
		slog.Int("api_keys_count", len(c.apiKeys)),
		slog.Int("beam_width", c.search.BeamWidth()),
		slog.Int("max_idiom_size", c.search.MaxIdiomSize()),
		slog.Bool("stop_at_equilibrium", c.search.StopAtEquilibrium()),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if len(c.dbURL) >= 7 && c.dbURL[:7] == "sqlite:" {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.BaseURL()
}

func (c AppConfig) endpointModel(e *Endpoint) string {
	if e == nil {
		return "(not configured)"
	}
	return e.Model()
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
