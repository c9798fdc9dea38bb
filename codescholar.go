// Package codescholar provides a library for mining reusable API usage
// idioms from a corpus of program dependence graphs.
//
// CodeScholar grows idioms from seed API anchors by neural-guided beam
// search: each size level extends candidates by one dependence-graph node,
// scores them with an embedding oracle, and stops at the reusability/
// diversity equilibrium.
//
// Basic usage:
//
//	client, err := codescholar.New(
//	    codescholar.WithSQLite(".codescholar/data.db"),
//	    codescholar.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Load a corpus
//	n, err := client.IngestManifest(ctx, "numpy.yaml")
//
//	// Mine idioms around a seed API
//	result, err := client.RunSearch(ctx, []string{"np.mean"}, "numpy")
//	for _, idm := range result.Idioms() {
//	    fmt.Println(idm.Rank(), idm.Support(), idm.APIs())
//	}
package codescholar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tart-proj/codescholar/application/service"
	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/domain/task"
	"github.com/tart-proj/codescholar/infrastructure/dataset"
	"github.com/tart-proj/codescholar/infrastructure/persistence"
	"github.com/tart-proj/codescholar/infrastructure/scoring"
	"github.com/tart-proj/codescholar/infrastructure/tracking"
	"github.com/tart-proj/codescholar/internal/config"
	"github.com/tart-proj/codescholar/internal/database"
)

// Errors returned by Client construction and use.
var (
	// ErrNoDatabase indicates no database backend was configured.
	ErrNoDatabase = errors.New("codescholar: no database configured, use WithSQLite or WithPostgres")

	// ErrNoOracle indicates neither an embedding endpoint nor a custom
	// scorer was configured.
	ErrNoOracle = errors.New("codescholar: no oracle configured, use WithOpenAI, WithEmbeddingEndpoint, WithEmbedder or WithScorer")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = service.ErrClientClosed
)

// Client is the main entry point for the codescholar library.
// The background worker starts automatically on creation.
//
// Access resources via struct fields:
//
//	client.Search.Run(ctx, []string{"np.mean"}, "numpy")
//	client.Idioms.Find(ctx, repository.WithRunID(id))
//	client.Tasks.Count(ctx)
type Client struct {
	// Public resource fields (direct service access)
	Search *service.Search
	Tasks  *service.Queue
	Corpus corpus.Store
	Idioms idiom.Store

	// Statuses exposes progress records for queued operations.
	Statuses task.StatusStore

	db          database.Database
	programs    persistence.ProgramStore
	taskStore   persistence.TaskStore
	statusStore persistence.StatusStore
	scoreStore  persistence.ScoreStore

	cache  oracle.Cache
	warmer service.CacheWarmer
	loader dataset.ManifestLoader

	queue    *service.Queue
	worker   *service.Worker
	registry *service.Registry

	prescribedOps task.PrescribedOperations
	closers       []io.Closer

	logger  *slog.Logger
	dataDir string
	apiKeys []string
	closed  atomic.Bool
	mu      sync.Mutex
}

// New creates a new Client with the given options.
// The background worker is started automatically.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.database == databaseUnset {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = config.DefaultLogger()
	}

	dataDir, err := config.PrepareDataDir(cfg.dataDir)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	dbURL, err := buildDatabaseURL(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrate(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}
	if err := persistence.ValidateSchema(db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	// Create stores
	programStore := persistence.NewProgramStore(db)
	idiomStore := persistence.NewIdiomStore(db)
	taskStore := persistence.NewTaskStore(db)
	statusStore := persistence.NewStatusStore(db)

	scoreStore, err := buildScoreStore(ctx, db)
	if err != nil {
		errClose := db.Close()
		return nil, errors.Join(err, errClose)
	}

	// Build the oracle: a custom scorer wins, otherwise an embedding
	// estimator over the configured embedder or endpoint.
	scorer := cfg.scorer
	var warmer service.CacheWarmer
	if scorer == nil {
		embedder := cfg.embedder
		if embedder == nil {
			if cfg.embeddingEndpoint == nil {
				errClose := db.Close()
				return nil, errors.Join(ErrNoOracle, errClose)
			}
			embedder = scoring.NewOpenAIEmbedder(*cfg.embeddingEndpoint)
		}
		estimator := scoring.NewEstimator(embedder, programStore, cfg.oracleCache.Margin(), logger)
		scorer = estimator
		warmer = estimator
	}

	var cache oracle.Cache
	if cfg.oracleCache.Enabled() {
		scoreCache, err := scoring.NewCache(cfg.oracleCache, scoreStore, logger)
		if err != nil {
			errClose := db.Close()
			return nil, errors.Join(fmt.Errorf("score cache: %w", err), errClose)
		}
		cache = scoreCache
	}

	// Assemble the search pipeline
	policy := cfg.stopPolicy
	if policy == nil {
		policy = service.NewCrossoverPolicy()
	}
	growth := service.NewGrowthEngine(scorer, cache, cfg.search, logger)
	selector := service.NewSelector(cfg.search, logger)
	search := service.NewSearch(programStore, idiomStore, growth, selector, policy, cfg.search, logger)

	// Queue and worker with progress tracking. Reporters are wrapped in
	// cooldowns so high-frequency updates write to the database and the
	// log at most once per second per status.
	registry := service.NewRegistry()
	queue := service.NewQueue(taskStore, logger)

	dbCooldown := tracking.NewCooldown(tracking.NewDBReporter(statusStore, logger), time.Second)
	logCooldown := tracking.NewCooldown(tracking.NewLoggingReporter(logger), time.Second)
	factory := &trackerFactory{
		reporters: []tracking.Reporter{dbCooldown, logCooldown},
		logger:    logger,
	}
	worker := service.NewWorker(taskStore, registry, factory, logger)
	if cfg.workerPollPeriod > 0 {
		worker.WithPollPeriod(cfg.workerPollPeriod)
	}

	closers := append(cfg.closers, dbCooldown, logCooldown)

	client := &Client{
		Search:        search,
		Tasks:         queue,
		Corpus:        programStore,
		Idioms:        idiomStore,
		Statuses:      statusStore,
		db:            db,
		programs:      programStore,
		taskStore:     taskStore,
		statusStore:   statusStore,
		scoreStore:    scoreStore,
		cache:         cache,
		warmer:        warmer,
		loader:        dataset.NewManifestLoader(),
		queue:         queue,
		worker:        worker,
		registry:      registry,
		prescribedOps: task.NewPrescribedOperations(warmer != nil),
		closers:       closers,
		logger:        logger,
		dataDir:       dataDir,
		apiKeys:       cfg.apiKeys,
	}

	client.registerHandlers()

	if !cfg.skipHandlerValidation {
		if err := client.validateHandlers(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	worker.Start(ctx)
	return client, nil
}

// Close releases all resources and stops the background worker.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.worker.Stop()

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("codescholar client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// APIKeys returns the configured HTTP API keys.
func (c *Client) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// RunSearch mines idioms for the seed API set synchronously.
func (c *Client) RunSearch(ctx context.Context, seed []string, dataset string) (service.Result, error) {
	if c.closed.Load() {
		return service.Result{}, ErrClientClosed
	}
	return c.Search.Run(ctx, seed, dataset)
}

// EnqueueSearch queues a search run for background execution.
func (c *Client) EnqueueSearch(ctx context.Context, seed []string, dataset string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if len(seed) == 0 {
		return service.ErrInvalidSeed
	}
	payload := map[string]any{
		task.PayloadKeySeed:    strings.Join(seed, ","),
		task.PayloadKeyDataset: dataset,
	}
	return c.queue.EnqueueOperations(ctx, c.prescribedOps.RunSearch(), task.PriorityUserInitiated, payload)
}

// IngestManifest loads a dataset manifest into the corpus synchronously and
// returns the number of programs stored.
func (c *Client) IngestManifest(ctx context.Context, path string) (int, error) {
	if c.closed.Load() {
		return 0, ErrClientClosed
	}
	programs, err := c.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("load manifest: %w", err)
	}
	for _, p := range programs {
		if err := c.programs.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("save program %s: %w", p.ID(), err)
		}
	}
	return len(programs), nil
}

// EnqueueIngest queues a manifest ingest (and, when an estimator oracle is
// configured, a cache warm-up) for background execution.
func (c *Client) EnqueueIngest(ctx context.Context, path string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	payload := map[string]any{task.PayloadKeyManifest: path}
	return c.queue.EnqueueOperations(ctx, c.prescribedOps.IngestDataset(), task.PriorityNormal, payload)
}

// FlushCache discards every cached oracle score.
func (c *Client) FlushCache(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if c.cache == nil {
		return nil
	}
	return c.cache.Flush(ctx)
}

// buildDatabaseURL constructs the database URL from configuration.
func buildDatabaseURL(cfg *clientConfig) (string, error) {
	switch cfg.database {
	case databaseSQLite:
		return "sqlite:///" + cfg.dbPath, nil
	case databasePostgres:
		return cfg.dbDSN, nil
	default:
		return "", ErrNoDatabase
	}
}

// buildScoreStore creates the dialect-appropriate durable score store. The
// pgvector store needs its own migration because the vector column type
// requires the extension.
func buildScoreStore(ctx context.Context, db database.Database) (persistence.ScoreStore, error) {
	if db.IsPostgres() {
		store := persistence.NewPgVectorScoreStore(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate score store: %w", err)
		}
		return store, nil
	}
	return persistence.NewSQLiteScoreStore(db), nil
}
