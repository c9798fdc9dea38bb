package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars unsets every variable the config reads so defaults apply.
func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"HOST", "PORT", "DATA_DIR", "DB_URL", "LOG_LEVEL", "LOG_FORMAT",
		"API_KEYS", "WORKER_COUNT", "RESULT_LIMIT",
		"EMBEDDING_ENDPOINT_BASE_URL", "EMBEDDING_ENDPOINT_MODEL",
		"EMBEDDING_ENDPOINT_API_KEY",
		"SEARCH_MIN_IDIOM_SIZE", "SEARCH_MAX_IDIOM_SIZE", "SEARCH_BEAM_WIDTH",
		"SEARCH_SUPPORT_THRESHOLD", "SEARCH_STOP_AT_EQUILIBRIUM",
		"SEARCH_EMIT_ALL_SIZES", "SEARCH_SCORING_WORKERS",
		"SEARCH_NEAR_DUP_DISTANCE", "SEARCH_ALLOWED_NODE_KINDS",
		"ORACLE_CACHE_ENABLED", "ORACLE_CACHE_CAPACITY", "ORACLE_CACHE_MARGIN",
		"REPORTING_LOG_TIME_INTERVAL",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "", cfg.APIKeys)
	assert.Equal(t, 1, cfg.WorkerCount)
	assert.Equal(t, 10, cfg.ResultLimit)

	// Nested struct defaults
	assert.Equal(t, 2, cfg.Search.MinIdiomSize)
	assert.Equal(t, 20, cfg.Search.MaxIdiomSize)
	assert.Equal(t, 10, cfg.Search.BeamWidth)
	assert.Equal(t, 2, cfg.Search.SupportThreshold)
	assert.True(t, cfg.Search.StopAtEquilibrium)
	assert.False(t, cfg.Search.EmitAllSizes)
	assert.True(t, cfg.OracleCache.Enabled)
	assert.Equal(t, 4096, cfg.OracleCache.Capacity)
	assert.Equal(t, 5.0, cfg.Reporting.LogTimeInterval)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals, so this test ensures they stay
	// in sync with the constants in config.go.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
	assert.Equal(t, DefaultResultLimit, cfg.ResultLimit)
	assert.Equal(t, DefaultMinIdiomSize, cfg.Search.MinIdiomSize)
	assert.Equal(t, DefaultMaxIdiomSize, cfg.Search.MaxIdiomSize)
	assert.Equal(t, DefaultBeamWidth, cfg.Search.BeamWidth)
	assert.Equal(t, DefaultSupportThreshold, cfg.Search.SupportThreshold)
	assert.Equal(t, DefaultScoringWorkers, cfg.Search.ScoringWorkers)
	assert.Equal(t, DefaultNearDupDistance, cfg.Search.NearDupDistance)
	assert.Equal(t, DefaultCacheCapacity, cfg.OracleCache.Capacity)
	assert.Equal(t, DefaultOrderMargin, cfg.OracleCache.Margin)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("SEARCH_BEAM_WIDTH", "25")
	t.Setenv("SEARCH_STOP_AT_EQUILIBRIUM", "false")
	t.Setenv("SEARCH_ALLOWED_NODE_KINDS", "call, variable")
	t.Setenv("EMBEDDING_ENDPOINT_MODEL", "text-embedding-3-small")
	t.Setenv("EMBEDDING_ENDPOINT_API_KEY", "sk-test")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 25, cfg.Search.BeamWidth)
	assert.False(t, cfg.Search.StopAtEquilibrium)
	assert.Equal(t, "call, variable", cfg.Search.AllowedNodeKinds)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingEndpoint.Model)
	assert.Equal(t, "sk-test", cfg.EmbeddingEndpoint.APIKey)
}

func TestToAppConfig(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "9191")
	t.Setenv("API_KEYS", "a,b")
	t.Setenv("SEARCH_MAX_IDIOM_SIZE", "12")
	t.Setenv("SEARCH_ALLOWED_NODE_KINDS", "call,variable")
	t.Setenv("EMBEDDING_ENDPOINT_MODEL", "text-embedding-3-small")
	t.Setenv("EMBEDDING_ENDPOINT_TIMEOUT", "15")

	envCfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg := envCfg.ToAppConfig()
	assert.Equal(t, 9191, cfg.Port())
	assert.Equal(t, []string{"a", "b"}, cfg.APIKeys())
	assert.Equal(t, 12, cfg.Search().MaxIdiomSize())
	assert.Equal(t, []string{"call", "variable"}, cfg.Search().AllowedNodeKinds())

	require.NotNil(t, cfg.EmbeddingEndpoint())
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingEndpoint().Model())
	assert.Equal(t, 15*time.Second, cfg.EmbeddingEndpoint().Timeout())
}

func TestToAppConfig_NoEndpointWithoutModel(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("EMBEDDING_ENDPOINT_BASE_URL", "https://api.example.com")

	envCfg, err := LoadFromEnv()
	require.NoError(t, err)

	cfg := envCfg.ToAppConfig()
	assert.Nil(t, cfg.EmbeddingEndpoint(), "endpoint without model is not configured")
}

func TestLoadFromEnvWithPrefix(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("CODESCHOLAR_PORT", "7070")

	cfg, err := LoadFromEnvWithPrefix("CODESCHOLAR")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	clearEnvVars(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SEARCH_BEAM_WIDTH=7\n"), 0o600))

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search().BeamWidth())
}

func TestLoadConfig_MissingDotEnvIsFine(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port())
}
