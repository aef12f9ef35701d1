package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"graphgate/infrastructure/config"
	"graphgate/infrastructure/persistence"
	"graphgate/infrastructure/persistence/connection"
)

func TestInitializeContainerMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.LogLevel = "error"

	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, c.Collector)
	assert.Nil(t, c.Watcher)
	assert.Equal(t, connection.ModeExclusive, c.Conns.Mode())
	assert.Equal(t, zapcore.ErrorLevel, c.LogLevel.Level())
	assert.Equal(t, []string{"product", "user"}, c.Schema.FieldNames("Query"))

	srv := httptest.NewServer(c.Router.Setup())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"mutation { createProduct(input: {name: \"Pen\", price: \"1.50\"}) { price } }"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInitializeContainerWithConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graphgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o600))

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	cfg.EnableMetrics = false
	cfg.Connection.Mode = "pooled"
	cfg.Connection.PoolSize = 2

	c, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, c.Collector)
	assert.NotNil(t, c.Watcher)
	assert.Equal(t, connection.ModePooled, c.Conns.Mode())

	srv := httptest.NewServer(c.Router.Setup())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInitializeContainerOpenFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "mysql"
	cfg.MySQL.DSN = "not a dsn"

	_, _, err := InitializeContainer(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open mysql store")
}

func TestProvideStoreSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "neo4j"
	cfg.Neo4j.URI = "bolt://localhost:7687"
	cfg.Connection.Mode = "pooled"
	cfg.Connection.PoolSize = 3

	s := ProvideStoreSettings(cfg)
	assert.Equal(t, persistence.StoreTypeNeo4j, s.Type)
	assert.Equal(t, connection.ModePooled, s.Mode)
	assert.Equal(t, 3, s.PoolSize)
	assert.Equal(t, "bolt://localhost:7687", s.Neo4j.URI)
	assert.Equal(t, cfg.SlowOperation, s.Logging.SlowThreshold)
}

func TestProvideLogLevelRejectsUnknown(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "loud"
	_, err := ProvideLogLevel(cfg)
	assert.Error(t, err)
}
