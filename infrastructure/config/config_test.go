package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ServerAddress)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "exclusive", cfg.Connection.Mode)
	assert.Equal(t, 5*time.Second, cfg.Connection.AcquireTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := writeFile(t, `
server_address: 0.0.0.0:9000
log_level: debug
backend: mongodb
connection:
  mode: pooled
  pool_size: 8
  acquire_timeout: 250ms
mongodb:
  uri: mongodb://file:27017
  database: shop
cors_origins: [https://a.example, https://b.example]
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGODB_URI", "mongodb://env:27017")
	t.Setenv("POOL_SIZE", "16")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "0.0.0.0:9000", cfg.ServerAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "pooled", cfg.Connection.Mode)
	assert.Equal(t, 16, cfg.Connection.PoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Connection.AcquireTimeout)
	assert.Equal(t, "mongodb://env:27017", cfg.MongoDB.URI)
	assert.Equal(t, "shop", cfg.MongoDB.Database)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestEnvironmentOverlay(t *testing.T) {
	t.Setenv("BACKEND", "dynamodb")
	t.Setenv("DYNAMODB_TABLE", "shop")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("DYNAMODB_CREATE_TABLE", "yes")
	t.Setenv("ENABLE_PLAYGROUND", "1")
	t.Setenv("ENABLE_METRICS", "false")
	t.Setenv("CORS_ORIGINS", " http://x , ,http://y ")

	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, "dynamodb", cfg.Backend)
	assert.Equal(t, DynamoDBConfig{Table: "shop", Region: "us-east-1", Endpoint: "http://localhost:8000", CreateTable: true}, cfg.DynamoDB)
	assert.True(t, cfg.EnablePlayground)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, []string{"http://x", "http://y"}, cfg.CORSOrigins)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		file    string
		wantErr string
	}{
		{name: "unknown backend", env: map[string]string{"BACKEND": "cassandra"}, wantErr: "backend must be one of"},
		{name: "bad mode", env: map[string]string{"CONNECTION_MODE": "shared"}, wantErr: "connection.mode must be one of"},
		{name: "pool too small", env: map[string]string{"POOL_SIZE": "0"}, wantErr: "connection.poolsize must be at least 1"},
		{name: "pool not a number", env: map[string]string{"POOL_SIZE": "many"}, wantErr: `POOL_SIZE: "many" is not an integer`},
		{name: "bad duration", env: map[string]string{"ACQUIRE_TIMEOUT": "soon"}, wantErr: `ACQUIRE_TIMEOUT: "soon" is not a duration`},
		{name: "bad bool", env: map[string]string{"ENABLE_CORS": "maybe"}, wantErr: `ENABLE_CORS: "maybe" is not a boolean`},
		{name: "bad address", env: map[string]string{"SERVER_ADDRESS": "nowhere"}, wantErr: "serveraddress must be host:port"},
		{name: "missing backend setting", env: map[string]string{"BACKEND": "redis"}, wantErr: "REDIS_URL is required for backend redis"},
		{name: "tracing without endpoint", env: map[string]string{"ENABLE_TRACING": "true"}, wantErr: "otlpendpoint is required"},
		{name: "malformed file", file: "backend: [", wantErr: "parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}

			_, err := LoadFrom(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
