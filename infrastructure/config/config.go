package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"graphgate/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required,hostname_port"`
	Environment   string `yaml:"environment" validate:"oneof=development test staging production"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Storage
	Backend    string           `yaml:"backend" validate:"oneof=memory mongodb neo4j redis mysql dynamodb nats"`
	Connection ConnectionConfig `yaml:"connection"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
	Neo4j      Neo4jConfig      `yaml:"neo4j"`
	Redis      RedisConfig      `yaml:"redis"`
	MySQL      MySQLConfig      `yaml:"mysql"`
	DynamoDB   DynamoDBConfig   `yaml:"dynamodb"`
	NATS       NATSConfig       `yaml:"nats"`

	// Feature flags
	EnablePlayground bool `yaml:"enable_playground"`
	EnableMetrics    bool `yaml:"enable_metrics"`
	EnableTracing    bool `yaml:"enable_tracing"`
	EnableCORS       bool `yaml:"enable_cors"`

	CORSOrigins  []string `yaml:"cors_origins"`
	OTLPEndpoint string   `yaml:"otlp_endpoint" validate:"required_if=EnableTracing true"`

	// SlowOperation is the store call duration above which a warning is logged.
	SlowOperation time.Duration `yaml:"slow_operation" validate:"gte=0"`

	// ConfigFile is the YAML file the configuration was read from, if any.
	ConfigFile string `yaml:"-"`
}

// ConnectionConfig controls how store handles are shared.
type ConnectionConfig struct {
	Mode           string        `yaml:"mode" validate:"oneof=exclusive pooled"`
	PoolSize       int           `yaml:"pool_size" validate:"gte=1,lte=256"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" validate:"gte=0"`
}

type MongoDBConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type MySQLConfig struct {
	DSN string `yaml:"dsn"`
}

type DynamoDBConfig struct {
	Table       string `yaml:"table"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	CreateTable bool   `yaml:"create_table"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		ServerAddress: "127.0.0.1:8080",
		Environment:   "development",
		LogLevel:      "info",
		Backend:       "memory",
		Connection: ConnectionConfig{
			Mode:           "exclusive",
			PoolSize:       4,
			AcquireTimeout: 5 * time.Second,
		},
		MongoDB:       MongoDBConfig{Database: "graphgate"},
		Neo4j:         Neo4jConfig{Username: "neo4j", Database: "neo4j"},
		DynamoDB:      DynamoDBConfig{Table: "graphgate", Region: "us-east-1"},
		EnableMetrics: true,
		EnableCORS:    true,
		CORSOrigins:   []string{"http://localhost:3000"},
		SlowOperation: time.Second,
	}
}

// LoadConfig loads configuration from defaults, then the YAML file named by
// CONFIG_FILE, then environment variables, and validates the result.
func LoadConfig() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is LoadConfig with an explicit file path. An empty path skips the
// file layer.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := cfg.loadEnvironmentVariables(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentVariables overlays environment variables on the
// configuration. Variables that are set but cannot be parsed are errors.
func (c *Config) loadEnvironmentVariables() error {
	e := &envReader{}

	e.str("SERVER_ADDRESS", &c.ServerAddress)
	e.str("ENVIRONMENT", &c.Environment)
	e.str("LOG_LEVEL", &c.LogLevel)

	e.str("BACKEND", &c.Backend)
	e.str("CONNECTION_MODE", &c.Connection.Mode)
	e.int("POOL_SIZE", &c.Connection.PoolSize)
	e.duration("ACQUIRE_TIMEOUT", &c.Connection.AcquireTimeout)

	e.str("MONGODB_URI", &c.MongoDB.URI)
	e.str("MONGODB_DATABASE", &c.MongoDB.Database)
	e.str("NEO4J_URI", &c.Neo4j.URI)
	e.str("NEO4J_USERNAME", &c.Neo4j.Username)
	e.str("NEO4J_PASSWORD", &c.Neo4j.Password)
	e.str("NEO4J_DATABASE", &c.Neo4j.Database)
	e.str("REDIS_URL", &c.Redis.URL)
	e.str("MYSQL_DSN", &c.MySQL.DSN)
	e.str("DYNAMODB_TABLE", &c.DynamoDB.Table)
	e.str("AWS_REGION", &c.DynamoDB.Region)
	e.str("DYNAMODB_ENDPOINT", &c.DynamoDB.Endpoint)
	e.bool("DYNAMODB_CREATE_TABLE", &c.DynamoDB.CreateTable)
	e.str("NATS_URL", &c.NATS.URL)

	e.bool("ENABLE_PLAYGROUND", &c.EnablePlayground)
	e.bool("ENABLE_METRICS", &c.EnableMetrics)
	e.bool("ENABLE_TRACING", &c.EnableTracing)
	e.bool("ENABLE_CORS", &c.EnableCORS)
	e.list("CORS_ORIGINS", &c.CORSOrigins)
	e.str("OTLP_ENDPOINT", &c.OTLPEndpoint)
	e.duration("SLOW_OPERATION", &c.SlowOperation)

	return errors.Join(e.errs...)
}

// Validate checks the struct tags and that the selected backend has what it
// needs to connect.
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	var missing string
	switch c.Backend {
	case "mongodb":
		if c.MongoDB.URI == "" {
			missing = "MONGODB_URI"
		}
	case "neo4j":
		if c.Neo4j.URI == "" {
			missing = "NEO4J_URI"
		}
	case "redis":
		if c.Redis.URL == "" {
			missing = "REDIS_URL"
		}
	case "mysql":
		if c.MySQL.DSN == "" {
			missing = "MYSQL_DSN"
		}
	case "dynamodb":
		if c.DynamoDB.Table == "" {
			missing = "DYNAMODB_TABLE"
		}
	case "nats":
		if c.NATS.URL == "" {
			missing = "NATS_URL"
		}
	}
	if missing != "" {
		return fmt.Errorf("%s is required for backend %s", missing, c.Backend)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

type envReader struct {
	errs []error
}

func (e *envReader) str(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func (e *envReader) bool(key string, dst *bool) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	default:
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a boolean", key, value))
	}
}

func (e *envReader) int(key string, dst *int) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not an integer", key, value))
		return
	}
	*dst = n
}

func (e *envReader) duration(key string, dst *time.Duration) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %q is not a duration", key, value))
		return
	}
	*dst = d
}

func (e *envReader) list(key string, dst *[]string) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
