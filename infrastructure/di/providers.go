package di

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"graphgate/application/ports"
	"graphgate/infrastructure/config"
	"graphgate/infrastructure/persistence"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/infrastructure/persistence/decorators"
	"graphgate/infrastructure/persistence/dynamodb"
	"graphgate/infrastructure/persistence/mongodb"
	"graphgate/infrastructure/persistence/natskv"
	"graphgate/infrastructure/persistence/neo4j"
	"graphgate/infrastructure/persistence/redis"
	"graphgate/interfaces/graphql/federation"
	"graphgate/interfaces/graphql/subgraphs/products"
	"graphgate/interfaces/graphql/subgraphs/users"
	"graphgate/interfaces/http/rest"
	"graphgate/pkg/observability"
)

// ProvideLogLevel parses the configured level into an atomic level the
// config watcher can change later.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level: %w", err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "graphgate")), nil
}

// ProvideCollector returns the metrics collector, or nil when metrics are
// disabled.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector("graphgate")
}

// ProvideTracer sets up tracing. The cleanup flushes pending spans.
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracer, func(), error) {
	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.EnableTracing,
		ServiceName: "graphgate",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tracer, cleanup, nil
}

// ProvideStoreSettings maps the configuration onto the store factory
// settings.
func ProvideStoreSettings(cfg *config.Config) persistence.Settings {
	logging := decorators.DefaultLoggingConfig()
	logging.SlowThreshold = cfg.SlowOperation

	return persistence.Settings{
		Type:     persistence.StoreType(cfg.Backend),
		Mode:     connection.Mode(cfg.Connection.Mode),
		PoolSize: cfg.Connection.PoolSize,
		MongoDB: mongodb.Config{
			URI:      cfg.MongoDB.URI,
			Database: cfg.MongoDB.Database,
		},
		Neo4j: neo4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		},
		Redis:    redis.Config{URL: cfg.Redis.URL},
		MySQLDSN: cfg.MySQL.DSN,
		DynamoDB: dynamodb.Config{
			Table:       cfg.DynamoDB.Table,
			Region:      cfg.DynamoDB.Region,
			Endpoint:    cfg.DynamoDB.Endpoint,
			CreateTable: cfg.DynamoDB.CreateTable,
		},
		NATS:    natskv.Config{URL: cfg.NATS.URL},
		Logging: logging,
	}
}

// ProvideStoreFactory creates the store factory
func ProvideStoreFactory(logger *zap.Logger, collector *observability.Collector, tracer *observability.Tracer) *persistence.Factory {
	return persistence.NewFactory(logger, collector, tracer)
}

// ProvideConnectionManager opens the configured store. The cleanup closes
// every handle once outstanding leases are released.
func ProvideConnectionManager(
	ctx context.Context,
	cfg *config.Config,
	factory *persistence.Factory,
	settings persistence.Settings,
	logger *zap.Logger,
) (connection.Manager[ports.Store], func(), error) {
	m, err := factory.CreateManager(ctx, settings)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := m.Close(context.Background()); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}
	}
	return connection.WithAcquireTimeout(m, cfg.Connection.AcquireTimeout), cleanup, nil
}

// ProvideEnv builds the dependency context shared by every resolver.
func ProvideEnv(conns connection.Manager[ports.Store], logger *zap.Logger) *federation.Env {
	return &federation.Env{Conns: conns, Logger: logger.Named("graphql")}
}

// ProvideSchema composes the subgraphs the gateway serves.
func ProvideSchema(env *federation.Env) (*federation.Schema, error) {
	return federation.Compose(env, users.New(), products.New())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	schema *federation.Schema,
	conns connection.Manager[ports.Store],
	collector *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(schema, conns, collector, logger, rest.Options{
		EnablePlayground: cfg.EnablePlayground,
		EnableCORS:       cfg.EnableCORS,
		CORSOrigins:      cfg.CORSOrigins,
		Debug:            cfg.IsDevelopment(),
		ReadyTimeout:     cfg.Connection.AcquireTimeout,
	})
}

// ProvideConfigWatcher starts watching the config file for log level
// changes. It returns nil when configuration came from the environment only.
func ProvideConfigWatcher(cfg *config.Config, level zap.AtomicLevel, logger *zap.Logger) (*config.Watcher, func(), error) {
	if cfg.ConfigFile == "" {
		return nil, func() {}, nil
	}

	w, err := config.NewWatcher(cfg.ConfigFile, level, logger)
	if err != nil {
		return nil, nil, err
	}
	w.Start()
	return w, w.Stop, nil
}
