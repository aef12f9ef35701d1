// Package persistence opens the configured storage engine and hands it to
// the rest of the gateway behind a connection manager.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/infrastructure/persistence/decorators"
	"graphgate/infrastructure/persistence/dynamodb"
	"graphgate/infrastructure/persistence/memory"
	"graphgate/infrastructure/persistence/mongodb"
	"graphgate/infrastructure/persistence/mysql"
	"graphgate/infrastructure/persistence/natskv"
	"graphgate/infrastructure/persistence/neo4j"
	"graphgate/infrastructure/persistence/redis"
	"graphgate/pkg/observability"
)

// StoreType represents the type of store implementation.
type StoreType string

const (
	StoreTypeMemory   StoreType = "memory"
	StoreTypeMongoDB  StoreType = "mongodb"
	StoreTypeNeo4j    StoreType = "neo4j"
	StoreTypeRedis    StoreType = "redis"
	StoreTypeMySQL    StoreType = "mysql"
	StoreTypeDynamoDB StoreType = "dynamodb"
	StoreTypeNATS     StoreType = "nats"
)

// Settings selects the engine and how handles to it are shared.
type Settings struct {
	Type     StoreType
	Mode     connection.Mode
	PoolSize int

	MongoDB  mongodb.Config
	Neo4j    neo4j.Config
	Redis    redis.Config
	MySQLDSN string
	DynamoDB dynamodb.Config
	NATS     natskv.Config

	Logging decorators.LoggingConfig
}

// Opener opens one undecorated handle to an engine.
type Opener func(ctx context.Context, s Settings) (ports.Store, error)

// Factory creates stores and the connection manager that shares them.
type Factory struct {
	logger    *zap.Logger
	collector *observability.Collector
	tracer    *observability.Tracer
	openers   map[StoreType]Opener
}

// NewFactory creates a factory knowing every built-in engine. collector and
// tracer may be nil, in which case the matching decorator is skipped.
func NewFactory(logger *zap.Logger, collector *observability.Collector, tracer *observability.Tracer) *Factory {
	f := &Factory{
		logger:    logger,
		collector: collector,
		tracer:    tracer,
		openers:   make(map[StoreType]Opener),
	}

	shared := &sharedMemory{}
	f.Register(StoreTypeMemory, shared.open)
	f.Register(StoreTypeMongoDB, func(ctx context.Context, s Settings) (ports.Store, error) {
		return mongodb.Open(ctx, s.MongoDB)
	})
	f.Register(StoreTypeNeo4j, func(ctx context.Context, s Settings) (ports.Store, error) {
		return neo4j.Open(ctx, s.Neo4j)
	})
	f.Register(StoreTypeRedis, func(ctx context.Context, s Settings) (ports.Store, error) {
		return redis.Open(ctx, s.Redis)
	})
	f.Register(StoreTypeMySQL, func(ctx context.Context, s Settings) (ports.Store, error) {
		return mysql.Open(ctx, s.MySQLDSN)
	})
	f.Register(StoreTypeDynamoDB, func(ctx context.Context, s Settings) (ports.Store, error) {
		return dynamodb.Open(ctx, s.DynamoDB)
	})
	f.Register(StoreTypeNATS, func(ctx context.Context, s Settings) (ports.Store, error) {
		return natskv.Open(ctx, s.NATS)
	})
	return f
}

// Register adds or replaces the opener for a store type.
func (f *Factory) Register(t StoreType, open Opener) {
	f.openers[t] = open
}

// GetSupportedTypes returns the list of supported store types.
func (f *Factory) GetSupportedTypes() []string {
	types := make([]string, 0, len(f.openers))
	for t := range f.openers {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return types
}

// CreateStore opens one handle and wraps it with the configured decorators.
func (f *Factory) CreateStore(ctx context.Context, s Settings) (ports.Store, error) {
	open, ok := f.openers[s.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported store type: %q", s.Type)
	}

	store, err := open(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", s.Type, err)
	}
	return f.decorate(store, s), nil
}

func (f *Factory) decorate(store ports.Store, s Settings) ports.Store {
	if f.collector != nil {
		store = decorators.NewMetricsStore(store, f.collector)
	}
	if f.tracer != nil {
		store = decorators.NewTracingStore(store, f.tracer)
	}
	return decorators.NewLoggingStore(store, f.logger, s.Logging)
}

// CreateManager opens the handles the configured mode needs and returns the
// manager sharing them. Pooled handles are opened concurrently; if any fails
// the ones already open are closed.
func (f *Factory) CreateManager(ctx context.Context, s Settings) (connection.Manager[ports.Store], error) {
	opts := []connection.Option[ports.Store]{
		connection.WithCloser[ports.Store](func(ctx context.Context, store ports.Store) error {
			return store.Close(ctx)
		}),
	}
	if f.collector != nil {
		opts = append(opts, connection.WithObserver[ports.Store](f.collector))
	}

	switch s.Mode {
	case connection.ModeExclusive, "":
		store, err := f.CreateStore(ctx, s)
		if err != nil {
			return nil, err
		}
		f.logger.Info("store opened", zap.String("backend", store.Backend()), zap.String("mode", string(connection.ModeExclusive)))
		return connection.NewExclusive(store, opts...), nil

	case connection.ModePooled:
		if s.PoolSize < 1 {
			return nil, fmt.Errorf("pool size must be at least 1, got %d", s.PoolSize)
		}
		stores, err := f.openAll(ctx, s)
		if err != nil {
			return nil, err
		}
		f.logger.Info("store pool opened",
			zap.String("backend", stores[0].Backend()),
			zap.String("mode", string(connection.ModePooled)),
			zap.Int("size", len(stores)))
		return connection.NewPool(stores, opts...), nil

	default:
		return nil, fmt.Errorf("unsupported connection mode: %q", s.Mode)
	}
}

func (f *Factory) openAll(ctx context.Context, s Settings) ([]ports.Store, error) {
	stores := make([]ports.Store, s.PoolSize)
	g, gctx := errgroup.WithContext(ctx)
	for i := range stores {
		g.Go(func() error {
			store, err := f.CreateStore(gctx, s)
			if err != nil {
				return err
			}
			stores[i] = store
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var closeErrs []error
		for _, store := range stores {
			if store != nil {
				closeErrs = append(closeErrs, store.Close(context.WithoutCancel(ctx)))
			}
		}
		return nil, errors.Join(append([]error{err}, closeErrs...)...)
	}
	return stores, nil
}

// sharedMemory hands every pooled handle the same map-backed store so all
// of them see one data set.
type sharedMemory struct {
	once  sync.Once
	store *memory.Store
}

func (m *sharedMemory) open(ctx context.Context, _ Settings) (ports.Store, error) {
	m.once.Do(func() { m.store = memory.NewStore() })
	return m.store, nil
}
