package persistence

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/infrastructure/persistence/decorators"
	"graphgate/infrastructure/persistence/memory"
	"graphgate/pkg/observability"
)

type closeCounter struct {
	*memory.Store
	closed *atomic.Int32
}

func (c closeCounter) Close(ctx context.Context) error {
	c.closed.Add(1)
	return nil
}

func memorySettings(mode connection.Mode, size int) Settings {
	return Settings{
		Type:     StoreTypeMemory,
		Mode:     mode,
		PoolSize: size,
		Logging:  decorators.DefaultLoggingConfig(),
	}
}

func TestGetSupportedTypes(t *testing.T) {
	f := NewFactory(zap.NewNop(), nil, nil)
	assert.Equal(t, []string{"dynamodb", "memory", "mongodb", "mysql", "nats", "neo4j", "redis"}, f.GetSupportedTypes())
}

func TestCreateStoreUnsupported(t *testing.T) {
	f := NewFactory(zap.NewNop(), nil, nil)
	_, err := f.CreateStore(context.Background(), Settings{Type: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported store type: "cassandra"`)
}

func TestCreateStoreWrapsOpenError(t *testing.T) {
	f := NewFactory(zap.NewNop(), nil, nil)
	cause := errors.New("connection refused")
	f.Register(StoreTypeRedis, func(ctx context.Context, s Settings) (ports.Store, error) {
		return nil, cause
	})

	_, err := f.CreateStore(context.Background(), Settings{Type: StoreTypeRedis})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "open redis store")
}

func TestCreateManagerExclusive(t *testing.T) {
	ctx := context.Background()
	collector := observability.NewCollector("factory")
	f := NewFactory(zap.NewNop(), collector, observability.NewTracer("graphgate"))

	m, err := f.CreateManager(ctx, memorySettings("", 0))
	require.NoError(t, err)
	assert.Equal(t, connection.ModeExclusive, m.Mode())

	_, err = connection.With(ctx, m, func(ctx context.Context, s ports.Store) (*entities.User, error) {
		return s.CreateUser(ctx, entities.User{ID: "u1", Name: "Ann"})
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.StoreOperations.WithLabelValues("memory", "create_user", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(collector.LeasesInUse.WithLabelValues("exclusive")))
	require.NoError(t, m.Close(ctx))
}

func TestCreateManagerPooledSharesMemory(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(zap.NewNop(), nil, nil)

	m, err := f.CreateManager(ctx, memorySettings(connection.ModePooled, 3))
	require.NoError(t, err)
	assert.Equal(t, connection.ModePooled, m.Mode())

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	_, err = first.Handle().CreateProduct(ctx, entities.Product{ID: "p1", Name: "Pen"})
	require.NoError(t, err)
	got, err := second.Handle().FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pen", got.Name)

	first.Release()
	second.Release()
	require.NoError(t, m.Close(ctx))
}

func TestCreateManagerPooledOpensEachHandle(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(zap.NewNop(), nil, nil)

	var opened, closed atomic.Int32
	f.Register(StoreTypeMySQL, func(ctx context.Context, s Settings) (ports.Store, error) {
		opened.Add(1)
		return closeCounter{Store: memory.NewStore(), closed: &closed}, nil
	})

	s := memorySettings(connection.ModePooled, 4)
	s.Type = StoreTypeMySQL
	m, err := f.CreateManager(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int32(4), opened.Load())

	require.NoError(t, m.Close(ctx))
	assert.Equal(t, int32(4), closed.Load())
}

func TestCreateManagerPooledClosesOnFailure(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(zap.NewNop(), nil, nil)

	var opened, closed atomic.Int32
	f.Register(StoreTypeMySQL, func(ctx context.Context, s Settings) (ports.Store, error) {
		if opened.Add(1) == 2 {
			return nil, errors.New("too many connections")
		}
		return closeCounter{Store: memory.NewStore(), closed: &closed}, nil
	})

	s := memorySettings(connection.ModePooled, 3)
	s.Type = StoreTypeMySQL
	_, err := f.CreateManager(ctx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many connections")
	assert.Equal(t, opened.Load()-1, closed.Load())
}

func TestCreateManagerRejectsBadSettings(t *testing.T) {
	f := NewFactory(zap.NewNop(), nil, nil)

	_, err := f.CreateManager(context.Background(), memorySettings(connection.ModePooled, 0))
	assert.ErrorContains(t, err, "pool size must be at least 1")

	_, err = f.CreateManager(context.Background(), memorySettings("shared", 1))
	assert.ErrorContains(t, err, `unsupported connection mode: "shared"`)
}
