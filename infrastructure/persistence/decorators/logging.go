package decorators

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// LoggingConfig controls what information is logged
type LoggingConfig struct {
	LogErrors     bool          // Log faults at error level
	LogLevel      zapcore.Level // Level for successful operations
	SlowThreshold time.Duration // Log warning for operations slower than this
}

// DefaultLoggingConfig returns sensible defaults for logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogErrors:     true,
		LogLevel:      zapcore.DebugLevel,
		SlowThreshold: time.Second,
	}
}

// LoggingStore is a decorator that logs every store operation with its
// duration and outcome.
type LoggingStore struct {
	inner  ports.Store
	logger *zap.Logger
	config LoggingConfig
}

// NewLoggingStore creates a new logging decorator
func NewLoggingStore(inner ports.Store, logger *zap.Logger, config LoggingConfig) *LoggingStore {
	return &LoggingStore{
		inner:  inner,
		logger: logger.Named("store").With(zap.String("backend", inner.Backend())),
		config: config,
	}
}

var _ ports.Store = (*LoggingStore)(nil)

func logged[T any](ctx context.Context, s *LoggingStore, op, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("id", id),
		zap.String("outcome", Outcome(err)),
		zap.Duration("duration", duration),
	}

	switch {
	case err != nil && !expected(err):
		if s.config.LogErrors {
			s.logger.Error("store operation failed", append(fields, zap.Error(err))...)
		}
	case duration > s.config.SlowThreshold:
		s.logger.Warn("slow store operation", fields...)
	default:
		s.logger.Check(s.config.LogLevel, "store operation completed").Write(fields...)
	}

	return result, err
}

func (s *LoggingStore) Backend() string { return s.inner.Backend() }

func (s *LoggingStore) Ping(ctx context.Context) error {
	_, err := logged(ctx, s, "ping", "", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Ping(ctx)
	})
	return err
}

func (s *LoggingStore) Close(ctx context.Context) error {
	s.logger.Info("closing store")
	return s.inner.Close(ctx)
}

func (s *LoggingStore) FindUser(ctx context.Context, id string) (*entities.User, error) {
	return logged(ctx, s, "find_user", id, func(ctx context.Context) (*entities.User, error) {
		return s.inner.FindUser(ctx, id)
	})
}

func (s *LoggingStore) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	return logged(ctx, s, "create_user", user.ID, func(ctx context.Context) (*entities.User, error) {
		return s.inner.CreateUser(ctx, user)
	})
}

func (s *LoggingStore) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	return logged(ctx, s, "update_user", id, func(ctx context.Context) (*entities.User, error) {
		return s.inner.UpdateUser(ctx, id, patch)
	})
}

func (s *LoggingStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	return logged(ctx, s, "delete_user", id, func(ctx context.Context) (bool, error) {
		return s.inner.DeleteUser(ctx, id)
	})
}

func (s *LoggingStore) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	return logged(ctx, s, "find_product", id, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.FindProduct(ctx, id)
	})
}

func (s *LoggingStore) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	return logged(ctx, s, "create_product", product.ID, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.CreateProduct(ctx, product)
	})
}

func (s *LoggingStore) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	return logged(ctx, s, "update_product", id, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.UpdateProduct(ctx, id, patch)
	})
}

func (s *LoggingStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return logged(ctx, s, "delete_product", id, func(ctx context.Context) (bool, error) {
		return s.inner.DeleteProduct(ctx, id)
	})
}
