package decorators

import (
	"context"
	"time"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// OperationRecorder receives one observation per store call.
type OperationRecorder interface {
	RecordStoreOperation(backend, operation, outcome string, duration time.Duration)
}

// MetricsStore is a decorator that records operation counts and latency.
type MetricsStore struct {
	inner    ports.Store
	recorder OperationRecorder
}

// NewMetricsStore creates a new metrics decorator
func NewMetricsStore(inner ports.Store, recorder OperationRecorder) *MetricsStore {
	return &MetricsStore{inner: inner, recorder: recorder}
}

var _ ports.Store = (*MetricsStore)(nil)

func measured[T any](ctx context.Context, s *MetricsStore, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	start := time.Now()
	result, err := fn(ctx)
	s.recorder.RecordStoreOperation(s.inner.Backend(), op, Outcome(err), time.Since(start))
	return result, err
}

func (s *MetricsStore) Backend() string { return s.inner.Backend() }

func (s *MetricsStore) Ping(ctx context.Context) error {
	_, err := measured(ctx, s, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Ping(ctx)
	})
	return err
}

func (s *MetricsStore) Close(ctx context.Context) error { return s.inner.Close(ctx) }

func (s *MetricsStore) FindUser(ctx context.Context, id string) (*entities.User, error) {
	return measured(ctx, s, "find_user", func(ctx context.Context) (*entities.User, error) {
		return s.inner.FindUser(ctx, id)
	})
}

func (s *MetricsStore) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	return measured(ctx, s, "create_user", func(ctx context.Context) (*entities.User, error) {
		return s.inner.CreateUser(ctx, user)
	})
}

func (s *MetricsStore) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	return measured(ctx, s, "update_user", func(ctx context.Context) (*entities.User, error) {
		return s.inner.UpdateUser(ctx, id, patch)
	})
}

func (s *MetricsStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	return measured(ctx, s, "delete_user", func(ctx context.Context) (bool, error) {
		return s.inner.DeleteUser(ctx, id)
	})
}

func (s *MetricsStore) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	return measured(ctx, s, "find_product", func(ctx context.Context) (*entities.Product, error) {
		return s.inner.FindProduct(ctx, id)
	})
}

func (s *MetricsStore) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	return measured(ctx, s, "create_product", func(ctx context.Context) (*entities.Product, error) {
		return s.inner.CreateProduct(ctx, product)
	})
}

func (s *MetricsStore) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	return measured(ctx, s, "update_product", func(ctx context.Context) (*entities.Product, error) {
		return s.inner.UpdateProduct(ctx, id, patch)
	})
}

func (s *MetricsStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return measured(ctx, s, "delete_product", func(ctx context.Context) (bool, error) {
		return s.inner.DeleteProduct(ctx, id)
	})
}
