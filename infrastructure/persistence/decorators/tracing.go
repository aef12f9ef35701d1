package decorators

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/pkg/observability"
)

// TracingStore is a decorator that opens one span per store call.
type TracingStore struct {
	inner  ports.Store
	tracer *observability.Tracer
}

// NewTracingStore creates a new tracing decorator
func NewTracingStore(inner ports.Store, tracer *observability.Tracer) *TracingStore {
	return &TracingStore{inner: inner, tracer: tracer}
}

var _ ports.Store = (*TracingStore)(nil)

func traced[T any](ctx context.Context, s *TracingStore, op, id string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.StartSpan(ctx, "store."+op,
		attribute.String("db.system", s.inner.Backend()),
		attribute.String("entity.id", id),
	)
	defer span.End()

	result, err := fn(ctx)
	span.SetAttributes(attribute.String("store.outcome", Outcome(err)))
	if err != nil && !expected(err) {
		observability.RecordError(span, err)
	}
	return result, err
}

func (s *TracingStore) Backend() string { return s.inner.Backend() }

func (s *TracingStore) Ping(ctx context.Context) error {
	_, err := traced(ctx, s, "ping", "", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.inner.Ping(ctx)
	})
	return err
}

func (s *TracingStore) Close(ctx context.Context) error { return s.inner.Close(ctx) }

func (s *TracingStore) FindUser(ctx context.Context, id string) (*entities.User, error) {
	return traced(ctx, s, "find_user", id, func(ctx context.Context) (*entities.User, error) {
		return s.inner.FindUser(ctx, id)
	})
}

func (s *TracingStore) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	return traced(ctx, s, "create_user", user.ID, func(ctx context.Context) (*entities.User, error) {
		return s.inner.CreateUser(ctx, user)
	})
}

func (s *TracingStore) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	return traced(ctx, s, "update_user", id, func(ctx context.Context) (*entities.User, error) {
		return s.inner.UpdateUser(ctx, id, patch)
	})
}

func (s *TracingStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	return traced(ctx, s, "delete_user", id, func(ctx context.Context) (bool, error) {
		return s.inner.DeleteUser(ctx, id)
	})
}

func (s *TracingStore) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	return traced(ctx, s, "find_product", id, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.FindProduct(ctx, id)
	})
}

func (s *TracingStore) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	return traced(ctx, s, "create_product", product.ID, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.CreateProduct(ctx, product)
	})
}

func (s *TracingStore) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	return traced(ctx, s, "update_product", id, func(ctx context.Context) (*entities.Product, error) {
		return s.inner.UpdateProduct(ctx, id, patch)
	})
}

func (s *TracingStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return traced(ctx, s, "delete_product", id, func(ctx context.Context) (bool, error) {
		return s.inner.DeleteProduct(ctx, id)
	})
}
