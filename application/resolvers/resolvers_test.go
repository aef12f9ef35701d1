package resolvers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/infrastructure/persistence/memory"
	apperrors "graphgate/pkg/errors"
)

// stubStore fails every product call with err and serves users from memory.
type stubStore struct {
	*memory.Store
	err error
}

func (s stubStore) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	return nil, s.err
}

func (s stubStore) CreateProduct(ctx context.Context, p entities.Product) (*entities.Product, error) {
	return nil, s.err
}

func newResolvers(t *testing.T, store ports.Store) (*UserResolver, *ProductResolver) {
	t.Helper()
	m := connection.NewExclusive[ports.Store](store)
	t.Cleanup(func() { _ = m.Close(context.Background()) })
	return NewUserResolver(m), NewProductResolver(m)
}

func TestUserResolverLifecycle(t *testing.T) {
	ctx := context.Background()
	users, _ := newResolvers(t, memory.NewStore())

	created, err := users.CreateUser(ctx, entities.User{ID: "u1", Name: "Ann", Email: "a@x"})
	require.NoError(t, err)
	assert.Equal(t, entities.User{ID: "u1", Name: "Ann", Email: "a@x"}, *created)

	email := "ann@x"
	updated, err := users.UpdateUser(ctx, "u1", entities.UserPatch{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "ann@x", updated.Email)

	got, err := users.User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)

	deleted, err := users.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = users.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = users.User(ctx, "u1")
	require.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, `user "u1" not found`, apperrors.GetAppError(err).Message)
}

func TestUserResolverOutcomes(t *testing.T) {
	ctx := context.Background()
	users, _ := newResolvers(t, memory.NewStore())

	_, err := users.CreateUser(ctx, entities.User{ID: "u1", Name: "Ann"})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, entities.User{ID: "u1", Name: "Other"})
	require.True(t, apperrors.IsConflict(err))
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, `user "u1" already exists`, appErr.Message)
	assert.Equal(t, ReasonDuplicateKey, appErr.Code)

	name := "Bea"
	_, err = users.UpdateUser(ctx, "nobody", entities.UserPatch{Name: &name})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = users.User(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProductResolverLifecycle(t *testing.T) {
	ctx := context.Background()
	_, products := newResolvers(t, memory.NewStore())

	price := decimal.RequireFromString("1234567890.1234567891")
	created, err := products.CreateProduct(ctx, entities.Product{Name: "Pen", Price: price})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	newPrice := decimal.RequireFromString("0.01")
	updated, err := products.UpdateProduct(ctx, created.ID, entities.ProductPatch{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, "Pen", updated.Name)
	assert.True(t, newPrice.Equal(updated.Price))

	got, err := products.Product(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, updated.Equal(*got))

	deleted, err := products.DeleteProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = products.UpdateProduct(ctx, created.ID, entities.ProductPatch{Price: &newPrice})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProductResolverTranslatesStoreErrors(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		check   func(error) bool
		message string
		cause   interface{}
	}{
		{
			name:    "invalid key",
			err:     ports.ErrInvalidKey,
			check:   apperrors.IsValidation,
			message: `product id "abc" cannot be stored by this backend`,
		},
		{
			name:    "invalid value",
			err:     fmt.Errorf("price 0.123456789012 has more than 10 fractional digits: %w", ports.ErrInvalidValue),
			check:   apperrors.IsValidation,
			message: "product cannot be stored by this backend: price 0.123456789012 has more than 10 fractional digits: invalid value",
		},
		{
			name:    "backend failure",
			err:     ports.NewBackendError("mysql", "find product", cause),
			check:   apperrors.IsBackend,
			message: "backend operation 'find product' failed",
			cause:   "mysql find product: connection reset",
		},
		{
			name:    "unclassified failure",
			err:     cause,
			check:   apperrors.IsBackend,
			message: "backend operation 'find product' failed",
			cause:   "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, products := newResolvers(t, stubStore{Store: memory.NewStore(), err: tt.err})

			_, err := products.Product(ctx, "abc")
			require.Error(t, err)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.message, apperrors.GetAppError(err).Message)
			assert.Equal(t, tt.cause, apperrors.GetAppError(err).Extensions()["cause"])
			if apperrors.IsBackend(err) {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestResolverAcquireFailure(t *testing.T) {
	ctx := context.Background()
	m := connection.NewExclusive[ports.Store](memory.NewStore())
	require.NoError(t, m.Close(ctx))

	users := NewUserResolver(m)
	_, err := users.User(ctx, "u1")
	require.True(t, apperrors.IsBackend(err))
	assert.ErrorIs(t, err, connection.ErrClosed)
}

func TestResolverCancelledWhileWaiting(t *testing.T) {
	m := connection.NewExclusive[ports.Store](memory.NewStore())
	held, err := m.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products := NewProductResolver(m)
	_, err = products.DeleteProduct(ctx, "p1")
	require.True(t, apperrors.IsBackend(err))
	assert.ErrorIs(t, err, context.Canceled)
}
