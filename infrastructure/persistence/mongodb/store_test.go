package mongodb

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

func mustDecimal128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	d, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return d
}

func TestUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find existing", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "graphgate.users", mtest.FirstBatch, bson.D{
			{Key: "id", Value: "u1"},
			{Key: "name", Value: "Ann"},
			{Key: "email", Value: "a@x.com"},
		}))

		got, err := store.FindUser(ctx, "u1")
		require.NoError(mt, err)
		assert.Equal(mt, &entities.User{ID: "u1", Name: "Ann", Email: "a@x.com"}, got)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "graphgate.users", mtest.FirstBatch))

		_, err := store.FindUser(ctx, "u1")
		assert.ErrorIs(mt, err, ports.ErrNotFound)
	})

	mt.Run("create", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := store.CreateUser(ctx, entities.User{ID: "u1", Name: "Ann", Email: "a@x.com"})
		require.NoError(mt, err)
		assert.Equal(mt, "u1", got.ID)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: graphgate.users index: id_1",
		}))

		_, err := store.CreateUser(ctx, entities.User{ID: "u1", Name: "Ann", Email: "a@x.com"})
		assert.ErrorIs(mt, err, ports.ErrDuplicateKey)
	})

	mt.Run("update existing", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "id", Value: "u1"},
			{Key: "name", Value: "Ann"},
			{Key: "email", Value: "b@x.com"},
		}}))

		email := "b@x.com"
		got, err := store.UpdateUser(ctx, "u1", entities.UserPatch{Email: &email})
		require.NoError(mt, err)
		assert.Equal(mt, "b@x.com", got.Email)
		assert.Equal(mt, "Ann", got.Name)
	})

	mt.Run("update missing does not upsert", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		name := "Ghost"
		_, err := store.UpdateUser(ctx, "u1", entities.UserPatch{Name: &name})
		assert.ErrorIs(mt, err, ports.ErrNotFound)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "findAndModify", started.CommandName)
		upsert, err := started.Command.LookupErr("upsert")
		require.NoError(mt, err)
		assert.False(mt, upsert.Boolean())
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		removed, err := store.DeleteUser(ctx, "u1")
		require.NoError(mt, err)
		assert.True(mt, removed)

		removed, err = store.DeleteUser(ctx, "u1")
		require.NoError(mt, err)
		assert.False(mt, removed)
	})

	mt.Run("command error", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "The server is in quiesce mode and will shut down",
		}))

		_, err := store.FindUser(ctx, "u1")
		assert.True(mt, ports.IsBackendError(err))
	})
}

func TestProducts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("price decodes from decimal128", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "graphgate.products", mtest.FirstBatch, bson.D{
			{Key: "id", Value: "p1"},
			{Key: "name", Value: "Lamp"},
			{Key: "price", Value: mustDecimal128(mt.T, "1234567890.1234567891")},
		}))

		got, err := store.FindProduct(ctx, "p1")
		require.NoError(mt, err)
		assert.Equal(mt, "1234567890.1234567891", got.Price.String())
	})

	mt.Run("create sends decimal128", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		_, err := store.CreateProduct(ctx, entities.Product{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("19.99")})
		require.NoError(mt, err)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		docs := started.Command.Lookup("documents").Array()
		values, err := docs.Values()
		require.NoError(mt, err)
		require.Len(mt, values, 1)
		price := values[0].Document().Lookup("price")
		assert.Equal(mt, bson.TypeDecimal128, price.Type)
	})

	mt.Run("price beyond decimal128 is rejected before the round trip", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		price := decimal.RequireFromString(tooPrecise)

		_, err := store.CreateProduct(ctx, entities.Product{ID: "p1", Name: "Lamp", Price: price})
		assert.ErrorIs(mt, err, ports.ErrInvalidValue)
		assert.False(mt, ports.IsBackendError(err))

		_, err = store.UpdateProduct(ctx, "p1", entities.ProductPatch{Price: &price})
		assert.ErrorIs(mt, err, ports.ErrInvalidValue)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		store := NewStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())

		require.NoError(mt, store.EnsureIndexes(ctx))
	})
}

// 35 significant digits, one more than decimal128 holds.
const tooPrecise = "1.2345678901234567890123456789012345"

func TestToDecimal128(t *testing.T) {
	_, err := toDecimal128(decimal.RequireFromString(tooPrecise))
	assert.ErrorIs(t, err, ports.ErrInvalidValue)

	got, err := toDecimal128(decimal.RequireFromString("-0.000123"))
	require.NoError(t, err)

	back, err := decimal.NewFromString(got.String())
	require.NoError(t, err)
	assert.Equal(t, "-0.000123", back.String())
}
