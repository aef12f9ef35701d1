package federation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
	"graphgate/infrastructure/persistence/memory"
	"graphgate/interfaces/graphql/federation"
	"graphgate/interfaces/graphql/subgraphs/products"
	"graphgate/interfaces/graphql/subgraphs/users"
)

func newGateway(t *testing.T) *federation.Schema {
	t.Helper()
	conns := connection.NewExclusive[ports.Store](memory.NewStore())
	t.Cleanup(func() { _ = conns.Close(context.Background()) })

	schema, err := federation.Compose(&federation.Env{Conns: conns, Logger: zap.NewNop()}, users.New(), products.New())
	require.NoError(t, err)
	return schema
}

func exec(t *testing.T, schema *federation.Schema, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	res := schema.Execute(context.Background(), federation.Request{Query: query, Variables: vars})
	require.Empty(t, res.Errors, "unexpected errors: %v", res.Errors)
	return res.Data.(map[string]interface{})
}

func TestComposedFieldNames(t *testing.T) {
	schema := newGateway(t)
	assert.Equal(t, []string{"product", "user"}, schema.FieldNames(federation.RootQuery))
	assert.Equal(t, []string{
		"createProduct", "createUser", "deleteProduct", "deleteUser", "updateProduct", "updateUser",
	}, schema.FieldNames(federation.RootMutation))
}

func TestUserScenario(t *testing.T) {
	schema := newGateway(t)

	data := exec(t, schema, `mutation {
		createUser(input: {id: "u1", name: "Ann", email: "a@x"}) { id name email }
	}`, nil)
	assert.Equal(t, map[string]interface{}{"id": "u1", "name": "Ann", "email": "a@x"}, data["createUser"])

	data = exec(t, schema, `{ user(id: "u1") { name email } }`, nil)
	assert.Equal(t, map[string]interface{}{"name": "Ann", "email": "a@x"}, data["user"])

	data = exec(t, schema, `mutation { updateUser(id: "u1", email: "ann@x") { id name email } }`, nil)
	assert.Equal(t, map[string]interface{}{"id": "u1", "name": "Ann", "email": "ann@x"}, data["updateUser"])

	data = exec(t, schema, `mutation { deleteUser(id: "u1") }`, nil)
	assert.Equal(t, true, data["deleteUser"])

	data = exec(t, schema, `mutation { deleteUser(id: "u1") }`, nil)
	assert.Equal(t, false, data["deleteUser"])

	res := schema.Execute(context.Background(), federation.Request{Query: `{ user(id: "u1") { name } }`})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `user "u1" not found`, res.Errors[0].Message)
	assert.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])
}

func TestUpdateMissingUserDoesNotCreate(t *testing.T) {
	schema := newGateway(t)

	res := schema.Execute(context.Background(), federation.Request{
		Query: `mutation { updateUser(id: "ghost", name: "Boo") { id } }`,
	})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])

	res = schema.Execute(context.Background(), federation.Request{Query: `{ user(id: "ghost") { id } }`})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "NOT_FOUND", res.Errors[0].Extensions["code"])
}

func TestDuplicateUserIsConflict(t *testing.T) {
	schema := newGateway(t)
	create := `mutation { createUser(input: {id: "u1", name: "Ann", email: "a@x"}) { id } }`

	exec(t, schema, create, nil)
	res := schema.Execute(context.Background(), federation.Request{Query: create})
	require.Len(t, res.Errors, 1)
	assert.Equal(t, `user "u1" already exists`, res.Errors[0].Message)
	assert.Equal(t, "CONFLICT", res.Errors[0].Extensions["code"])
	assert.Equal(t, "DUPLICATE_KEY", res.Errors[0].Extensions["reason"])
}

func TestProductPriceKeepsPrecision(t *testing.T) {
	schema := newGateway(t)

	data := exec(t, schema, `mutation($in: NewProductInput!) {
		createProduct(input: $in) { id name price }
	}`, map[string]interface{}{
		"in": map[string]interface{}{"id": "p1", "name": "Pen", "price": "1234567890.1234567891"},
	})
	created := data["createProduct"].(map[string]interface{})
	assert.Equal(t, "1234567890.1234567891", created["price"])

	data = exec(t, schema, `mutation { updateProduct(id: "p1", price: "0.10") { name price } }`, nil)
	assert.Equal(t, map[string]interface{}{"name": "Pen", "price": "0.1"}, data["updateProduct"])

	data = exec(t, schema, `{ product(id: "p1") { price } }`, nil)
	assert.Equal(t, map[string]interface{}{"price": "0.1"}, data["product"])

	data = exec(t, schema, `mutation { deleteProduct(id: "p1") }`, nil)
	assert.Equal(t, true, data["deleteProduct"])
}

func TestProductGeneratedID(t *testing.T) {
	schema := newGateway(t)

	data := exec(t, schema, `mutation { createProduct(input: {name: "Cup", price: 3}) { id price } }`, nil)
	created := data["createProduct"].(map[string]interface{})
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "3", created["price"])
}

func TestInvalidDecimalIsRejectedBeforeResolving(t *testing.T) {
	schema := newGateway(t)

	res := schema.Execute(context.Background(), federation.Request{
		Query: `mutation { createProduct(input: {name: "Cup", price: "not-a-number"}) { id } }`,
	})
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "price")

	res = schema.Execute(context.Background(), federation.Request{
		Query:     `mutation($p: BigDecimal) { updateProduct(id: "p1", price: $p) { id } }`,
		Variables: map[string]interface{}{"p": true},
	})
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0].Message, "$p")
}
