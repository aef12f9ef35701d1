package dynamodb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/infrastructure/persistence/storetest"
)

// fakeClient keeps items in memory and evaluates the existence conditions
// the store relies on.
type fakeClient struct {
	mu           sync.Mutex
	items        map[string]map[string]types.AttributeValue
	tableMissing bool
	created      *dynamodb.CreateTableInput
	err          error
	lastUpdate   *dynamodb.UpdateItemInput
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: map[string]map[string]types.AttributeValue{}}
}

func itemKey(k map[string]types.AttributeValue) string {
	return k["PK"].(*types.AttributeValueMemberS).Value + "|" + k["SK"].(*types.AttributeValueMemberS).Value
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func ccf() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[itemKey(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	k := itemKey(in.Item)
	if _, exists := f.items[k]; exists && strings.Contains(aws.ToString(in.ConditionExpression), "attribute_not_exists") {
		return nil, ccf()
	}
	f.items[k] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUpdate = in
	if f.err != nil {
		return nil, f.err
	}

	k := itemKey(in.Key)
	item, exists := f.items[k]
	if !exists {
		if strings.Contains(aws.ToString(in.ConditionExpression), "attribute_exists") {
			return nil, ccf()
		}
		item = copyItem(in.Key)
	}
	item = copyItem(item)

	// SET #a = :a, #b = :b
	expr := strings.TrimSpace(aws.ToString(in.UpdateExpression))
	expr = strings.TrimSpace(strings.TrimPrefix(expr, "SET"))
	for _, clause := range strings.Split(expr, ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name := in.ExpressionAttributeNames[strings.TrimSpace(parts[0])]
		item[name] = in.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
	}
	f.items[k] = item

	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	k := itemKey(in.Key)
	old, exists := f.items[k]
	delete(f.items, k)
	if !exists || in.ReturnValues != types.ReturnValueAllOld {
		return &dynamodb.DeleteItemOutput{}, nil
	}
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeClient) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tableMissing {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func (f *fakeClient) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = in
	f.tableMissing = false
	return &dynamodb.CreateTableOutput{}, nil
}

func TestStoreContract(t *testing.T) {
	suite.Run(t, &storetest.Suite{
		Open: func(ctx context.Context, t *testing.T) ports.Store {
			return NewStore(newFakeClient(), "graphgate")
		},
		EnforcesUniqueness: true,
	})
}

func TestItemLayout(t *testing.T) {
	client := newFakeClient()
	store := NewStore(client, "graphgate")
	ctx := context.Background()

	_, err := store.CreateProduct(ctx, entities.Product{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("19.990")})
	require.NoError(t, err)

	item := client.items["PRODUCT#p1|PRODUCT"]
	require.NotNil(t, item)
	price, ok := item["Price"].(*types.AttributeValueMemberN)
	require.True(t, ok, "price must be stored as a number")
	assert.Equal(t, "19.99", price.Value)
	assert.Equal(t, "Product", item["EntityType"].(*types.AttributeValueMemberS).Value)
}

func TestUpdateIsGuardedAgainstUpsert(t *testing.T) {
	client := newFakeClient()
	store := NewStore(client, "graphgate")
	name := "Ghost"

	_, err := store.UpdateUser(context.Background(), "missing", entities.UserPatch{Name: &name})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NotNil(t, client.lastUpdate)
	assert.Contains(t, aws.ToString(client.lastUpdate.ConditionExpression), "attribute_exists")
	assert.Equal(t, types.ReturnValueAllNew, client.lastUpdate.ReturnValues)
	assert.Empty(t, client.items)
}

func TestServiceErrorsAreBackendErrors(t *testing.T) {
	client := newFakeClient()
	client.err = &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
	store := NewStore(client, "graphgate")
	ctx := context.Background()

	_, err := store.FindUser(ctx, "u1")
	assert.True(t, ports.IsBackendError(err))
	assert.Contains(t, err.Error(), "ProvisionedThroughputExceededException")

	_, err = store.CreateUser(ctx, entities.User{ID: "u1"})
	assert.True(t, ports.IsBackendError(err))

	_, err = store.DeleteProduct(ctx, "p1")
	assert.True(t, ports.IsBackendError(err))

	client.err = errors.New("connection reset")
	_, err = store.UpdateProduct(ctx, "p1", entities.ProductPatch{Name: aws.String("x")})
	assert.True(t, ports.IsBackendError(err))
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}

func TestEnsureTable(t *testing.T) {
	client := newFakeClient()
	client.tableMissing = true
	store := NewStore(client, "graphgate")

	assert.True(t, ports.IsBackendError(store.Ping(context.Background())))
	require.NoError(t, store.EnsureTable(context.Background()))
	require.NotNil(t, client.created)
	assert.Equal(t, "graphgate", aws.ToString(client.created.TableName))
	assert.Len(t, client.created.KeySchema, 2)

	assert.NoError(t, store.Ping(context.Background()))
	client.created = nil
	require.NoError(t, store.EnsureTable(context.Background()))
	assert.Nil(t, client.created)
}
