// Package dynamodb implements the key-value adapter on a single DynamoDB
// table keyed by PK and SK.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/shopspring/decimal"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "dynamodb"

const (
	userPrefix    = "USER#"
	userSK        = "USER"
	productPrefix = "PRODUCT#"
	productSK     = "PRODUCT"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Config holds the connection parameters
type Config struct {
	Table    string
	Region   string
	Endpoint string

	// Static credentials, used with local endpoints.
	AccessKeyID     string
	SecretAccessKey string

	// CreateTable creates the table on open when it does not exist.
	CreateTable bool
}

// Store implements ports.Store on DynamoDB.
type Store struct {
	client Client
	table  string
}

type userItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
	Name       string `dynamodbav:"Name"`
	Email      string `dynamodbav:"Email"`
}

type productItem struct {
	PK         string                `dynamodbav:"PK"`
	SK         string                `dynamodbav:"SK"`
	EntityType string                `dynamodbav:"EntityType"`
	ID         string                `dynamodbav:"ID"`
	Name       string                `dynamodbav:"Name"`
	Price      attributevalue.Number `dynamodbav:"Price"`
}

// Open builds a client from the default AWS configuration chain and
// checks the table is reachable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	store := NewStore(client, cfg.Table)
	if cfg.CreateTable {
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
	}
	if err := store.Ping(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing client.
func NewStore(client Client, table string) *Store {
	return &Store{client: client, table: table}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return backendError("ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error { return nil }

// EnsureTable creates the table with on-demand billing when it does not
// exist yet.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return backendError("describe table", err)
	}

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("PK"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("SK"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("PK"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("SK"), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return backendError("create table", err)
	}
	return nil
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func userKey(id string) map[string]types.AttributeValue    { return key(userPrefix+id, userSK) }
func productKey(id string) map[string]types.AttributeValue { return key(productPrefix+id, productSK) }

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	var item userItem
	if err := s.getItem(ctx, "find user", userKey(id), &item); err != nil {
		return nil, err
	}
	return item.toEntity(), nil
}

func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()
	item := userItem{
		PK:         userPrefix + user.ID,
		SK:         userSK,
		EntityType: "User",
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
	}
	if err := s.putNew(ctx, "create user", item); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	if patch.IsEmpty() {
		return s.FindUser(ctx, id)
	}

	var update expression.UpdateBuilder
	if patch.Name != nil {
		update = update.Set(expression.Name("Name"), expression.Value(*patch.Name))
	}
	if patch.Email != nil {
		update = update.Set(expression.Name("Email"), expression.Value(*patch.Email))
	}

	var item userItem
	if err := s.updateExisting(ctx, "update user", userKey(id), update, &item); err != nil {
		return nil, err
	}
	return item.toEntity(), nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return s.deleteItem(ctx, "delete user", userKey(id))
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	var item productItem
	if err := s.getItem(ctx, "find product", productKey(id), &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()
	item := productItem{
		PK:         productPrefix + product.ID,
		SK:         productSK,
		EntityType: "Product",
		ID:         product.ID,
		Name:       product.Name,
		Price:      attributevalue.Number(product.Price.String()),
	}
	if err := s.putNew(ctx, "create product", item); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	if patch.IsEmpty() {
		return s.FindProduct(ctx, id)
	}

	var update expression.UpdateBuilder
	if patch.Name != nil {
		update = update.Set(expression.Name("Name"), expression.Value(*patch.Name))
	}
	if patch.Price != nil {
		update = update.Set(expression.Name("Price"), expression.Value(attributevalue.Number(patch.Price.String())))
	}

	var item productItem
	if err := s.updateExisting(ctx, "update product", productKey(id), update, &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return s.deleteItem(ctx, "delete product", productKey(id))
}

func (s *Store) getItem(ctx context.Context, op string, k map[string]types.AttributeValue, out any) error {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            k,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return backendError(op, err)
	}
	if len(result.Item) == 0 {
		return ports.ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return backendError(op, fmt.Errorf("unmarshal item: %w", err))
	}
	return nil
}

// putNew writes item only if no item with the same key exists.
func (s *Store) putNew(ctx context.Context, op string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return backendError(op, fmt.Errorf("marshal item: %w", err))
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return backendError(op, fmt.Errorf("build expression: %w", err))
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ports.ErrDuplicateKey
		}
		return backendError(op, err)
	}
	return nil
}

// updateExisting applies update to the item at k. UpdateItem would create a
// missing item, so the call is guarded by attribute_exists and a failed
// guard is reported as ErrNotFound.
func (s *Store) updateExisting(ctx context.Context, op string, k map[string]types.AttributeValue, update expression.UpdateBuilder, out any) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return backendError(op, fmt.Errorf("build expression: %w", err))
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       k,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ports.ErrNotFound
		}
		return backendError(op, err)
	}

	if err := attributevalue.UnmarshalMap(result.Attributes, out); err != nil {
		return backendError(op, fmt.Errorf("unmarshal item: %w", err))
	}
	return nil
}

func (s *Store) deleteItem(ctx context.Context, op string, k map[string]types.AttributeValue) (bool, error) {
	result, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.table),
		Key:          k,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, backendError(op, err)
	}
	return len(result.Attributes) > 0, nil
}

// backendError keeps the service error code visible in the message.
func backendError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		err = fmt.Errorf("%s: %w", apiErr.ErrorCode(), err)
	}
	return ports.NewBackendError(Backend, op, err)
}

func (i userItem) toEntity() *entities.User {
	return &entities.User{ID: i.ID, Name: i.Name, Email: i.Email}
}

func (i productItem) toEntity() (*entities.Product, error) {
	price, err := decimal.NewFromString(string(i.Price))
	if err != nil {
		return nil, ports.NewBackendError(Backend, "decode product", fmt.Errorf("price %q: %w", i.Price, err))
	}
	return &entities.Product{ID: i.ID, Name: i.Name, Price: price}, nil
}
