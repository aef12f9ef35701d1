// Package mongodb implements the document adapter. Each entity is one
// document addressed by its own id field, not by _id.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "mongodb"

const (
	usersCollection    = "users"
	productsCollection = "products"
)

// Config holds the connection parameters
type Config struct {
	URI      string
	Database string
}

// Store implements ports.Store on MongoDB.
type Store struct {
	db       *mongo.Database
	users    *mongo.Collection
	products *mongo.Collection
}

type userDoc struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type productDoc struct {
	ID    string               `bson:"id"`
	Name  string               `bson:"name"`
	Price primitive.Decimal128 `bson:"price"`
}

// Open connects, pings the primary and ensures the unique id indexes.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	store := NewStore(client.Database(cfg.Database))
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// NewStore uses the users and products collections of db.
func NewStore(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
	}
}

var _ ports.Store = (*Store)(nil)

// EnsureIndexes creates a unique index on the id field of both collections.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, coll := range []*mongo.Collection{s.users, s.products} {
		if _, err := coll.Indexes().CreateOne(ctx, idx); err != nil {
			return ports.NewBackendError(Backend, "ensure indexes", err)
		}
	}
	return nil
}

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return ports.NewBackendError(Backend, "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	var doc userDoc
	if err := findOne(ctx, s.users, id, "find user", &doc); err != nil {
		return nil, err
	}
	return doc.toEntity(), nil
}

func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()
	doc := userDoc{ID: user.ID, Name: user.Name, Email: user.Email}

	if err := insert(ctx, s.users, "create user", doc); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	if patch.IsEmpty() {
		return s.FindUser(ctx, id)
	}

	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *patch.Email})
	}

	var doc userDoc
	if err := updateOne(ctx, s.users, id, set, "update user", &doc); err != nil {
		return nil, err
	}
	return doc.toEntity(), nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return deleteOne(ctx, s.users, id, "delete user")
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	var doc productDoc
	if err := findOne(ctx, s.products, id, "find product", &doc); err != nil {
		return nil, err
	}
	return doc.toEntity()
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()
	price, err := toDecimal128(product.Price)
	if err != nil {
		return nil, err
	}

	doc := productDoc{ID: product.ID, Name: product.Name, Price: price}
	if err := insert(ctx, s.products, "create product", doc); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	if patch.IsEmpty() {
		return s.FindProduct(ctx, id)
	}

	set := bson.D{}
	if patch.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *patch.Name})
	}
	if patch.Price != nil {
		price, err := toDecimal128(*patch.Price)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "price", Value: price})
	}

	var doc productDoc
	if err := updateOne(ctx, s.products, id, set, "update product", &doc); err != nil {
		return nil, err
	}
	return doc.toEntity()
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return deleteOne(ctx, s.products, id, "delete product")
}

func findOne(ctx context.Context, coll *mongo.Collection, id, op string, out any) error {
	err := coll.FindOne(ctx, bson.D{{Key: "id", Value: id}}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.ErrNotFound
	}
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	return nil
}

func insert(ctx context.Context, coll *mongo.Collection, op string, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ports.ErrDuplicateKey
	}
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	return nil
}

// updateOne sets fields on the matching document and decodes the result.
// Upsert stays off: a missing document is ErrNotFound, never a new one.
func updateOne(ctx context.Context, coll *mongo.Collection, id string, set bson.D, op string, out any) error {
	opts := options.FindOneAndUpdate().
		SetUpsert(false).
		SetReturnDocument(options.After)

	err := coll.FindOneAndUpdate(ctx, bson.D{{Key: "id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.ErrNotFound
	}
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	return nil
}

func deleteOne(ctx context.Context, coll *mongo.Collection, id, op string) (bool, error) {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "id", Value: id}})
	if err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}
	return res.DeletedCount > 0, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("price %s does not fit decimal128 (%v): %w", d, err, ports.ErrInvalidValue)
	}
	return v, nil
}

func (d userDoc) toEntity() *entities.User {
	return &entities.User{ID: d.ID, Name: d.Name, Email: d.Email}
}

func (d productDoc) toEntity() (*entities.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, ports.NewBackendError(Backend, "decode product", fmt.Errorf("price %q: %w", d.Price.String(), err))
	}
	return &entities.Product{ID: d.ID, Name: d.Name, Price: price}, nil
}
