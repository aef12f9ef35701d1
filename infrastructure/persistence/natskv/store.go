// Package natskv implements the key-value adapter on NATS JetStream
// key-value buckets, one bucket per entity type keyed by id.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "nats"

// Bucket is the part of jetstream.KeyValue the store uses.
type Bucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Create(ctx context.Context, key string, value []byte) (uint64, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error
}

// Config holds the connection parameters
type Config struct {
	URL            string
	UsersBucket    string
	ProductsBucket string
}

// Store implements ports.Store on two KV buckets. Update and delete are
// revision checked; a concurrent writer makes them fail, they are not
// retried.
type Store struct {
	users    Bucket
	products Bucket
	conn     *nats.Conn
}

type userRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type productRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Open connects to NATS and binds (creating if needed) both buckets.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.UsersBucket == "" {
		cfg.UsersBucket = "users"
	}
	if cfg.ProductsBucket == "" {
		cfg.ProductsBucket = "products"
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("graphgate"))
	if err != nil {
		return nil, ports.NewBackendError(Backend, "connect", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, ports.NewBackendError(Backend, "jetstream", err)
	}

	users, err := bucket(ctx, js, cfg.UsersBucket)
	if err != nil {
		nc.Close()
		return nil, err
	}
	products, err := bucket(ctx, js, cfg.ProductsBucket)
	if err != nil {
		nc.Close()
		return nil, err
	}

	store := NewStore(users, products)
	store.conn = nc
	return store, nil
}

// bucket binds an existing bucket or creates it.
func bucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, ports.NewBackendError(Backend, "bind bucket "+name, err)
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "graphgate " + name,
		History:     1,
	})
	if errors.Is(err, jetstream.ErrBucketExists) {
		kv, err = js.KeyValue(ctx, name)
	}
	if err != nil {
		return nil, ports.NewBackendError(Backend, "create bucket "+name, err)
	}
	return kv, nil
}

// NewStore wraps two bound buckets.
func NewStore(users, products Bucket) *Store {
	return &Store{users: users, products: products}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return ctx.Err()
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return ports.NewBackendError(Backend, "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	var rec userRecord
	if _, err := get(ctx, s.users, id, "find user", &rec); err != nil {
		return nil, err
	}
	return rec.toEntity(), nil
}

func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()
	rec := userRecord{ID: user.ID, Name: user.Name, Email: user.Email}

	if err := create(ctx, s.users, user.ID, "create user", rec); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	var rec userRecord
	rev, err := get(ctx, s.users, id, "update user", &rec)
	if err != nil {
		return nil, err
	}

	u := rec.toEntity().Apply(patch)
	if patch.IsEmpty() {
		return &u, nil
	}
	if err := update(ctx, s.users, id, rev, "update user", userRecord{ID: u.ID, Name: u.Name, Email: u.Email}); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return remove(ctx, s.users, id, "delete user")
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	var rec productRecord
	if _, err := get(ctx, s.products, id, "find product", &rec); err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()
	rec := productRecord{ID: product.ID, Name: product.Name, Price: product.Price.String()}

	if err := create(ctx, s.products, product.ID, "create product", rec); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	var rec productRecord
	rev, err := get(ctx, s.products, id, "update product", &rec)
	if err != nil {
		return nil, err
	}

	current, err := rec.toEntity()
	if err != nil {
		return nil, err
	}
	p := current.Apply(patch)
	if patch.IsEmpty() {
		return &p, nil
	}

	next := productRecord{ID: p.ID, Name: p.Name, Price: p.Price.String()}
	if err := update(ctx, s.products, id, rev, "update product", next); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return remove(ctx, s.products, id, "delete product")
}

// get decodes the entry at id into out and returns its revision. Ids that
// are not valid keys cannot exist, so they read as not found.
func get(ctx context.Context, b Bucket, id, op string, out any) (uint64, error) {
	entry, err := b.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrInvalidKey) {
		return 0, ports.ErrNotFound
	}
	if err != nil {
		return 0, ports.NewBackendError(Backend, op, err)
	}
	if err := json.Unmarshal(entry.Value(), out); err != nil {
		return 0, ports.NewBackendError(Backend, op, fmt.Errorf("decode %s: %w", id, err))
	}
	return entry.Revision(), nil
}

func create(ctx context.Context, b Bucket, id, op string, rec any) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}

	_, err = b.Create(ctx, id, value)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jetstream.ErrKeyExists):
		return ports.ErrDuplicateKey
	case errors.Is(err, jetstream.ErrInvalidKey):
		return fmt.Errorf("id %q is not a valid key: %w", id, ports.ErrInvalidKey)
	default:
		return ports.NewBackendError(Backend, op, err)
	}
}

func update(ctx context.Context, b Bucket, id string, rev uint64, op string, rec any) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	if _, err := b.Update(ctx, id, value, rev); err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	return nil
}

func remove(ctx context.Context, b Bucket, id, op string) (bool, error) {
	entry, err := b.Get(ctx, id)
	if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrInvalidKey) {
		return false, nil
	}
	if err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}

	if err := b.Delete(ctx, id, jetstream.LastRevision(entry.Revision())); err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}
	return true, nil
}

func (r userRecord) toEntity() *entities.User {
	return &entities.User{ID: r.ID, Name: r.Name, Email: r.Email}
}

func (r productRecord) toEntity() (*entities.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, ports.NewBackendError(Backend, "decode product", fmt.Errorf("price %q: %w", r.Price, err))
	}
	return &entities.Product{ID: r.ID, Name: r.Name, Price: price}, nil
}
