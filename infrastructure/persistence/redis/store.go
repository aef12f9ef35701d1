// Package redis stores entities as JSON members of one Redis set per entity
// type. The engine has no secondary index here, so every lookup scans the
// whole set and filters by id.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "redis"

// Config holds the connection parameters
type Config struct {
	URL         string
	UsersKey    string
	ProductsKey string
}

// Store implements ports.Store on top of Redis sets.
//
// Create does not enforce uniqueness: creating an id that already exists
// replaces the stored member.
type Store struct {
	client      *redis.Client
	usersKey    string
	productsKey string
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

// Open connects to the server described by cfg.URL and checks it answers.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	store := NewStore(redis.NewClient(opts), cfg)
	if err := store.Ping(ctx); err != nil {
		_ = store.client.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing client.
func NewStore(client *redis.Client, cfg Config) *Store {
	if cfg.UsersKey == "" {
		cfg.UsersKey = "users"
	}
	if cfg.ProductsKey == "" {
		cfg.ProductsKey = "products"
	}
	return &Store{client: client, usersKey: cfg.UsersKey, productsKey: cfg.ProductsKey}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return ports.NewBackendError(Backend, "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	_, rec, err := findMember[userRecord](ctx, s.client, s.usersKey, id, "find user")
	if err != nil {
		return nil, err
	}
	return rec.toEntity(), nil
}

func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()
	rec := userRecord{ID: user.ID, Name: user.Name, Email: user.Email}

	err := s.replace(ctx, s.usersKey, "create user", func(tx *redis.Tx) (string, any, error) {
		old, _, err := findMember[userRecord](ctx, tx, s.usersKey, user.ID, "create user")
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return "", nil, err
		}
		return old, rec, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	var updated *entities.User

	err := s.replace(ctx, s.usersKey, "update user", func(tx *redis.Tx) (string, any, error) {
		old, rec, err := findMember[userRecord](ctx, tx, s.usersKey, id, "update user")
		if err != nil {
			return "", nil, err
		}
		u := rec.toEntity().Apply(patch)
		updated = &u
		return old, userRecord{ID: u.ID, Name: u.Name, Email: u.Email}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return deleteMember[userRecord](ctx, s.client, s.usersKey, id, "delete user")
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	_, rec, err := findMember[productRecord](ctx, s.client, s.productsKey, id, "find product")
	if err != nil {
		return nil, err
	}
	return rec.toEntity()
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()
	rec := newProductRecord(product)

	err := s.replace(ctx, s.productsKey, "create product", func(tx *redis.Tx) (string, any, error) {
		old, _, err := findMember[productRecord](ctx, tx, s.productsKey, product.ID, "create product")
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return "", nil, err
		}
		return old, rec, nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	var updated *entities.Product

	err := s.replace(ctx, s.productsKey, "update product", func(tx *redis.Tx) (string, any, error) {
		old, rec, err := findMember[productRecord](ctx, tx, s.productsKey, id, "update product")
		if err != nil {
			return "", nil, err
		}
		current, err := rec.toEntity()
		if err != nil {
			return "", nil, err
		}
		p := current.Apply(patch)
		updated = &p
		return old, newProductRecord(p), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return deleteMember[productRecord](ctx, s.client, s.productsKey, id, "delete product")
}

// replace swaps one set member for another inside a WATCH/MULTI block.
// build returns the member to remove (empty when there is none) and the
// record to add. A concurrent writer makes the transaction fail; that is
// reported, not retried.
func (s *Store) replace(ctx context.Context, key, op string, build func(tx *redis.Tx) (string, any, error)) error {
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		old, rec, err := build(tx)
		if err != nil {
			return err
		}
		member, err := json.Marshal(rec)
		if err != nil {
			return ports.NewBackendError(Backend, op, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if old != "" {
				pipe.SRem(ctx, key, old)
			}
			pipe.SAdd(ctx, key, member)
			return nil
		})
		return err
	}, key)

	if err == nil || errors.Is(err, ports.ErrNotFound) || ports.IsBackendError(err) {
		return err
	}
	return ports.NewBackendError(Backend, op, err)
}

// setClient is the part of the client API the scans need. Both *redis.Client
// and *redis.Tx satisfy it.
type setClient interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
}

type identified interface {
	userRecord | productRecord
}

func recordID[R identified](r R) string {
	switch v := any(r).(type) {
	case userRecord:
		return v.ID
	case productRecord:
		return v.ID
	}
	return ""
}

// findMember scans the set at key and returns the raw member and decoded
// record whose id matches.
func findMember[R identified](ctx context.Context, c setClient, key, id, op string) (string, R, error) {
	var zero R

	members, err := c.SMembers(ctx, key).Result()
	if err != nil {
		return "", zero, ports.NewBackendError(Backend, op, err)
	}

	for _, m := range members {
		var rec R
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			return "", zero, ports.NewBackendError(Backend, op, fmt.Errorf("decode member of %s: %w", key, err))
		}
		if recordID(rec) == id {
			return m, rec, nil
		}
	}
	return "", zero, ports.ErrNotFound
}

func deleteMember[R identified](ctx context.Context, c setClient, key, id, op string) (bool, error) {
	member, _, err := findMember[R](ctx, c, key, id, op)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	n, err := c.SRem(ctx, key, member).Result()
	if err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}
	return n > 0, nil
}

func (r userRecord) toEntity() *entities.User {
	return &entities.User{ID: r.ID, Name: r.Name, Email: r.Email}
}

func newProductRecord(p entities.Product) productRecord {
	return productRecord{ID: p.ID, Name: p.Name, Price: p.Price.String()}
}

func (r productRecord) toEntity() (*entities.Product, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, ports.NewBackendError(Backend, "decode product", fmt.Errorf("price %q: %w", r.Price, err))
	}
	return &entities.Product{ID: r.ID, Name: r.Name, Price: price}, nil
}
