package ports

import (
	"context"

	"graphgate/domain/core/entities"
)

// UserRepository defines the interface for user persistence
// This is a port in hexagonal architecture - the resolvers don't know about the engine
type UserRepository interface {
	// FindUser retrieves a user by id, or ErrNotFound
	FindUser(ctx context.Context, id string) (*entities.User, error)

	// CreateUser stores a new user and returns the stored value.
	// Engines that enforce id uniqueness fail with ErrDuplicateKey.
	CreateUser(ctx context.Context, user entities.User) (*entities.User, error)

	// UpdateUser applies the patch to an existing user, or fails with ErrNotFound
	UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error)

	// DeleteUser removes a user and reports whether a record was removed
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindProduct retrieves a product by id, or ErrNotFound
	FindProduct(ctx context.Context, id string) (*entities.Product, error)

	// CreateProduct stores a new product. An empty id is filled in by the store.
	CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error)

	// UpdateProduct applies the patch to an existing product, or fails with ErrNotFound
	UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error)

	// DeleteProduct removes a product and reports whether a record was removed
	DeleteProduct(ctx context.Context, id string) (bool, error)
}

// Store is the handle to one storage engine. It is what the connection
// manager hands out to resolvers.
type Store interface {
	UserRepository
	ProductRepository

	// Backend names the engine behind the store (e.g. "mongodb")
	Backend() string

	// Ping checks that the engine is reachable
	Ping(ctx context.Context) error

	// Close releases the engine client
	Close(ctx context.Context) error
}
