package memory

import (
	"context"
	"sync"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name the in-memory store reports.
const Backend = "memory"

// Store is a map-backed implementation of ports.Store. It enforces id
// uniqueness on create like the document and relational engines do.
type Store struct {
	mu       sync.RWMutex
	users    map[string]entities.User
	products map[string]entities.Product
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:    make(map[string]entities.User),
		products: make(map[string]entities.Product),
	}
}

var _ ports.Store = (*Store)(nil)

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close(ctx context.Context) error { return nil }

// FindUser retrieves a user by id
func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &u, nil
}

// CreateUser stores a new user
func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return nil, ports.ErrDuplicateKey
	}
	s.users[user.ID] = user
	return &user, nil
}

// UpdateUser applies patch to an existing user
func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	u = u.Apply(patch)
	s.users[id] = u
	return &u, nil
}

// DeleteUser removes a user
func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	return true, nil
}

// FindProduct retrieves a product by id
func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

// CreateProduct stores a new product
func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, ports.ErrDuplicateKey
	}
	s.products[product.ID] = product
	return &product, nil
}

// UpdateProduct applies patch to an existing product
func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	p = p.Apply(patch)
	s.products[id] = p
	return &p, nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}
