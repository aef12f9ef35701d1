// Package neo4j implements the graph adapter: one labeled node per entity
// with the entity fields as node properties.
package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/shopspring/decimal"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "neo4j"

const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

var constraints = []string{
	`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT product_id IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
}

const (
	findUserQuery    = `MATCH (u:User {id: $id}) RETURN u.id AS id, u.name AS name, u.email AS email`
	createUserQuery  = `CREATE (u:User {id: $id, name: $name, email: $email})`
	updateUserQuery  = `MATCH (u:User {id: $id}) SET u += $props RETURN u.id AS id, u.name AS name, u.email AS email`
	deleteUserQuery  = `MATCH (u:User {id: $id}) DETACH DELETE u`
	findProductQuery = `MATCH (p:Product {id: $id}) RETURN p.id AS id, p.name AS name, p.price AS price`
	createProdQuery  = `CREATE (p:Product {id: $id, name: $name, price: $price})`
	updateProdQuery  = `MATCH (p:Product {id: $id}) SET p += $props RETURN p.id AS id, p.name AS name, p.price AS price`
	deleteProdQuery  = `MATCH (p:Product {id: $id}) DETACH DELETE p`
)

// Runner executes one Cypher statement in its own transaction and returns
// every record.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config holds the connection parameters
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (r *driverRunner) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	result, err := neo4j.ExecuteQuery(ctx, r.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database))
	if err != nil {
		return nil, err
	}
	return result.Records, nil
}

func (r *driverRunner) VerifyConnectivity(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *driverRunner) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// Store implements ports.Store on Neo4j.
type Store struct {
	runner Runner
}

// Open creates a driver, verifies connectivity and ensures the uniqueness
// constraints exist.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	store := NewStore(&driverRunner{driver: driver, database: cfg.Database})
	if err := store.Ping(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	if err := store.EnsureConstraints(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return store, nil
}

// NewStore wraps a runner.
func NewStore(runner Runner) *Store {
	return &Store{runner: runner}
}

var _ ports.Store = (*Store)(nil)

// EnsureConstraints creates the id uniqueness constraints when missing.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	for _, c := range constraints {
		if _, err := s.runner.Run(ctx, c, nil); err != nil {
			return ports.NewBackendError(Backend, "ensure constraints", err)
		}
	}
	return nil
}

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.runner.VerifyConnectivity(ctx); err != nil {
		return ports.NewBackendError(Backend, "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.runner.Close(ctx)
}

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	records, err := s.runner.Run(ctx, findUserQuery, map[string]any{"id": id})
	if err != nil {
		return nil, ports.NewBackendError(Backend, "find user", err)
	}
	return firstUser(records, "find user")
}

// CreateUser creates the node, then reads it back in a separate statement
// so the caller sees what the engine holds.
func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()

	_, err := s.runner.Run(ctx, createUserQuery, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
	if err != nil {
		return nil, classify("create user", err)
	}

	created, err := s.FindUser(ctx, user.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.NewBackendError(Backend, "create user", fmt.Errorf("node %q missing after create", user.ID))
	}
	return created, err
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	if patch.IsEmpty() {
		return s.FindUser(ctx, id)
	}

	props := map[string]any{}
	if patch.Name != nil {
		props["name"] = *patch.Name
	}
	if patch.Email != nil {
		props["email"] = *patch.Email
	}

	records, err := s.runner.Run(ctx, updateUserQuery, map[string]any{"id": id, "props": props})
	if err != nil {
		return nil, ports.NewBackendError(Backend, "update user", err)
	}
	return firstUser(records, "update user")
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return s.deleteNode(ctx, "delete user", deleteUserQuery, id, func() error {
		_, err := s.FindUser(ctx, id)
		return err
	})
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	records, err := s.runner.Run(ctx, findProductQuery, map[string]any{"id": id})
	if err != nil {
		return nil, ports.NewBackendError(Backend, "find product", err)
	}
	return firstProduct(records, "find product")
}

func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	product = product.WithDefaultID()

	_, err := s.runner.Run(ctx, createProdQuery, map[string]any{
		"id":    product.ID,
		"name":  product.Name,
		"price": product.Price.String(),
	})
	if err != nil {
		return nil, classify("create product", err)
	}

	created, err := s.FindProduct(ctx, product.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ports.NewBackendError(Backend, "create product", fmt.Errorf("node %q missing after create", product.ID))
	}
	return created, err
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	if patch.IsEmpty() {
		return s.FindProduct(ctx, id)
	}

	props := map[string]any{}
	if patch.Name != nil {
		props["name"] = *patch.Name
	}
	if patch.Price != nil {
		props["price"] = patch.Price.String()
	}

	records, err := s.runner.Run(ctx, updateProdQuery, map[string]any{"id": id, "props": props})
	if err != nil {
		return nil, ports.NewBackendError(Backend, "update product", err)
	}
	return firstProduct(records, "update product")
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return s.deleteNode(ctx, "delete product", deleteProdQuery, id, func() error {
		_, err := s.FindProduct(ctx, id)
		return err
	})
}

// deleteNode probes for the node, deletes it and probes again. A node that
// is still findable after the delete is an error, not a success.
func (s *Store) deleteNode(ctx context.Context, op, query, id string, probe func() error) (bool, error) {
	err := probe()
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if _, err := s.runner.Run(ctx, query, map[string]any{"id": id}); err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}

	err = probe()
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, ports.NewBackendError(Backend, op, fmt.Errorf("node %q still present after delete", id))
	}
}

func classify(op string, err error) error {
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == constraintViolation {
		return ports.ErrDuplicateKey
	}
	return ports.NewBackendError(Backend, op, err)
}

func firstUser(records []*neo4j.Record, op string) (*entities.User, error) {
	if len(records) == 0 {
		return nil, ports.ErrNotFound
	}
	rec := records[0]

	var u entities.User
	var err error
	if u.ID, err = stringProp(rec, "id"); err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	if u.Name, err = stringProp(rec, "name"); err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	if u.Email, err = stringProp(rec, "email"); err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	return &u, nil
}

func firstProduct(records []*neo4j.Record, op string) (*entities.Product, error) {
	if len(records) == 0 {
		return nil, ports.ErrNotFound
	}
	rec := records[0]

	var p entities.Product
	var err error
	if p.ID, err = stringProp(rec, "id"); err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	if p.Name, err = stringProp(rec, "name"); err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	raw, err := stringProp(rec, "price")
	if err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	if p.Price, err = decimal.NewFromString(raw); err != nil {
		return nil, ports.NewBackendError(Backend, op, fmt.Errorf("price %q: %w", raw, err))
	}
	return &p, nil
}

func stringProp(rec *neo4j.Record, key string) (string, error) {
	v, isNil, err := neo4j.GetRecordValue[string](rec, key)
	if err != nil {
		return "", err
	}
	if isNil {
		return "", fmt.Errorf("property %q is null", key)
	}
	return v, nil
}
