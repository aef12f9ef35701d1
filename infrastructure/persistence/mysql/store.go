// Package mysql implements the relational adapter: one row per entity in the
// users and products tables. Product ids are allocated by the engine.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Backend is the name this store reports.
const Backend = "mysql"

const errDuplicateEntry = 1062

// Bounds of the DECIMAL(38,10) price column.
const (
	priceScale     = 10
	priceIntDigits = 28
)

var priceLimit = decimal.New(1, priceIntDigits)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(38,10) NOT NULL
	)`,
}

// Store implements ports.Store on a MySQL database.
type Store struct {
	db *sql.DB
}

// Open connects with dsn, creates the tables if needed and returns the store.
// The connection reports matched rather than changed rows, so an UPDATE that
// writes identical values still counts as a hit.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	store := NewStore(sql.OpenDB(connector))
	if err := store.Ping(ctx); err != nil {
		_ = store.db.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var _ ports.Store = (*Store)(nil)

// EnsureSchema creates the users and products tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return ports.NewBackendError(Backend, "ensure schema", err)
		}
	}
	return nil
}

func (s *Store) Backend() string { return Backend }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return ports.NewBackendError(Backend, "ping", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) FindUser(ctx context.Context, id string) (*entities.User, error) {
	return findUser(ctx, s.db, id, "find user")
}

func findUser(ctx context.Context, q queryer, id, op string) (*entities.User, error) {
	var u entities.User
	err := q.QueryRowContext(ctx, `SELECT id, name, email FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	user = user.WithDefaultID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email) VALUES (?, ?, ?)`,
		user.ID, user.Name, user.Email)
	if err != nil {
		return nil, classify("create user", err)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	if patch.IsEmpty() {
		return s.FindUser(ctx, id)
	}

	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *patch.Email)
	}
	args = append(args, id)

	var updated *entities.User
	err := s.inTx(ctx, "update user", func(tx *sql.Tx) error {
		if err := execMatched(ctx, tx, "update user",
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return err
		}
		u, err := findUser(ctx, tx, id, "update user")
		updated = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (bool, error) {
	return s.deleteRow(ctx, "delete user", `DELETE FROM users WHERE id = ?`, id)
}

func (s *Store) FindProduct(ctx context.Context, id string) (*entities.Product, error) {
	key, ok := parseKey(id)
	if !ok {
		return nil, ports.ErrNotFound
	}
	return findProduct(ctx, s.db, key, "find product")
}

func findProduct(ctx context.Context, q queryer, key int64, op string) (*entities.Product, error) {
	var (
		id    int64
		p     entities.Product
		price decimal.Decimal
	)
	err := q.QueryRowContext(ctx, `SELECT id, name, price FROM products WHERE id = ?`, key).
		Scan(&id, &p.Name, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, ports.NewBackendError(Backend, op, err)
	}
	p.ID = strconv.FormatInt(id, 10)
	p.Price = price
	return &p, nil
}

// CreateProduct inserts a product. With an empty id the engine allocates
// one and it is returned in the result.
func (s *Store) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	if err := checkPrice(product.Price); err != nil {
		return nil, err
	}
	if product.ID == "" {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO products (name, price) VALUES (?, ?)`,
			product.Name, product.Price.String())
		if err != nil {
			return nil, classify("create product", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, ports.NewBackendError(Backend, "create product", err)
		}
		product.ID = strconv.FormatInt(id, 10)
		return &product, nil
	}

	key, ok := parseKey(product.ID)
	if !ok {
		return nil, fmt.Errorf("product id %q is not a positive integer: %w", product.ID, ports.ErrInvalidKey)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, price) VALUES (?, ?, ?)`,
		key, product.Name, product.Price.String())
	if err != nil {
		return nil, classify("create product", err)
	}
	product.ID = strconv.FormatInt(key, 10)
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	key, ok := parseKey(id)
	if !ok {
		return nil, ports.ErrNotFound
	}
	if patch.IsEmpty() {
		return findProduct(ctx, s.db, key, "update product")
	}

	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return nil, err
		}
		sets = append(sets, "price = ?")
		args = append(args, patch.Price.String())
	}
	args = append(args, key)

	var updated *entities.Product
	err := s.inTx(ctx, "update product", func(tx *sql.Tx) error {
		if err := execMatched(ctx, tx, "update product",
			`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return err
		}
		p, err := findProduct(ctx, tx, key, "update product")
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	key, ok := parseKey(id)
	if !ok {
		return false, nil
	}
	return s.deleteRow(ctx, "delete product", `DELETE FROM products WHERE id = ?`, key)
}

func (s *Store) deleteRow(ctx context.Context, op, query string, arg any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, arg)
	if err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ports.NewBackendError(Backend, op, err)
	}
	return n > 0, nil
}

// execMatched runs an UPDATE and turns "no row matched" into ErrNotFound.
func execMatched(ctx context.Context, tx *sql.Tx, op, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return ports.NewBackendError(Backend, op, err)
	}
	return nil
}

func classify(op string, err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == errDuplicateEntry {
		return ports.ErrDuplicateKey
	}
	return ports.NewBackendError(Backend, op, err)
}

// parseKey accepts the ids AUTO_INCREMENT can hold as given. Zero would make
// the engine allocate a fresh key instead.
func parseKey(id string) (int64, bool) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil || key <= 0 {
		return 0, false
	}
	return key, true
}

// checkPrice rejects prices the column would round or overflow.
func checkPrice(d decimal.Decimal) error {
	if !d.Round(priceScale).Equal(d) {
		return fmt.Errorf("price %s has more than %d fractional digits: %w", d, priceScale, ports.ErrInvalidValue)
	}
	if d.Abs().Cmp(priceLimit) >= 0 {
		return fmt.Errorf("price %s has more than %d integer digits: %w", d, priceIntDigits, ports.ErrInvalidValue)
	}
	return nil
}
