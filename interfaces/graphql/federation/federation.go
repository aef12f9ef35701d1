// Package federation composes independently written subgraphs into one
// executable GraphQL schema. Each subgraph contributes fields to the Query
// and Mutation roots; composition fails at startup when two subgraphs claim
// the same field.
package federation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"graphgate/application/ports"
	"graphgate/infrastructure/persistence/connection"
)

// Root type names.
const (
	RootQuery    = "Query"
	RootMutation = "Mutation"
)

var (
	// ErrEmptyQuery means no subgraph contributed a query field.
	ErrEmptyQuery = errors.New("composed schema has no query fields")

	// ErrNilEnv means Compose was called without a dependency context.
	ErrNilEnv = errors.New("compose needs a non-nil env")

	// ErrDuplicateSubgraph means two subgraphs share a name.
	ErrDuplicateSubgraph = errors.New("duplicate subgraph name")
)

// Env carries the dependencies every resolve call receives. It is bound once
// by Compose.
type Env struct {
	Conns  connection.Manager[ports.Store]
	Logger *zap.Logger
}

// ResolveFunc resolves one root field.
type ResolveFunc func(env *Env, p graphql.ResolveParams) (interface{}, error)

// Field is a root field contributed by a subgraph.
type Field struct {
	Type        graphql.Output
	Args        graphql.FieldConfigArgument
	Description string
	Resolve     ResolveFunc
}

// OperationSet lists the root fields of one subgraph by name.
type OperationSet struct {
	Query    map[string]*Field
	Mutation map[string]*Field
}

// Subgraph is an independently written slice of the schema.
type Subgraph interface {
	Name() string
	Operations() OperationSet
}

// CollisionError reports a root field declared by more than one subgraph.
type CollisionError struct {
	Root      string
	Field     string
	Subgraphs []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("field %s.%s is declared by subgraphs %s", e.Root, e.Field, strings.Join(e.Subgraphs, ", "))
}
