package federation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	apperrors "graphgate/pkg/errors"
)

// Schema is the composed, executable schema. It is immutable once built.
type Schema struct {
	schema graphql.Schema
	env    *Env
	fields map[string][]string
}

// Request is one GraphQL-over-HTTP request.
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type rootFields struct {
	name   string
	fields graphql.Fields
	owners map[string]string
}

func newRootFields(name string) *rootFields {
	return &rootFields{name: name, fields: graphql.Fields{}, owners: map[string]string{}}
}

func (r *rootFields) add(env *Env, subgraph string, set map[string]*Field) error {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if owner, ok := r.owners[name]; ok {
			return &CollisionError{Root: r.name, Field: name, Subgraphs: []string{owner, subgraph}}
		}
		r.owners[name] = subgraph
		r.fields[name] = bind(env, subgraph, name, set[name])
	}
	return nil
}

func (r *rootFields) sortedNames() []string {
	names := make([]string, 0, len(r.owners))
	for name := range r.owners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Compose unions the root fields of subgraphs, in order, into one schema
// bound to env.
func Compose(env *Env, subgraphs ...Subgraph) (*Schema, error) {
	if env == nil {
		return nil, ErrNilEnv
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}

	query := newRootFields(RootQuery)
	mutation := newRootFields(RootMutation)
	seen := make(map[string]bool, len(subgraphs))

	for _, sg := range subgraphs {
		name := sg.Name()
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSubgraph, name)
		}
		seen[name] = true

		ops := sg.Operations()
		if err := query.add(env, name, ops.Query); err != nil {
			return nil, err
		}
		if err := mutation.add(env, name, ops.Mutation); err != nil {
			return nil, err
		}
	}

	if len(query.fields) == 0 {
		return nil, ErrEmptyQuery
	}

	cfg := graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{Name: RootQuery, Fields: query.fields}),
	}
	if len(mutation.fields) > 0 {
		cfg.Mutation = graphql.NewObject(graphql.ObjectConfig{Name: RootMutation, Fields: mutation.fields})
	}

	schema, err := graphql.NewSchema(cfg)
	if err != nil {
		return nil, fmt.Errorf("build composed schema: %w", err)
	}

	env.Logger.Info("schema composed",
		zap.Int("subgraphs", len(subgraphs)),
		zap.Strings("query", query.sortedNames()),
		zap.Strings("mutation", mutation.sortedNames()))

	return &Schema{
		schema: schema,
		env:    env,
		fields: map[string][]string{
			RootQuery:    query.sortedNames(),
			RootMutation: mutation.sortedNames(),
		},
	}, nil
}

// Execute runs one request against the composed schema.
func (s *Schema) Execute(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// FieldNames returns the sorted field names of a root type.
func (s *Schema) FieldNames(root string) []string {
	names := s.fields[root]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// bind closes a subgraph field over env and shapes its errors for the
// GraphQL errors envelope.
func bind(env *Env, subgraph, name string, f *Field) *graphql.Field {
	return &graphql.Field{
		Type:        f.Type,
		Args:        f.Args,
		Description: f.Description,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			result, err := f.Resolve(env, p)
			if err != nil {
				return nil, shapeError(env.Logger.With(zap.String("subgraph", subgraph), zap.String("field", name)), err)
			}
			return result, nil
		},
	}
}

// resolveError is what graphql-go sees: the application message plus the
// classification as extensions.
type resolveError struct {
	message    string
	extensions map[string]interface{}
	cause      error
}

func (e *resolveError) Error() string { return e.message }
func (e *resolveError) Extensions() map[string]interface{} { return e.extensions }
func (e *resolveError) Unwrap() error { return e.cause }

func shapeError(logger *zap.Logger, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Error("resolver returned an unclassified error", zap.Error(err))
		internal := apperrors.NewInternalError(err.Error())
		return &resolveError{message: internal.Message, extensions: internal.Extensions(), cause: err}
	}

	switch appErr.Type {
	case apperrors.ErrorTypeBackend, apperrors.ErrorTypeInternal:
		logger.Error("resolver failed", zap.Error(err))
	default:
		logger.Debug("resolver rejected request", zap.String("code", string(appErr.Type)), zap.String("message", appErr.Message))
	}

	return &resolveError{message: appErr.Message, extensions: appErr.Extensions(), cause: err}
}
