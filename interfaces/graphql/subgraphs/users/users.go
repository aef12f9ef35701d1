// Package users is the subgraph owning the User entity.
package users

import (
	"github.com/graphql-go/graphql"

	"graphgate/application/resolvers"
	"graphgate/domain/core/entities"
	"graphgate/interfaces/graphql/federation"
)

// Name identifies the subgraph in composition errors and logs.
const Name = "users"

// UserType is the GraphQL shape of entities.User.
var UserType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.User).ID, nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.User).Name, nil
			},
		},
		"email": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.User).Email, nil
			},
		},
	},
})

// NewUserInput is the argument of createUser. An omitted id is generated.
var NewUserInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "NewUserInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"id":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"email": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

// Subgraph registers the user queries and mutations.
type Subgraph struct{}

// New creates the users subgraph
func New() Subgraph { return Subgraph{} }

func (Subgraph) Name() string { return Name }

func (Subgraph) Operations() federation.OperationSet {
	return federation.OperationSet{
		Query: map[string]*federation.Field{
			"user": {
				Type:        graphql.NewNonNull(UserType),
				Description: "Fetch a user by id.",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return resolvers.NewUserResolver(env.Conns).User(p.Context, id)
				},
			},
		},
		Mutation: map[string]*federation.Field{
			"createUser": {
				Type:        graphql.NewNonNull(UserType),
				Description: "Create a user.",
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(NewUserInput)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					input, _ := p.Args["input"].(map[string]interface{})
					user := entities.User{}
					user.ID, _ = input["id"].(string)
					user.Name, _ = input["name"].(string)
					user.Email, _ = input["email"].(string)
					return resolvers.NewUserResolver(env.Conns).CreateUser(p.Context, user)
				},
			},
			"updateUser": {
				Type:        graphql.NewNonNull(UserType),
				Description: "Change the supplied fields of an existing user.",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":  &graphql.ArgumentConfig{Type: graphql.String},
					"email": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					patch := entities.UserPatch{
						Name:  optionalString(p.Args, "name"),
						Email: optionalString(p.Args, "email"),
					}
					return resolvers.NewUserResolver(env.Conns).UpdateUser(p.Context, id, patch)
				},
			},
			"deleteUser": {
				Type:        graphql.NewNonNull(graphql.Boolean),
				Description: "Delete a user; false when no user had the id.",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return resolvers.NewUserResolver(env.Conns).DeleteUser(p.Context, id)
				},
			},
		},
	}
}

func optionalString(args map[string]interface{}, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}
