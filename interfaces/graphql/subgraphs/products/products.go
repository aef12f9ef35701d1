// Package products is the subgraph owning the Product entity.
package products

import (
	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"

	"graphgate/application/resolvers"
	"graphgate/domain/core/entities"
	"graphgate/interfaces/graphql/federation"
	"graphgate/interfaces/graphql/scalars"
)

const Name = "products"

// ProductType is the GraphQL shape of entities.Product. Price travels as a
// BigDecimal string.
var ProductType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.Product).ID, nil
			},
		},
		"name": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.Product).Name, nil
			},
		},
		"price": &graphql.Field{
			Type: graphql.NewNonNull(scalars.BigDecimal),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return p.Source.(*entities.Product).Price, nil
			},
		},
	},
})

var NewProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "NewProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"id":    &graphql.InputObjectFieldConfig{Type: graphql.String},
		"name":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"price": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(scalars.BigDecimal)},
	},
})

// Subgraph registers the product queries and mutations.
type Subgraph struct{}

func New() Subgraph { return Subgraph{} }

func (Subgraph) Name() string { return Name }

func (Subgraph) Operations() federation.OperationSet {
	return federation.OperationSet{
		Query: map[string]*federation.Field{
			"product": {
				Type: graphql.NewNonNull(ProductType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return resolvers.NewProductResolver(env.Conns).Product(p.Context, id)
				},
			},
		},
		Mutation: map[string]*federation.Field{
			"createProduct": {
				Type: graphql.NewNonNull(ProductType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(NewProductInput)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					input, _ := p.Args["input"].(map[string]interface{})
					product := entities.Product{}
					product.ID, _ = input["id"].(string)
					product.Name, _ = input["name"].(string)
					product.Price, _ = input["price"].(decimal.Decimal)
					return resolvers.NewProductResolver(env.Conns).CreateProduct(p.Context, product)
				},
			},
			"updateProduct": {
				Type: graphql.NewNonNull(ProductType),
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":  &graphql.ArgumentConfig{Type: graphql.String},
					"price": &graphql.ArgumentConfig{Type: scalars.BigDecimal},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					var patch entities.ProductPatch
					if name, ok := p.Args["name"].(string); ok {
						patch.Name = &name
					}
					if price, ok := p.Args["price"].(decimal.Decimal); ok {
						patch.Price = &price
					}
					return resolvers.NewProductResolver(env.Conns).UpdateProduct(p.Context, id, patch)
				},
			},
			"deleteProduct": {
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(env *federation.Env, p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					return resolvers.NewProductResolver(env.Conns).DeleteProduct(p.Context, id)
				},
			},
		},
	}
}
