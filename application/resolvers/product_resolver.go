package resolvers

import (
	"context"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/infrastructure/persistence/connection"
)

const productEntity = "product"

// ProductResolver serves the product operations.
type ProductResolver struct {
	conns connection.Manager[ports.Store]
}

// NewProductResolver creates a resolver over conns
func NewProductResolver(conns connection.Manager[ports.Store]) *ProductResolver {
	return &ProductResolver{conns: conns}
}

func (r *ProductResolver) Product(ctx context.Context, id string) (*entities.Product, error) {
	return call(ctx, r.conns, productEntity, "find", id, func(ctx context.Context, s ports.Store) (*entities.Product, error) {
		return s.FindProduct(ctx, id)
	})
}

func (r *ProductResolver) CreateProduct(ctx context.Context, product entities.Product) (*entities.Product, error) {
	return call(ctx, r.conns, productEntity, "create", product.ID, func(ctx context.Context, s ports.Store) (*entities.Product, error) {
		return s.CreateProduct(ctx, product)
	})
}

func (r *ProductResolver) UpdateProduct(ctx context.Context, id string, patch entities.ProductPatch) (*entities.Product, error) {
	return call(ctx, r.conns, productEntity, "update", id, func(ctx context.Context, s ports.Store) (*entities.Product, error) {
		return s.UpdateProduct(ctx, id, patch)
	})
}

func (r *ProductResolver) DeleteProduct(ctx context.Context, id string) (bool, error) {
	return call(ctx, r.conns, productEntity, "delete", id, func(ctx context.Context, s ports.Store) (bool, error) {
		return s.DeleteProduct(ctx, id)
	})
}
