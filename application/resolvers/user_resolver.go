package resolvers

import (
	"context"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
	"graphgate/infrastructure/persistence/connection"
)

const userEntity = "user"

// UserResolver serves the user operations.
type UserResolver struct {
	conns connection.Manager[ports.Store]
}

// NewUserResolver creates a resolver over conns
func NewUserResolver(conns connection.Manager[ports.Store]) *UserResolver {
	return &UserResolver{conns: conns}
}

// User fetches one user by id
func (r *UserResolver) User(ctx context.Context, id string) (*entities.User, error) {
	return call(ctx, r.conns, userEntity, "find", id, func(ctx context.Context, s ports.Store) (*entities.User, error) {
		return s.FindUser(ctx, id)
	})
}

// CreateUser stores a new user. An empty id is generated by the store.
func (r *UserResolver) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	return call(ctx, r.conns, userEntity, "create", user.ID, func(ctx context.Context, s ports.Store) (*entities.User, error) {
		return s.CreateUser(ctx, user)
	})
}

// UpdateUser changes the supplied fields of an existing user
func (r *UserResolver) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	return call(ctx, r.conns, userEntity, "update", id, func(ctx context.Context, s ports.Store) (*entities.User, error) {
		return s.UpdateUser(ctx, id, patch)
	})
}

// DeleteUser removes a user and reports whether one existed
func (r *UserResolver) DeleteUser(ctx context.Context, id string) (bool, error) {
	return call(ctx, r.conns, userEntity, "delete", id, func(ctx context.Context, s ports.Store) (bool, error) {
		return s.DeleteUser(ctx, id)
	})
}
