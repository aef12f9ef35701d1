// Package storetest holds the behaviour every ports.Store implementation
// must share, as a testify suite that adapter packages run against their
// own engine.
package storetest

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"graphgate/application/ports"
	"graphgate/domain/core/entities"
)

// Suite exercises the four operations of both repositories.
type Suite struct {
	suite.Suite

	// Open returns a store for one test. It is called from SetupTest.
	Open func(ctx context.Context, t *testing.T) ports.Store

	// EnforcesUniqueness is false for engines whose create overwrites an
	// existing record instead of failing with ErrDuplicateKey.
	EnforcesUniqueness bool

	ctx   context.Context
	store ports.Store
}

var seq = time.Now().UnixNano() / int64(time.Millisecond) % 1_000_000_000 * 1000

// nextID returns a fresh numeric id, which every engine can address.
func nextID() string {
	return strconv.FormatInt(atomic.AddInt64(&seq, 1), 10)
}

func strPtr(s string) *string { return &s }

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.Open(s.ctx, s.T())
	s.Require().NotNil(s.store)
}

func (s *Suite) TearDownTest() {
	if s.store != nil {
		s.NoError(s.store.Close(s.ctx))
	}
}

func (s *Suite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
	s.NotEmpty(s.store.Backend())
}

func (s *Suite) TestUserRoundTrip() {
	in := entities.User{ID: nextID(), Name: "Ann", Email: "a@x.com"}

	created, err := s.store.CreateUser(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(in, *created)

	found, err := s.store.FindUser(s.ctx, in.ID)
	s.Require().NoError(err)
	s.Equal(in, *found)
}

func (s *Suite) TestUserCreateGeneratesID() {
	created, err := s.store.CreateUser(s.ctx, entities.User{Name: "Bob", Email: "b@x.com"})
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	found, err := s.store.FindUser(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(*created, *found)
}

func (s *Suite) TestUserFindMissing() {
	_, err := s.store.FindUser(s.ctx, nextID())
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *Suite) TestUserCreateExisting() {
	id := nextID()
	_, err := s.store.CreateUser(s.ctx, entities.User{ID: id, Name: "Ann", Email: "a@x.com"})
	s.Require().NoError(err)

	_, err = s.store.CreateUser(s.ctx, entities.User{ID: id, Name: "Other", Email: "o@x.com"})
	found, findErr := s.store.FindUser(s.ctx, id)
	s.Require().NoError(findErr)

	if s.EnforcesUniqueness {
		s.ErrorIs(err, ports.ErrDuplicateKey)
		s.Equal("Ann", found.Name)
		return
	}
	s.NoError(err)
	s.Equal("Other", found.Name)
}

func (s *Suite) TestUserPartialUpdate() {
	id := nextID()
	_, err := s.store.CreateUser(s.ctx, entities.User{ID: id, Name: "Ann", Email: "a@x.com"})
	s.Require().NoError(err)

	tests := []struct {
		name  string
		patch entities.UserPatch
		want  entities.User
	}{
		{"email only", entities.UserPatch{Email: strPtr("b@x.com")}, entities.User{ID: id, Name: "Ann", Email: "b@x.com"}},
		{"name only", entities.UserPatch{Name: strPtr("Anne")}, entities.User{ID: id, Name: "Anne", Email: "b@x.com"}},
		{"empty patch", entities.UserPatch{}, entities.User{ID: id, Name: "Anne", Email: "b@x.com"}},
		{"both", entities.UserPatch{Name: strPtr("A"), Email: strPtr("c@x.com")}, entities.User{ID: id, Name: "A", Email: "c@x.com"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			updated, err := s.store.UpdateUser(s.ctx, id, tt.patch)
			s.Require().NoError(err)
			s.Equal(tt.want, *updated)

			found, err := s.store.FindUser(s.ctx, id)
			s.Require().NoError(err)
			s.Equal(tt.want, *found)
		})
	}
}

func (s *Suite) TestUserUpdateMissing() {
	id := nextID()
	_, err := s.store.UpdateUser(s.ctx, id, entities.UserPatch{Name: strPtr("Ghost")})
	s.ErrorIs(err, ports.ErrNotFound)

	// The failed update must not have created anything.
	_, err = s.store.FindUser(s.ctx, id)
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *Suite) TestUserDelete() {
	id := nextID()
	_, err := s.store.CreateUser(s.ctx, entities.User{ID: id, Name: "Ann", Email: "a@x.com"})
	s.Require().NoError(err)

	removed, err := s.store.DeleteUser(s.ctx, id)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.store.FindUser(s.ctx, id)
	s.ErrorIs(err, ports.ErrNotFound)

	removed, err = s.store.DeleteUser(s.ctx, id)
	s.NoError(err)
	s.False(removed)
}

func (s *Suite) TestProductRoundTrip() {
	in := entities.Product{ID: nextID(), Name: "Lamp", Price: decimal.RequireFromString("1234567890.1234567891")}

	created, err := s.store.CreateProduct(s.ctx, in)
	s.Require().NoError(err)
	s.True(in.Equal(*created), "created %+v", created)

	found, err := s.store.FindProduct(s.ctx, in.ID)
	s.Require().NoError(err)
	s.True(in.Equal(*found), "found %+v", found)
}

func (s *Suite) TestProductCreateGeneratesID() {
	created, err := s.store.CreateProduct(s.ctx, entities.Product{Name: "Desk", Price: decimal.RequireFromString("99.5")})
	s.Require().NoError(err)
	s.NotEmpty(created.ID)

	found, err := s.store.FindProduct(s.ctx, created.ID)
	s.Require().NoError(err)
	s.True(created.Equal(*found))
}

func (s *Suite) TestProductFindMissing() {
	_, err := s.store.FindProduct(s.ctx, nextID())
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *Suite) TestProductPartialUpdate() {
	id := nextID()
	_, err := s.store.CreateProduct(s.ctx, entities.Product{ID: id, Name: "Lamp", Price: decimal.RequireFromString("19.99")})
	s.Require().NoError(err)

	price := decimal.RequireFromString("24.50")
	updated, err := s.store.UpdateProduct(s.ctx, id, entities.ProductPatch{Price: &price})
	s.Require().NoError(err)
	s.Equal("Lamp", updated.Name)
	s.True(price.Equal(updated.Price))

	updated, err = s.store.UpdateProduct(s.ctx, id, entities.ProductPatch{Name: strPtr("Floor lamp")})
	s.Require().NoError(err)
	s.Equal("Floor lamp", updated.Name)
	s.True(price.Equal(updated.Price))

	found, err := s.store.FindProduct(s.ctx, id)
	s.Require().NoError(err)
	s.True(updated.Equal(*found))
}

func (s *Suite) TestProductUpdateMissing() {
	_, err := s.store.UpdateProduct(s.ctx, nextID(), entities.ProductPatch{Name: strPtr("Ghost")})
	s.ErrorIs(err, ports.ErrNotFound)
}

func (s *Suite) TestProductDelete() {
	id := nextID()
	_, err := s.store.CreateProduct(s.ctx, entities.Product{ID: id, Name: "Lamp", Price: decimal.NewFromInt(3)})
	s.Require().NoError(err)

	removed, err := s.store.DeleteProduct(s.ctx, id)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.store.FindProduct(s.ctx, id)
	s.ErrorIs(err, ports.ErrNotFound)

	removed, err = s.store.DeleteProduct(s.ctx, id)
	s.NoError(err)
	s.False(removed)
}
