package entities

import "github.com/google/uuid"

// User is the aggregate owned by the users subgraph.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserPatch carries the fields of a partial update. A nil field is left
// untouched.
type UserPatch struct {
	Name  *string
	Email *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil
}

// Apply returns a copy of u with the supplied patch fields overwritten.
func (u User) Apply(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	return u
}

// WithDefaultID returns u with a generated id when the caller supplied none.
func (u User) WithDefaultID() User {
	if u.ID == "" {
		u.ID = NewID()
	}
	return u
}

// NewID generates an identifier for entities whose store cannot allocate one.
func NewID() string {
	return uuid.NewString()
}
