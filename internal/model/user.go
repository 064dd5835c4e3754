package model

import "time"

// User represents a user row in the database. Password holds the bcrypt
// hash and is only populated on the authentication read path; it is never
// serialized.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Age       *int64    `json:"age"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest represents a user creation request.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      *int64 `json:"age"`
}

// UpdateUserRequest represents a partial update. Nil pointers mean the
// field was not supplied, which is distinct from a supplied zero value.
// Age uses OptionalInt64 so that an explicit null counts as supplied and
// clears the column.
type UpdateUserRequest struct {
	Name     *string       `json:"name"`
	Email    *string       `json:"email"`
	Password *string       `json:"password"`
	Age      OptionalInt64 `json:"age"`
}

// HasFields reports whether at least one mutable field is present.
func (r UpdateUserRequest) HasFields() bool {
	return r.Name != nil || r.Email != nil || r.Password != nil || r.Age.Set
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SearchFilters narrows a user listing. Zero-value fields are ignored;
// supplied filters combine with AND semantics.
type SearchFilters struct {
	Name   string
	Email  string
	MinAge *int64
	MaxAge *int64
	Limit  int
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.Name == "" && f.Email == "" && f.MinAge == nil && f.MaxAge == nil
}
