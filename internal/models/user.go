package models

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidForm is returned when a submitted form misses a required field
var ErrInvalidForm = errors.New("invalid form")

// Role names understood by the backend
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// Roles lists the selectable roles in the user form
var Roles = []string{RoleAdmin, RoleViewer}

// User represents a console operator account managed by the backend
type User struct {
	UID       string     `json:"uid"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *string    `json:"created_by"`
	UpdatedAt *time.Time `json:"updated_at"`
	UpdatedBy *string    `json:"updated_by"`
}

// CreateUserRequest is the body of POST users
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserForm holds the values submitted from the create/edit user dialog
type UserForm struct {
	Username string
	Password string
	Role     string
	Active   bool
}

// NewUserForm returns the blank form shown when creating a user
func NewUserForm() UserForm {
	return UserForm{Role: RoleViewer, Active: true}
}

// UserFormFrom prefills the edit dialog. The password is never prefilled.
func UserFormFrom(u User) UserForm {
	return UserForm{Username: u.Username, Role: u.Role, Active: u.Active}
}

func (f UserForm) normalized() UserForm {
	f.Username = strings.TrimSpace(f.Username)
	f.Role = strings.TrimSpace(f.Role)
	return f
}

// CreateRequest validates the form for creation
func (f UserForm) CreateRequest() (CreateUserRequest, error) {
	f = f.normalized()
	if f.Username == "" || f.Role == "" || f.Password == "" {
		return CreateUserRequest{}, ErrInvalidForm
	}
	return CreateUserRequest{Username: f.Username, Password: f.Password, Role: f.Role}, nil
}

// Diff returns the update payload holding only the fields that differ from orig.
// A blank password is left out so an existing password is never overwritten.
func (f UserForm) Diff(orig User) (map[string]any, error) {
	f = f.normalized()
	if f.Username == "" || f.Role == "" {
		return nil, ErrInvalidForm
	}

	patch := make(map[string]any)
	if f.Username != orig.Username {
		patch["username"] = f.Username
	}
	if f.Role != orig.Role {
		patch["role"] = f.Role
	}
	if f.Active != orig.Active {
		patch["active"] = f.Active
	}
	if f.Password != "" {
		patch["password"] = f.Password
	}
	return patch, nil
}
