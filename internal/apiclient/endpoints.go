package apiclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"koalbot_console/internal/models"
)

// LoginUser is the profile returned by the backend on login
type LoginUser struct {
	UID      string     `json:"uid"`
	Username string     `json:"username"`
	Role     string     `json:"role"`
	RoleName string     `json:"role_name,omitempty"`
	LastSeen *time.Time `json:"last_seen"`
}

// LoginResponse is the body of a successful POST /login
type LoginResponse struct {
	Token            string     `json:"token"`
	RefreshToken     string     `json:"refresh_token"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at"`
	Message          string     `json:"message"`
	User             LoginUser  `json:"user"`
}

// ListParams selects one page of a list endpoint
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	v.Set("search", p.Search)
	return v
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var res LoginResponse
	body := map[string]string{"username": username, "password": password}
	err := c.Request(ctx, "POST", "login", RequestOptions{Data: body}, &res)
	return res, err
}

// Logout revokes the token on the backend
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "logout", nil, nil)
}

// Summary returns the dashboard counters
func (c *Client) Summary(ctx context.Context) (models.Summary, error) {
	var res models.Summary
	err := c.Get(ctx, "dashboard/summary", nil, &res)
	return res, err
}

// Health pings the backend liveness endpoint
func (c *Client) Health(ctx context.Context) error {
	return c.Get(ctx, "healthz", nil, nil)
}

// ListUsers returns one page of operator accounts
func (c *Client) ListUsers(ctx context.Context, p ListParams) (models.Page[models.User], error) {
	var res models.Page[models.User]
	err := c.Get(ctx, "users", p.values(), &res)
	return res, err
}

// CreateUser registers a new operator account
func (c *Client) CreateUser(ctx context.Context, req models.CreateUserRequest) error {
	return c.Post(ctx, "users", req, nil)
}

// UpdateUser applies a partial update to the account identified by uid
func (c *Client) UpdateUser(ctx context.Context, uid string, patch map[string]any) error {
	return c.Put(ctx, "users/"+url.PathEscape(uid), patch, nil)
}

// DeleteUser removes the account identified by uid
func (c *Client) DeleteUser(ctx context.Context, uid string) error {
	return c.Delete(ctx, "users/"+url.PathEscape(uid), nil)
}

// ListMembers returns one page of members of the given platform
func (c *Client) ListMembers(ctx context.Context, jenis models.Jenis, p ListParams) (models.Page[models.Member], error) {
	var res models.Page[models.Member]
	params := p.values()
	params.Set("jenis", string(jenis))
	err := c.Get(ctx, "master-pengguna", params, &res)
	return res, err
}

// CreateMember adds a platform account to the member list
func (c *Client) CreateMember(ctx context.Context, req models.CreateMemberRequest) error {
	return c.Post(ctx, "master-pengguna", req, nil)
}

// UpdateMember applies a partial update to the member with the given id
func (c *Client) UpdateMember(ctx context.Context, id string, patch map[string]any) error {
	return c.Put(ctx, "master-pengguna/"+url.PathEscape(id), patch, nil)
}

// DeleteMember removes the member with the given id
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.Delete(ctx, "master-pengguna/"+url.PathEscape(id), nil)
}
