package handlers

import (
	"context"
	"fmt"

	"koalbot_console/internal/apiclient"
	"koalbot_console/internal/crud"
	"koalbot_console/internal/models"
)

// userSource exposes the users endpoints to a crud.Controller
type userSource struct {
	client *apiclient.Client
}

func (s userSource) List(ctx context.Context, q crud.Query) (models.Page[models.User], error) {
	return s.client.ListUsers(ctx, apiclient.ListParams(q))
}

func (s userSource) Create(ctx context.Context, payload any) error {
	req, ok := payload.(models.CreateUserRequest)
	if !ok {
		return fmt.Errorf("unexpected user payload %T", payload)
	}
	return s.client.CreateUser(ctx, req)
}

func (s userSource) Update(ctx context.Context, id string, patch map[string]any) error {
	return s.client.UpdateUser(ctx, id, patch)
}

func (s userSource) Delete(ctx context.Context, id string) error {
	return s.client.DeleteUser(ctx, id)
}

var userEntity = crud.Entity[models.User]{
	Name:   "user",
	ID:     func(u models.User) string { return u.UID },
	Active: func(u models.User) bool { return u.Active },
	SetActive: func(u models.User, active bool) models.User {
		u.Active = active
		return u
	},
}

// memberSource exposes the master-pengguna endpoints of one platform
type memberSource struct {
	client *apiclient.Client
	jenis  models.Jenis
}

func (s memberSource) List(ctx context.Context, q crud.Query) (models.Page[models.Member], error) {
	return s.client.ListMembers(ctx, s.jenis, apiclient.ListParams(q))
}

func (s memberSource) Create(ctx context.Context, payload any) error {
	req, ok := payload.(models.CreateMemberRequest)
	if !ok {
		return fmt.Errorf("unexpected member payload %T", payload)
	}
	req.Jenis = s.jenis
	return s.client.CreateMember(ctx, req)
}

func (s memberSource) Update(ctx context.Context, id string, patch map[string]any) error {
	return s.client.UpdateMember(ctx, id, patch)
}

func (s memberSource) Delete(ctx context.Context, id string) error {
	return s.client.DeleteMember(ctx, id)
}

var memberEntity = crud.Entity[models.Member]{
	Name:   "member",
	ID:     models.Member.Key,
	Active: func(m models.Member) bool { return m.Active },
	SetActive: func(m models.Member, active bool) models.Member {
		m.Active = active
		return m
	},
}
