package service_test

import (
	"context"
	"testing"

	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestAdminListUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	p, _ := f.member(t)
	event := f.event(t, admin, 0)
	_, err := f.registrations.Register(ctx, p, event.ID)
	require.NoError(t, err)

	users, err := f.users.List(ctx, admin)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.HashedPassword)
		if u.ID == p.UserID {
			assert.Equal(t, 1, u.RSVPCount)
		}
	}

	_, err = f.users.List(ctx, p)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	p, _ := f.member(t)

	updated, err := f.users.Update(ctx, admin, p.UserID, service.UpdateUserRequest{
		FirstName: ptr("Ada"),
		Role:      ptr(model.RoleAdmin),
		IsActive:  ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.False(t, updated.IsActive)

	_, err = f.users.Update(ctx, admin, p.UserID, service.UpdateUserRequest{Role: ptr(model.RoleAnonymous)})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.Update(ctx, admin, uuid.NewString(), service.UpdateUserRequest{})
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestAdminUpdateUser_SelfGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)

	_, err := f.users.Update(ctx, admin, admin.UserID, service.UpdateUserRequest{IsActive: ptr(false)})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.Update(ctx, admin, admin.UserID, service.UpdateUserRequest{Role: ptr(model.RoleMember)})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.ErrorIs(t, f.users.Delete(ctx, admin, admin.UserID), common.ErrValidation)
}

func TestAdminDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin(t)
	p, user := f.member(t)

	require.NoError(t, f.users.Delete(ctx, admin, p.UserID))

	_, err := f.store.Users().FindByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	assert.ErrorIs(t, f.users.Delete(ctx, admin, p.UserID), common.ErrUserNotFound)
}

func TestBootstrapAdmin_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := service.BootstrapAdminRequest{
		Email:     "Root@Example.com",
		Password:  "adminpass1",
		Username:  "root_admin",
		FirstName: "Root",
		LastName:  "Admin",
	}

	created, err := f.users.Bootstrap(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := f.store.Users().FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, admin.IsActive)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	created, err = f.users.Bootstrap(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)

	resp, err := f.auth.Login(ctx, loginAs("root_admin", "adminpass1"))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, resp.User.ID)
}

func TestBootstrapAdmin_RequiresStrongPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.Bootstrap(context.Background(), service.BootstrapAdminRequest{
		Email: "root@example.com", Password: "short", Username: "root", FirstName: "Root", LastName: "Admin",
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}
