package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursetutor/tutor-backend/internal/auth"
	"github.com/coursetutor/tutor-backend/internal/config"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

func TestSignupAndLogin(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	ctx := context.Background()
	users := NewUserService(newTestStore(t), logger.Nop())

	user, err := users.Signup(ctx, " Ada@Example.com ", "long-enough", strPtr("Ada"))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, store.RoleUser, user.Role)

	_, err = users.Signup(ctx, "ada@example.com", "long-enough", nil)
	assert.ErrorIs(t, err, ErrConflict)

	_, _, err = users.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = users.Login(ctx, "nobody@example.com", "long-enough")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	loggedIn, token, err := users.Login(ctx, "ADA@example.com", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	subject, err := auth.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)
}

func TestSignupValidation(t *testing.T) {
	users := NewUserService(newTestStore(t), logger.Nop())

	_, err := users.Signup(context.Background(), "not-an-email", "long-enough", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = users.Signup(context.Background(), "ada@example.com", "short", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	users := NewUserService(s, logger.Nop())
	admin := newTestUser(t, s, "admin@example.com", true)
	student := newTestUser(t, s, "student@example.com", false)

	assert.ErrorIs(t, users.SetRole(ctx, student, admin.ID, store.RoleUser), ErrForbidden)
	assert.ErrorIs(t, users.SetRole(ctx, admin, student.ID, "owner"), ErrInvalidInput)
	assert.ErrorIs(t, users.SetRole(ctx, admin, "missing", store.RoleAdmin), ErrNotFound)

	require.NoError(t, users.SetRole(ctx, admin, student.ID, store.RoleAdmin))
	promoted, err := users.GetUser(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, store.RoleAdmin, promoted.Role)

	list, err := users.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
