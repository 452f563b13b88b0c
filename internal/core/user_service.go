package core

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/coursetutor/tutor-backend/internal/auth"
	"github.com/coursetutor/tutor-backend/internal/logger"
	"github.com/coursetutor/tutor-backend/internal/store"
)

const minPasswordLength = 8

type UserService struct {
	dbStore *store.SQLStore
	log     *logger.Logger
}

func NewUserService(db *store.SQLStore, log *logger.Logger) *UserService {
	return &UserService{dbStore: db, log: log}
}

// Signup creates a user with the default role.
func (s *UserService) Signup(ctx context.Context, email, password string, fullName *string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	existing, err := s.dbStore.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.dbStore.CreateUser(ctx, email, hash, fullName)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("User signed up", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and returns the user with a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*store.User, string, error) {
	user, err := s.dbStore.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// GetUser returns nil, nil when the user does not exist.
func (s *UserService) GetUser(ctx context.Context, id string) (*store.User, error) {
	return s.dbStore.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, admin *store.User) ([]store.User, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.dbStore.ListUsers(ctx)
}

func (s *UserService) SetRole(ctx context.Context, admin *store.User, userID, role string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	return s.AssignRole(ctx, userID, role)
}

// AssignRole changes a role without an acting admin, for operator tooling.
func (s *UserService) AssignRole(ctx context.Context, userID, role string) error {
	if role != store.RoleAdmin && role != store.RoleUser {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.dbStore.SetUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info("User role changed", "user_id", userID, "role", role)
	return nil
}
