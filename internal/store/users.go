package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const userColumns = `u.id, u.email, u.full_name, u.password_hash, COALESCE(r.role, 'user'), u.created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var user User
	var fullName sql.NullString
	if err := row.Scan(&user.ID, &user.Email, &fullName, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.FullName = nullableString(fullName)
	return &user, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, email, passwordHash string, fullName *string) (*User, error) {
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin user insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO users (id, email, full_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)"),
		user.ID, user.Email, user.FullName, user.PasswordHash, user.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO user_roles (user_id, role, created_at) VALUES (?, ?, ?)"),
		user.ID, user.Role, user.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert user role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user insert: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns nil, nil when no user matches.
func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+userColumns+" FROM users u LEFT JOIN user_roles r ON r.user_id = u.id WHERE u.email = ?"), email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetUserByID returns nil, nil when no user matches.
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+userColumns+" FROM users u LEFT JOIN user_roles r ON r.user_id = u.id WHERE u.id = ?"), id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users u LEFT JOIN user_roles r ON r.user_id = u.id ORDER BY u.created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *SQLStore) SetUserRole(ctx context.Context, userID, role string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
        INSERT INTO user_roles (user_id, role, created_at) SELECT id, ?, ? FROM users WHERE id = ?
        ON CONFLICT (user_id) DO UPDATE SET role = excluded.role`), role, now(), userID)
	if err != nil {
		return fmt.Errorf("failed to set user role: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
