package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"earplugs/shared/go/models"
)

var (
	// ErrUserExists signals the username is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized indicates a user without a role.
	ErrUnauthorized = errors.New("unauthorized")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// CreateUser registers a new user and grants the role in the same transaction.
func (s *Store) CreateUser(ctx context.Context, username, password string, role models.UserRole) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var userID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, username, hash).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	if err := setRole(ctx, tx, userID, role); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return userID, nil
}

// ValidateCredentials checks a username and password and returns the user id.
func (s *Store) ValidateCredentials(ctx context.Context, username, password string) (int64, error) {
	var (
		userID int64
		hash   []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE username = $1
	`, strings.TrimSpace(username)).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return userID, nil
}

// UserIDByUsername looks up a user without checking a password.
func (s *Store) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id
		FROM users
		WHERE username = $1
	`, strings.TrimSpace(username)).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUnauthorized
	}
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	return userID, nil
}

// RoleForUser returns the role recorded for a user. Users without a row in
// user_roles are unauthorized.
func (s *Store) RoleForUser(ctx context.Context, userID int64) (models.UserRole, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
	`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("lookup role: %w", err)
	}
	return models.UserRole(role), nil
}

// SetRole grants or replaces a user's role.
func (s *Store) SetRole(ctx context.Context, userID int64, role models.UserRole) error {
	return setRole(ctx, s.db, userID, role)
}

func setRole(ctx context.Context, q queryer, userID int64, role models.UserRole) error {
	if _, err := q.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, granted_at = CURRENT_TIMESTAMP
	`, userID, string(role)); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}
