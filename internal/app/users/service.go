package users

import (
	"context"
	"errors"
	"fmt"

	"earplugs/internal/store"
	"earplugs/shared/go/models"
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, username, password string, role models.UserRole) (int64, error)
	ValidateCredentials(ctx context.Context, username, password string) (int64, error)
	UserIDByUsername(ctx context.Context, username string) (int64, error)
	RoleForUser(ctx context.Context, userID int64) (models.UserRole, error)
	SetRole(ctx context.Context, userID int64, role models.UserRole) error
}

// Tokens issues and verifies bearer tokens.
type Tokens interface {
	Issue(userID int64) (string, error)
	Parse(raw string) (int64, error)
}

// Identity is the caller behind a verified token.
type Identity struct {
	UserID int64
	Role   models.UserRole
}

// Service exposes account workflows.
type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	Authorize(ctx context.Context, token string) (Identity, error)
	Register(ctx context.Context, username, password string, role models.UserRole) (int64, error)
	EnsureAdmin(ctx context.Context, username, password string) (int64, error)
}

type service struct {
	store  Store
	tokens Tokens
}

// New wires a Service backed by the provided Store.
func New(store Store, tokens Tokens) Service {
	return &service{store: store, tokens: tokens}
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	userID, err := s.store.ValidateCredentials(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(userID)
}

// Authorize verifies the token and reads the caller's role from the roles
// table. It makes exactly one store lookup.
func (s *service) Authorize(ctx context.Context, token string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	userID, err := s.tokens.Parse(token)
	if err != nil {
		return Identity{}, err
	}

	role, err := s.store.RoleForUser(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, Role: role}, nil
}

func (s *service) Register(ctx context.Context, username, password string, role models.UserRole) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if role != models.UserRoleAdmin && role != models.UserRoleContributor {
		return 0, fmt.Errorf("unknown role %q", role)
	}
	return s.store.CreateUser(ctx, username, password, role)
}

// EnsureAdmin creates the configured owner account, or grants admin to an
// existing account with that name.
func (s *service) EnsureAdmin(ctx context.Context, username, password string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	userID, err := s.store.CreateUser(ctx, username, password, models.UserRoleAdmin)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, store.ErrUserExists) {
		return 0, err
	}

	userID, err = s.store.UserIDByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if err := s.store.SetRole(ctx, userID, models.UserRoleAdmin); err != nil {
		return 0, err
	}
	return userID, nil
}
