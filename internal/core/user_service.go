package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	pool  *pgxpool.Pool
	audit AuditLog
}

// NewUserService constructs a UserService backed by PostgreSQL. audit may be nil.
func NewUserService(pool *pgxpool.Pool, audit AuditLog) UserService {
	return &userService{pool: pool, audit: audit}
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE username = $1 AND is_active = true
		LIMIT 1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "user", Key: fmt.Sprintf("%q", username)}
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, is_active, created_at
		FROM users
		WHERE id = $1`,
		userID,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "user", Key: fmt.Sprintf("id=%d", userID)}
		}
		return nil, fmt.Errorf("get user id=%d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.GetByUsername(ctx, username)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &UnauthorizedError{Action: "log in"}
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, &UnauthorizedError{Action: "log in"}
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, username, password string, role Role) (*User, error) {
	if err := actor.Authorize("create user", RoleAdmin); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, &ValidationError{Message: "username is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Message: "password must be at least 8 characters"}
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Username: username, PasswordHash: string(hash), Role: role, IsActive: true}
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		username, u.PasswordHash, role,
	).Scan(&u.ID, &u.CreatedAt); err != nil {
		return nil, translatePgError(err, "insert user")
	}

	observers{audit: s.audit}.committed(ctx, AuditEntry{
		ActorID:  actor.UserID,
		Action:   "user.create",
		EntityID: fmt.Sprintf("user:%d", u.ID),
		Detail:   fmt.Sprintf("%s as %s", username, role),
	})
	return u, nil
}
