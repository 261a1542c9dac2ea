package core

import (
	"context"
	"time"
)

// User is an account that can act on the ledger. Role decides which operations it may call.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
}

// Actor returns the identity threaded into engine calls on behalf of this user.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// UserService provides user lookup and management.
type UserService interface {
	// GetByUsername finds an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// Authenticate checks a password against the stored bcrypt hash. Unknown users and
	// wrong passwords both yield UnauthorizedError.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// CreateUser adds an account. Admin only.
	CreateUser(ctx context.Context, actor Actor, username, password string, role Role) (*User, error)
}
