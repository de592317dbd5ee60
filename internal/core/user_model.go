package core

import (
	"context"
	"time"
)

// User represents an authenticated back-office user scoped to a company.
type User struct {
	ID           int       `json:"id"`
	CompanyID    int       `json:"company_id"`
	CompanyCode  string    `json:"company_code"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserService provides user lookup and provisioning.
type UserService interface {
	// GetByUsername finds an active user by username. Usernames are globally unique.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// CreateUser stores a user with an already hashed password.
	CreateUser(ctx context.Context, companyCode, username, email, passwordHash, role string) (*User, error)
}
