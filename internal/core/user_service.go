package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userService struct {
	pool *pgxpool.Pool
}

// NewUserService constructs a UserService backed by PostgreSQL.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{pool: pool}
}

const userSelect = `
	SELECT u.id, u.company_id, c.company_code, u.username, u.email, u.password_hash, u.role, u.is_active, u.created_at
	FROM users u
	JOIN companies c ON c.id = u.company_id`

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.CompanyID, &u.CompanyCode, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, userSelect+" WHERE u.username = $1 AND u.is_active = true", username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("user %q not found", username)
		}
		return nil, fmt.Errorf("failed to fetch user %q: %w", username, err)
	}
	return u, nil
}

func (s *userService) GetByID(ctx context.Context, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, userSelect+" WHERE u.id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("user id=%d not found", userID)
		}
		return nil, fmt.Errorf("failed to fetch user id=%d: %w", userID, err)
	}
	return u, nil
}

func (s *userService) CreateUser(ctx context.Context, companyCode, username, email, passwordHash, role string) (*User, error) {
	if username == "" {
		return nil, FieldError("username", "username is required")
	}
	if role == "" {
		role = "user"
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	var id int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (company_id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, companyID, username, email, passwordHash, role).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, FieldError("username", "username %s already exists", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.GetByID(ctx, id)
}
