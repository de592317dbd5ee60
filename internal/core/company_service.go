package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CompanyService provisions and looks up tenants.
type CompanyService interface {
	CreateCompany(ctx context.Context, code, name, currency string) (*Company, error)
	GetCompany(ctx context.Context, code string) (*Company, error)
}

type companyService struct {
	pool *pgxpool.Pool
}

func NewCompanyService(pool *pgxpool.Pool) CompanyService {
	return &companyService{pool: pool}
}

func (s *companyService) CreateCompany(ctx context.Context, code, name, currency string) (*Company, error) {
	if code == "" {
		return nil, FieldError("company_code", "company code is required")
	}
	if name == "" {
		return nil, FieldError("name", "company name is required")
	}
	if currency == "" {
		currency = "NOK"
	}

	var c Company
	err := s.pool.QueryRow(ctx, `
		INSERT INTO companies (company_code, name, currency)
		VALUES ($1, $2, $3)
		RETURNING id, company_code, name, currency, created_at
	`, code, name, currency).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.Currency, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, FieldError("company_code", "company %s already exists", code)
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return &c, nil
}

func (s *companyService) GetCompany(ctx context.Context, code string) (*Company, error) {
	var c Company
	err := s.pool.QueryRow(ctx,
		"SELECT id, company_code, name, currency, created_at FROM companies WHERE company_code = $1", code,
	).Scan(&c.ID, &c.CompanyCode, &c.Name, &c.Currency, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("company %s not found", code)
		}
		return nil, fmt.Errorf("failed to fetch company %s: %w", code, err)
	}
	return &c, nil
}
