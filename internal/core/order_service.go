package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderService manages master data and the order lifecycle, keeping each order's
// financial snapshot consistent with its lines.
type OrderService interface {
	// Master data
	CreateCustomer(ctx context.Context, companyCode string, in CustomerInput) (*Customer, error)
	GetCustomers(ctx context.Context, companyCode string) ([]Customer, error)
	GetCustomer(ctx context.Context, companyCode string, customerID int) (*Customer, error)
	CreateProduct(ctx context.Context, companyCode string, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, companyCode string, productID int, in ProductInput) (*Product, error)
	// DeactivateProduct hides a product from new orders. Existing order lines keep their copies.
	DeactivateProduct(ctx context.Context, companyCode string, productID int) error
	GetProducts(ctx context.Context, companyCode string, includeInactive bool) ([]Product, error)

	// QuoteOrder prices selections against live products without writing anything.
	QuoteOrder(ctx context.Context, companyCode string, selections []ProductSelection) (*OrderTotals, error)
	CreateOrder(ctx context.Context, companyCode string, in OrderInput) (*Order, error)
	// ReplaceOrderLines swaps all lines of an editable, uninvoiced order and rewrites its snapshot.
	ReplaceOrderLines(ctx context.Context, companyCode string, orderID int, selections []ProductSelection) (*Order, error)
	TransitionOrder(ctx context.Context, companyCode string, orderID int, next OrderStatus) (*Order, error)

	// Queries
	GetOrder(ctx context.Context, companyCode string, orderID int) (*Order, error)
	GetOrders(ctx context.Context, companyCode string, filter OrderFilter) ([]Order, error)
}

type orderService struct {
	pool    *pgxpool.Pool
	pricing PricingOptions
	events  Publisher
}

// NewOrderService constructs an OrderService. events may be nil.
func NewOrderService(pool *pgxpool.Pool, pricing PricingOptions, events Publisher) OrderService {
	return &orderService{pool: pool, pricing: pricing, events: events}
}

// ── Master Data ──────────────────────────────────────────────────────────────

func (s *orderService) CreateCustomer(ctx context.Context, companyCode string, in CustomerInput) (*Customer, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (company_id, code, name, email, phone, address, payment_terms_days)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+customerColumns,
		companyID, in.Code, in.Name, in.Email, in.Phone, in.Address, in.PaymentTermsDays))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, FieldError("code", "customer code %s already exists", in.Code)
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *orderService) GetCustomers(ctx context.Context, companyCode string) ([]Customer, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE company_id = $1 ORDER BY code", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (s *orderService) GetCustomer(ctx context.Context, companyCode string, customerID int) (*Customer, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	return loadCustomer(ctx, s.pool, companyID, customerID)
}

func (s *orderService) CreateProduct(ctx context.Context, companyCode string, in ProductInput) (*Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		INSERT INTO products (company_id, code, name, description, price_ex_vat, vat_rate,
		                      external_production_cost, internal_production_cost, photographer_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		companyID, in.Code, in.Name, in.Description, in.PriceExVAT, *in.VATRate,
		in.ExternalCost, in.InternalCost, in.PhotographerFee))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, FieldError("code", "product code %s already exists", in.Code)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (s *orderService) UpdateProduct(ctx context.Context, companyCode string, productID int, in ProductInput) (*Product, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products
		SET code = $3, name = $4, description = $5, price_ex_vat = $6, vat_rate = $7,
		    external_production_cost = $8, internal_production_cost = $9, photographer_fee = $10,
		    updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING `+productColumns,
		productID, companyID, in.Code, in.Name, in.Description, in.PriceExVAT, *in.VATRate,
		in.ExternalCost, in.InternalCost, in.PhotographerFee))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("product %d not found", productID)
		}
		if isUniqueViolation(err) {
			return nil, FieldError("code", "product code %s already exists", in.Code)
		}
		return nil, fmt.Errorf("failed to update product %d: %w", productID, err)
	}
	return p, nil
}

func (s *orderService) DeactivateProduct(ctx context.Context, companyCode string, productID int) error {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE products SET is_active = false, updated_at = NOW() WHERE id = $1 AND company_id = $2",
		productID, companyID)
	if err != nil {
		return fmt.Errorf("failed to deactivate product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundErrorf("product %d not found", productID)
	}
	return nil
}

func (s *orderService) GetProducts(ctx context.Context, companyCode string, includeInactive bool) ([]Product, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + productColumns + " FROM products WHERE company_id = $1"
	if !includeInactive {
		query += " AND is_active = true"
	}
	query += " ORDER BY code"

	rows, err := s.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) QuoteOrder(ctx context.Context, companyCode string, selections []ProductSelection) (*OrderTotals, error) {
	if len(selections) == 0 {
		return nil, ValidationErrorf(ErrNoProductsSelected, "no products selected")
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	products, err := loadSelectedProducts(ctx, s.pool, companyID, selections)
	if err != nil {
		return nil, err
	}
	return ComputeOrderTotals(selections, products, s.pricing)
}

func (s *orderService) CreateOrder(ctx context.Context, companyCode string, in OrderInput) (*Order, error) {
	if len(in.Products) == 0 {
		return nil, ValidationErrorf(ErrNoProductsSelected, "no products selected")
	}
	if in.CustomerID <= 0 {
		return nil, FieldError("customer_id", "customer is required")
	}
	in.PropertyAddress = strings.TrimSpace(in.PropertyAddress)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}
	if _, err := loadCustomer(ctx, tx, companyID, in.CustomerID); err != nil {
		return nil, err
	}

	products, err := loadSelectedProducts(ctx, tx, companyID, in.Products)
	if err != nil {
		return nil, err
	}
	totals, err := ComputeOrderTotals(in.Products, products, s.pricing)
	if err != nil {
		return nil, err
	}

	seq, err := nextNumber(ctx, tx, companyID, seqOrder, 0)
	if err != nil {
		return nil, err
	}

	status := OrderPending
	if in.ScheduledDate != nil {
		status = OrderScheduled
	}

	var orderID int
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (company_id, order_number, customer_id, property_address, scheduled_date, status, notes,
		                    total_amount, vat_amount, photographer_fee, external_cost, internal_cost, company_profit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, companyID, FormatOrderNumber(seq), in.CustomerID, in.PropertyAddress, in.ScheduledDate, string(status), in.Notes,
		totals.Subtotal, totals.VATAmount, totals.PhotographerFee, totals.ExternalCost, totals.InternalCost,
		totals.CompanyProfit).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	if err := insertOrderLines(ctx, tx, orderID, totals.Lines); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	order, err := loadOrder(ctx, s.pool, companyID, orderID)
	if err != nil {
		return nil, err
	}
	publish(s.events, TopicOrderCreated, order)
	return order, nil
}

func (s *orderService) ReplaceOrderLines(ctx context.Context, companyCode string, orderID int, selections []ProductSelection) (*Order, error) {
	if len(selections) == 0 {
		return nil, ValidationErrorf(ErrNoProductsSelected, "no products selected")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}

	orderNumber, status, invoiceID, err := lockOrder(ctx, tx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if invoiceID != nil {
		return nil, ValidationErrorf(ErrOrderLocked,
			"order %s is invoiced and can no longer be edited", orderNumber)
	}
	if !status.CanEditLines() {
		return nil, ValidationErrorf(ErrOrderLocked,
			"order %s cannot be edited in status %s", orderNumber, status)
	}

	products, err := loadSelectedProducts(ctx, tx, companyID, selections)
	if err != nil {
		return nil, err
	}
	totals, err := ComputeOrderTotals(selections, products, s.pricing)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM order_lines WHERE order_id = $1", orderID); err != nil {
		return nil, fmt.Errorf("failed to delete lines of order %d: %w", orderID, err)
	}
	if err := insertOrderLines(ctx, tx, orderID, totals.Lines); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET total_amount = $2, vat_amount = $3, photographer_fee = $4, external_cost = $5,
		    internal_cost = $6, company_profit = $7, updated_at = NOW()
		WHERE id = $1
	`, orderID, totals.Subtotal, totals.VATAmount, totals.PhotographerFee, totals.ExternalCost,
		totals.InternalCost, totals.CompanyProfit)
	if err != nil {
		return nil, fmt.Errorf("failed to update snapshot of order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit line replacement: %w", err)
	}
	return loadOrder(ctx, s.pool, companyID, orderID)
}

func (s *orderService) TransitionOrder(ctx context.Context, companyCode string, orderID int, next OrderStatus) (*Order, error) {
	if !next.Valid() {
		return nil, FieldError("status", "unknown order status %q", next)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}

	orderNumber, status, invoiceID, err := lockOrder(ctx, tx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if !status.CanTransitionTo(next) {
		return nil, ValidationErrorf(ErrInvalidTransition,
			"order %s cannot move from %s to %s", orderNumber, status, next)
	}
	if next == OrderCancelled && invoiceID != nil {
		return nil, ValidationErrorf(ErrOrderLocked,
			"order %s is invoiced and cannot be cancelled", orderNumber)
	}

	_, err = tx.Exec(ctx, "UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1", orderID, string(next))
	if err != nil {
		return nil, fmt.Errorf("failed to update status of order %d: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order transition: %w", err)
	}
	return loadOrder(ctx, s.pool, companyID, orderID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, companyCode string, orderID int) (*Order, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	return loadOrder(ctx, s.pool, companyID, orderID)
}

func (s *orderService) GetOrders(ctx context.Context, companyCode string, filter OrderFilter) ([]Order, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := orderSelect + " WHERE o.company_id = $1"
	args := []any{companyID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND o.status = $%d", len(args))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND o.customer_id = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND o.scheduled_date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND o.scheduled_date <= $%d", len(args))
	}
	if filter.Uninvoiced {
		query += " AND o.invoice_id IS NULL"
	}
	query += " ORDER BY o.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := attachOrderLines(ctx, s.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// lockOrder takes a row lock on the order for the rest of tx.
func lockOrder(ctx context.Context, tx pgx.Tx, companyID, orderID int) (string, OrderStatus, *int, error) {
	var (
		number    string
		status    OrderStatus
		invoiceID *int
	)
	err := tx.QueryRow(ctx,
		"SELECT order_number, status, invoice_id FROM orders WHERE id = $1 AND company_id = $2 FOR UPDATE",
		orderID, companyID,
	).Scan(&number, &status, &invoiceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil, NotFoundErrorf("order %d not found", orderID)
		}
		return "", "", nil, fmt.Errorf("failed to lock order %d: %w", orderID, err)
	}
	return number, status, invoiceID, nil
}

func insertOrderLines(ctx context.Context, tx pgx.Tx, orderID int, lines []PricedLine) error {
	for i, l := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO order_lines (order_id, line_number, product_id, product_code, product_name,
			                         quantity, unit_price, total_price, vat_rate,
			                         unit_external_cost, unit_internal_cost, unit_photographer_fee)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, orderID, i+1, l.ProductID, l.ProductCode, l.ProductName, l.Quantity, l.UnitPrice, l.TotalPrice, l.VATRate,
			l.UnitExternalCost, l.UnitInternalCost, l.UnitPhotographerFee)
		if err != nil {
			return fmt.Errorf("failed to insert order line %d: %w", i+1, err)
		}
	}
	return nil
}
