package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// resolveCompanyID looks up the internal company ID from a company code.
func resolveCompanyID(ctx context.Context, q pgxQuerier, companyCode string) (int, error) {
	var id int
	err := q.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, NotFoundErrorf("company %s not found", companyCode)
		}
		return 0, fmt.Errorf("failed to resolve company %s: %w", companyCode, err)
	}
	return id, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ── Customers ────────────────────────────────────────────────────────────────

const customerColumns = `id, company_id, code, name, email, phone, address, payment_terms_days, created_at`

func scanCustomer(row rowScanner) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.PaymentTermsDays, &c.CreatedAt)
	return &c, err
}

func loadCustomer(ctx context.Context, q pgxQuerier, companyID, customerID int) (*Customer, error) {
	c, err := scanCustomer(q.QueryRow(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = $1 AND company_id = $2",
		customerID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("customer %d not found", customerID)
		}
		return nil, fmt.Errorf("failed to fetch customer %d: %w", customerID, err)
	}
	return c, nil
}

// ── Products ─────────────────────────────────────────────────────────────────

const productColumns = `id, company_id, code, name, description, price_ex_vat, vat_rate,
	external_production_cost, internal_production_cost, photographer_fee,
	is_active, created_at, updated_at`

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CompanyID, &p.Code, &p.Name, &p.Description, &p.PriceExVAT, &p.VATRate,
		&p.ExternalCost, &p.InternalCost, &p.PhotographerFee,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

// loadSelectedProducts fetches the tenant's products referenced by selections.
// Inactive products are returned too; pricing rejects them.
func loadSelectedProducts(ctx context.Context, q pgxQuerier, companyID int, selections []ProductSelection) ([]Product, error) {
	ids := make([]int, 0, len(selections))
	for _, s := range selections {
		ids = append(ids, s.ProductID)
	}
	rows, err := q.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE company_id = $1 AND id = ANY($2)",
		companyID, ids)
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

// ── Orders ───────────────────────────────────────────────────────────────────

const orderSelect = `
	SELECT o.id, o.company_id, o.order_number, o.customer_id, c.code, c.name, c.email,
	       o.property_address, o.scheduled_date, o.status, o.notes,
	       o.total_amount, o.vat_amount, o.photographer_fee, o.external_cost, o.internal_cost,
	       o.company_profit, o.invoice_id, o.created_at, o.updated_at
	FROM orders o
	JOIN customers c ON c.id = o.customer_id`

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.OrderNumber, &o.CustomerID, &o.CustomerCode, &o.CustomerName, &o.CustomerEmail,
		&o.PropertyAddress, &o.ScheduledDate, &o.Status, &o.Notes,
		&o.TotalAmount, &o.VATAmount, &o.PhotographerFee, &o.ExternalCost, &o.InternalCost,
		&o.CompanyProfit, &o.InvoiceID, &o.CreatedAt, &o.UpdatedAt,
	)
	return &o, err
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// loadOrder fetches one order with its lines, scoped to the company.
func loadOrder(ctx context.Context, q pgxQuerier, companyID, orderID int) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, orderSelect+" WHERE o.id = $1 AND o.company_id = $2", orderID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("order %d not found", orderID)
		}
		return nil, fmt.Errorf("failed to fetch order %d: %w", orderID, err)
	}
	lines, err := loadOrderLines(ctx, q, []int{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// attachOrderLines loads the lines of every order in one query.
func attachOrderLines(ctx context.Context, q pgxQuerier, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	lines, err := loadOrderLines(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}
	return nil
}

// loadOrderLines reads the product code and name stored on each line, not the live product.
func loadOrderLines(ctx context.Context, q pgxQuerier, orderIDs []int) (map[int][]OrderLine, error) {
	rows, err := q.Query(ctx, `
		SELECT ol.id, ol.order_id, ol.line_number, ol.product_id, ol.product_code, ol.product_name,
		       ol.quantity, ol.unit_price, ol.total_price, ol.vat_rate,
		       ol.unit_external_cost, ol.unit_internal_cost, ol.unit_photographer_fee
		FROM order_lines ol
		WHERE ol.order_id = ANY($1)
		ORDER BY ol.order_id, ol.line_number
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]OrderLine, len(orderIDs))
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ProductID, &l.ProductCode, &l.ProductName,
			&l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.VATRate,
			&l.UnitExternalCost, &l.UnitInternalCost, &l.UnitPhotographerFee); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, rows.Err()
}

// ── Invoices ─────────────────────────────────────────────────────────────────

const invoiceSelect = `
	SELECT i.id, i.company_id, i.invoice_number, i.customer_id, c.name, c.email, i.status,
	       i.subtotal, i.vat_amount, i.total, i.issue_date, i.due_date,
	       i.order_id, i.period_start, i.period_end, i.order_count,
	       i.created_at, i.sent_at, i.paid_at, i.cancelled_at
	FROM invoices i
	JOIN customers c ON c.id = i.customer_id`

func scanInvoice(row rowScanner) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.CustomerID, &inv.CustomerName, &inv.CustomerEmail, &inv.Status,
		&inv.Subtotal, &inv.VATAmount, &inv.Total, &inv.IssueDate, &inv.DueDate,
		&inv.OrderID, &inv.PeriodStart, &inv.PeriodEnd, &inv.OrderCount,
		&inv.CreatedAt, &inv.SentAt, &inv.PaidAt, &inv.CancelledAt,
	)
	return &inv, err
}

func loadInvoice(ctx context.Context, q pgxQuerier, companyID, invoiceID int) (*Invoice, error) {
	inv, err := scanInvoice(q.QueryRow(ctx, invoiceSelect+" WHERE i.id = $1 AND i.company_id = $2", invoiceID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to fetch invoice %d: %w", invoiceID, err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, line_number, product_id, description, quantity, unit_price, total_price, vat_rate
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY line_number
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.LineNumber, &l.ProductID, &l.Description,
			&l.Quantity, &l.UnitPrice, &l.TotalPrice, &l.VATRate); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}
