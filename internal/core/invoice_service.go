package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPaymentTermsDays applies when neither the customer nor the service configures terms.
const DefaultPaymentTermsDays = 14

// InvoiceService creates invoices from orders and moves them through their lifecycle.
type InvoiceService interface {
	// CreatePeriodInvoice consolidates every eligible, uninvoiced order of a customer with a
	// scheduled date in the given month into one invoice and links the orders to it.
	CreatePeriodInvoice(ctx context.Context, companyCode string, customerID, year, month int) (*Invoice, error)
	// CreateOrderInvoice invoices exactly one order.
	CreateOrderInvoice(ctx context.Context, companyCode string, orderID int) (*Invoice, error)

	GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*Invoice, error)
	GetInvoices(ctx context.Context, companyCode string, filter InvoiceFilter) ([]Invoice, error)
	TransitionInvoice(ctx context.Context, companyCode string, invoiceID int, next InvoiceStatus) (*Invoice, error)

	// MarkOverdue moves SENT invoices whose due date is before asOf to OVERDUE, across all tenants.
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	// PendingPeriodInvoices lists every (company, customer) with orders awaiting consolidation in the month.
	PendingPeriodInvoices(ctx context.Context, year, month int) ([]PeriodCandidate, error)
}

// PeriodCandidate is a customer with uninvoiced, invoiceable orders in a billing period.
type PeriodCandidate struct {
	CompanyCode string
	CustomerID  int
	OrderCount  int
}

// InvoiceOptions configures an InvoiceService.
type InvoiceOptions struct {
	// PaymentTermsDays is used for customers without their own terms. Zero means DefaultPaymentTermsDays.
	PaymentTermsDays int
	// Now returns the issue time. Nil means time.Now.
	Now func() time.Time
}

type invoiceService struct {
	pool   *pgxpool.Pool
	terms  int
	now    func() time.Time
	events Publisher
}

// NewInvoiceService constructs an InvoiceService. events may be nil.
func NewInvoiceService(pool *pgxpool.Pool, opts InvoiceOptions, events Publisher) InvoiceService {
	if opts.PaymentTermsDays <= 0 {
		opts.PaymentTermsDays = DefaultPaymentTermsDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &invoiceService{pool: pool, terms: opts.PaymentTermsDays, now: opts.Now, events: events}
}

func invoiceableStatusStrings() []string {
	out := make([]string, len(InvoiceableStatuses))
	for i, s := range InvoiceableStatuses {
		out[i] = string(s)
	}
	return out
}

// ── Creation ─────────────────────────────────────────────────────────────────

func (s *invoiceService) CreatePeriodInvoice(ctx context.Context, companyCode string, customerID, year, month int) (*Invoice, error) {
	start, end, err := BillingPeriod(year, month)
	if err != nil {
		return nil, err
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
	customer, err := loadCustomer(ctx, tx, companyID, customerID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, orderSelect+`
		WHERE o.company_id = $1
		  AND o.customer_id = $2
		  AND o.scheduled_date BETWEEN $3 AND $4
		  AND o.status = ANY($5)
		  AND o.invoice_id IS NULL
		ORDER BY o.scheduled_date, o.id
		FOR UPDATE OF o
	`, companyID, customerID, start, end, invoiceableStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to select orders for period invoice: %w", err)
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := attachOrderLines(ctx, tx, orders); err != nil {
		return nil, err
	}

	draft, err := ConsolidateOrders(orders)
	if err != nil {
		return nil, err
	}

	invoiceID, err := s.insertInvoice(ctx, tx, companyID, customer, draft, invoiceRef{
		periodStart: &start,
		periodEnd:   &end,
	})
	if err != nil {
		return nil, err
	}
	if err := linkOrders(ctx, tx, invoiceID, draft.OrderIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit period invoice: %w", err)
	}

	inv, err := loadInvoice(ctx, s.pool, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	publish(s.events, TopicInvoiceCreated, inv)
	return inv, nil
}

func (s *invoiceService) CreateOrderInvoice(ctx context.Context, companyCode string, orderID int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	companyID, err := resolveCompanyID(ctx, tx, companyCode)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := lockOrder(ctx, tx, companyID, orderID); err != nil {
		return nil, err
	}
	order, err := loadOrder(ctx, tx, companyID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderCancelled {
		return nil, ValidationErrorf(ErrNothingToInvoice, "order %s is cancelled", order.OrderNumber)
	}

	draft, err := DraftFromOrder(order)
	if err != nil {
		return nil, err
	}
	customer, err := loadCustomer(ctx, tx, companyID, order.CustomerID)
	if err != nil {
		return nil, err
	}

	invoiceID, err := s.insertInvoice(ctx, tx, companyID, customer, draft, invoiceRef{orderID: &order.ID})
	if err != nil {
		return nil, orderInvoiceInsertError(err, order.OrderNumber)
	}
	if err := linkOrders(ctx, tx, invoiceID, draft.OrderIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order invoice: %w", err)
	}

	inv, err := loadInvoice(ctx, s.pool, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	publish(s.events, TopicInvoiceCreated, inv)
	return inv, nil
}

// orderInvoiceInsertError reports a unique-index hit on invoices.order_id with the
// same validation error as the invoiced-order check in DraftFromOrder.
func orderInvoiceInsertError(err error, orderNumber string) error {
	if isUniqueViolation(err) {
		return ValidationErrorf(ErrInvoiceExists, "invoice already exists for order %s", orderNumber)
	}
	return err
}

// invoiceRef says what an invoice bills: one order or one period.
type invoiceRef struct {
	orderID     *int
	periodStart *time.Time
	periodEnd   *time.Time
}

func (s *invoiceService) insertInvoice(ctx context.Context, tx pgx.Tx, companyID int, customer *Customer, draft *DraftInvoice, ref invoiceRef) (int, error) {
	issued := s.now().UTC()
	issueDate := time.Date(issued.Year(), issued.Month(), issued.Day(), 0, 0, 0, 0, time.UTC)
	due := DueDate(issueDate, customer.PaymentTerms(s.terms))

	seq, err := nextNumber(ctx, tx, companyID, seqInvoice, issueDate.Year())
	if err != nil {
		return 0, err
	}

	var invoiceID int
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (company_id, invoice_number, customer_id, status, subtotal, vat_amount, total,
		                      issue_date, due_date, order_id, period_start, period_end, order_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, companyID, FormatInvoiceNumber(issueDate.Year(), seq), customer.ID, string(InvoiceDraft),
		draft.Subtotal, draft.VATAmount, draft.Total(), issueDate, due,
		ref.orderID, ref.periodStart, ref.periodEnd, len(draft.OrderIDs)).Scan(&invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for _, l := range draft.Lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_lines (invoice_id, line_number, product_id, description, quantity, unit_price, total_price, vat_rate)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, invoiceID, l.LineNumber, l.ProductID, l.Description, l.Quantity, l.UnitPrice, l.TotalPrice, l.VATRate)
		if err != nil {
			return 0, fmt.Errorf("failed to insert invoice line %d: %w", l.LineNumber, err)
		}
	}
	return invoiceID, nil
}

// linkOrders points every order at the invoice. The update only touches orders that are
// still uninvoiced; if any of them was claimed by another transaction the whole invoice
// is rolled back.
func linkOrders(ctx context.Context, tx pgx.Tx, invoiceID int, orderIDs []int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE orders SET invoice_id = $1, updated_at = NOW()
		WHERE id = ANY($2) AND invoice_id IS NULL
	`, invoiceID, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to link orders to invoice %d: %w", invoiceID, err)
	}
	if tag.RowsAffected() != int64(len(orderIDs)) {
		return ValidationErrorf(ErrConcurrentInvoicing,
			"%d of %d orders were invoiced concurrently, try again",
			int64(len(orderIDs))-tag.RowsAffected(), len(orderIDs))
	}
	return nil
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (s *invoiceService) TransitionInvoice(ctx context.Context, companyCode string, invoiceID int, next InvoiceStatus) (*Invoice, error) {
	if !next.Valid() {
		return nil, FieldError("status", "unknown invoice status %q", next)
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

	var (
		number string
		status InvoiceStatus
	)
	err = tx.QueryRow(ctx,
		"SELECT invoice_number, status FROM invoices WHERE id = $1 AND company_id = $2 FOR UPDATE",
		invoiceID, companyID,
	).Scan(&number, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErrorf("invoice %d not found", invoiceID)
		}
		return nil, fmt.Errorf("failed to lock invoice %d: %w", invoiceID, err)
	}
	if !status.CanTransitionTo(next) {
		return nil, ValidationErrorf(ErrInvalidTransition,
			"invoice %s cannot move from %s to %s", number, status, next)
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices
		SET status = $2,
		    sent_at      = CASE WHEN $2 = 'SENT' THEN NOW() ELSE sent_at END,
		    paid_at      = CASE WHEN $2 = 'PAID' THEN NOW() ELSE paid_at END,
		    cancelled_at = CASE WHEN $2 = 'CANCELLED' THEN NOW() ELSE cancelled_at END
		WHERE id = $1
	`, invoiceID, string(next))
	if err != nil {
		return nil, fmt.Errorf("failed to update status of invoice %d: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice transition: %w", err)
	}

	inv, err := loadInvoice(ctx, s.pool, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if next == InvoiceSent {
		publish(s.events, TopicInvoiceSent, inv)
	}
	return inv, nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	day := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	tag, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = $1 WHERE status = $2 AND due_date < $3",
		string(InvoiceOverdue), string(InvoiceSent), day)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *invoiceService) PendingPeriodInvoices(ctx context.Context, year, month int) ([]PeriodCandidate, error) {
	start, end, err := BillingPeriod(year, month)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT c.company_code, o.customer_id, COUNT(*)
		FROM orders o
		JOIN companies c ON c.id = o.company_id
		WHERE o.scheduled_date BETWEEN $1 AND $2
		  AND o.status = ANY($3)
		  AND o.invoice_id IS NULL
		GROUP BY c.company_code, o.customer_id
		ORDER BY c.company_code, o.customer_id
	`, start, end, invoiceableStatusStrings())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending period invoices: %w", err)
	}
	defer rows.Close()

	var out []PeriodCandidate
	for rows.Next() {
		var c PeriodCandidate
		if err := rows.Scan(&c.CompanyCode, &c.CustomerID, &c.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan period candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *invoiceService) GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*Invoice, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}
	return loadInvoice(ctx, s.pool, companyID, invoiceID)
}

func (s *invoiceService) GetInvoices(ctx context.Context, companyCode string, filter InvoiceFilter) ([]Invoice, error) {
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	query := invoiceSelect + " WHERE i.company_id = $1"
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if filter.CustomerID > 0 {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND i.customer_id = $%d", len(args))
	}
	query += " ORDER BY i.id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}
