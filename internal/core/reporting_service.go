package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// ProductSales is one product's volume within a report period.
type ProductSales struct {
	ProductID int             `json:"product_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Dashboard summarizes one calendar month for a company.
// Order figures cover non-cancelled orders scheduled in the month; invoice figures are
// the company's open receivables at the time of the query.
type Dashboard struct {
	CompanyCode string `json:"company_code"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`

	OrderCount      int                 `json:"order_count"`
	OrdersByStatus  map[OrderStatus]int `json:"orders_by_status"`
	PhotographerFee decimal.Decimal     `json:"photographer_fee"`
	ExternalCost    decimal.Decimal     `json:"external_cost"`
	InternalCost    decimal.Decimal     `json:"internal_cost"`
	Profit          ProfitProjection    `json:"profit"`

	UninvoicedOrders int             `json:"uninvoiced_orders"`
	UninvoicedAmount decimal.Decimal `json:"uninvoiced_amount"`

	OutstandingInvoices int             `json:"outstanding_invoices"`
	OutstandingAmount   decimal.Decimal `json:"outstanding_amount"`
	OverdueAmount       decimal.Decimal `json:"overdue_amount"`

	TopProducts []ProductSales `json:"top_products"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only reporting queries over orders and invoices.
type ReportingService interface {
	// GetDashboard returns the monthly summary. Margins come from ProjectProfit.
	GetDashboard(ctx context.Context, companyCode string, year, month int) (*Dashboard, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

const topProductsLimit = 5

func (s *reportingService) GetDashboard(ctx context.Context, companyCode string, year, month int) (*Dashboard, error) {
	start, end, err := BillingPeriod(year, month)
	if err != nil {
		return nil, err
	}
	companyID, err := resolveCompanyID(ctx, s.pool, companyCode)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		CompanyCode:    companyCode,
		Year:           year,
		Month:          month,
		OrdersByStatus: make(map[OrderStatus]int),
	}

	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*),
		       COALESCE(SUM(total_amount), 0), COALESCE(SUM(vat_amount), 0),
		       COALESCE(SUM(photographer_fee), 0), COALESCE(SUM(external_cost), 0),
		       COALESCE(SUM(internal_cost), 0), COALESCE(SUM(company_profit), 0),
		       COUNT(*) FILTER (WHERE invoice_id IS NULL),
		       COALESCE(SUM(total_amount + vat_amount) FILTER (WHERE invoice_id IS NULL), 0)
		FROM orders
		WHERE company_id = $1
		  AND scheduled_date BETWEEN $2 AND $3
		  AND status <> 'CANCELLED'
		GROUP BY status
	`, companyID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query order summary: %w", err)
	}
	defer rows.Close()

	var revenue, vat, profit decimal.Decimal
	for rows.Next() {
		var (
			status                             OrderStatus
			count, uninvoiced                  int
			rev, v, fee, ext, in, p, openValue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &rev, &v, &fee, &ext, &in, &p, &uninvoiced, &openValue); err != nil {
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		d.OrdersByStatus[status] = count
		d.OrderCount += count
		revenue = revenue.Add(rev)
		vat = vat.Add(v)
		profit = profit.Add(p)
		d.PhotographerFee = d.PhotographerFee.Add(fee)
		d.ExternalCost = d.ExternalCost.Add(ext)
		d.InternalCost = d.InternalCost.Add(in)
		if status.IsInvoiceable() {
			d.UninvoicedOrders += uninvoiced
			d.UninvoicedAmount = d.UninvoicedAmount.Add(openValue)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	d.Profit = ProjectProfit(revenue, vat, profit)

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total), 0),
		       COALESCE(SUM(total) FILTER (WHERE status = 'OVERDUE'), 0)
		FROM invoices
		WHERE company_id = $1 AND status IN ('SENT', 'OVERDUE')
	`, companyID).Scan(&d.OutstandingInvoices, &d.OutstandingAmount, &d.OverdueAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to query outstanding invoices: %w", err)
	}

	top, err := s.pool.Query(ctx, `
		SELECT p.id, p.code, p.name, SUM(ol.quantity), SUM(ol.total_price)
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		JOIN products p ON p.id = ol.product_id
		WHERE o.company_id = $1
		  AND o.scheduled_date BETWEEN $2 AND $3
		  AND o.status <> 'CANCELLED'
		GROUP BY p.id, p.code, p.name
		ORDER BY SUM(ol.total_price) DESC, p.code
		LIMIT $4
	`, companyID, start, end, topProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer top.Close()
	for top.Next() {
		var ps ProductSales
		if err := top.Scan(&ps.ProductID, &ps.Code, &ps.Name, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		d.TopProducts = append(d.TopProducts, ps)
	}
	return d, top.Err()
}
