package app

import (
	"context"
	"io"
	"time"

	"photo-agency/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web, jobs) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// LoadDefaultCompany loads the active company. Uses COMPANY_CODE env var if set;
	// otherwise expects exactly one company in the database.
	LoadDefaultCompany(ctx context.Context) (*core.Company, error)

	// CreateCompany provisions a new tenant.
	CreateCompany(ctx context.Context, code, name, currency string) (*core.Company, error)

	// ListCustomers returns all customers for a company.
	ListCustomers(ctx context.Context, companyCode string) (*CustomerListResult, error)

	// CreateCustomer creates a customer for a company.
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error)

	// ListProducts returns products for a company. Inactive products are included on request.
	ListProducts(ctx context.Context, companyCode string, includeInactive bool) (*ProductListResult, error)

	// CreateProduct creates a product. A missing VAT rate defaults to 25%.
	CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error)

	// UpdateProduct edits a product. Existing order lines keep their copied prices.
	UpdateProduct(ctx context.Context, productID int, req ProductRequest) (*core.Product, error)

	// DeactivateProduct hides a product from new orders.
	DeactivateProduct(ctx context.Context, companyCode string, productID int) error

	// QuoteOrder computes order totals for a product selection without saving anything.
	QuoteOrder(ctx context.Context, companyCode string, products []core.ProductSelection) (*QuoteResult, error)

	// CreateOrder creates an order and its financial snapshot.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// ReplaceOrderLines swaps the product lines of an editable order.
	ReplaceOrderLines(ctx context.Context, companyCode string, orderID int, products []core.ProductSelection) (*OrderResult, error)

	// TransitionOrder moves an order to a new production status.
	TransitionOrder(ctx context.Context, companyCode string, orderID int, status string) (*OrderResult, error)

	// GetOrder returns a single order with its profit projection.
	GetOrder(ctx context.Context, companyCode string, orderID int) (*OrderResult, error)

	// ListOrders returns orders for a company, optionally filtered.
	ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error)

	// CreatePeriodInvoice consolidates a customer's eligible orders for one month.
	CreatePeriodInvoice(ctx context.Context, req CreatePeriodInvoiceRequest) (*InvoiceResult, error)

	// CreateOrderInvoice invoices a single order.
	CreateOrderInvoice(ctx context.Context, companyCode string, orderID int) (*InvoiceResult, error)

	// GetInvoice returns a single invoice with its lines.
	GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error)

	// ListInvoices returns invoice headers, optionally filtered by status and customer.
	ListInvoices(ctx context.Context, req ListInvoicesRequest) (*InvoiceListResult, error)

	// SendInvoice, PayInvoice and CancelInvoice move an invoice through its lifecycle.
	SendInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error)
	PayInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error)
	CancelInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error)

	// MarkOverdueInvoices flags SENT invoices past their due date as OVERDUE.
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)

	// RunPeriodInvoicing creates period invoices for every customer with eligible orders in the month.
	// One customer's failure does not stop the others.
	RunPeriodInvoicing(ctx context.Context, year, month int) (*PeriodRunResult, error)

	// GetDashboard returns the monthly summary for a company.
	GetDashboard(ctx context.Context, companyCode string, year, month int) (*core.Dashboard, error)

	// ExportOrdersCSV writes the orders of one month, with profit figures, as CSV.
	ExportOrdersCSV(ctx context.Context, w io.Writer, companyCode string, year, month int) error

	// ExportInvoicesCSV writes invoice headers as CSV.
	ExportInvoicesCSV(ctx context.Context, w io.Writer, req ListInvoicesRequest) error

	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// CreateUser hashes the password and stores a new user.
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error)
}
