package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-agency/internal/core"
	"photo-agency/internal/logger"

	"github.com/araddon/dateparse"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type appService struct {
	pool           *pgxpool.Pool
	defaultCompany string
	companies      core.CompanyService
	orders         core.OrderService
	invoices       core.InvoiceService
	reports        core.ReportingService
	users          core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
// defaultCompany may be empty when exactly one company exists.
func NewAppService(
	pool *pgxpool.Pool,
	defaultCompany string,
	companies core.CompanyService,
	orders core.OrderService,
	invoices core.InvoiceService,
	reports core.ReportingService,
	users core.UserService,
) ApplicationService {
	return &appService{
		pool:           pool,
		defaultCompany: defaultCompany,
		companies:      companies,
		orders:         orders,
		invoices:       invoices,
		reports:        reports,
		users:          users,
	}
}

// ── Tenants & master data ─────────────────────────────────────────────────────

func (s *appService) LoadDefaultCompany(ctx context.Context) (*core.Company, error) {
	if s.defaultCompany != "" {
		return s.companies.GetCompany(ctx, s.defaultCompany)
	}

	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple companies found; set COMPANY_CODE env var (e.g. COMPANY_CODE=1000)")
	}
	if count == 0 {
		return nil, fmt.Errorf("no company found; create one with `photoagency company create`")
	}

	var code string
	if err := s.pool.QueryRow(ctx, "SELECT company_code FROM companies LIMIT 1").Scan(&code); err != nil {
		return nil, fmt.Errorf("failed to load default company: %w", err)
	}
	return s.companies.GetCompany(ctx, code)
}

func (s *appService) CreateCompany(ctx context.Context, code, name, currency string) (*core.Company, error) {
	return s.companies.CreateCompany(ctx, strings.TrimSpace(code), strings.TrimSpace(name), strings.ToUpper(currency))
}

func (s *appService) ListCustomers(ctx context.Context, companyCode string) (*CustomerListResult, error) {
	customers, err := s.orders.GetCustomers(ctx, companyCode)
	if err != nil {
		return nil, err
	}
	return &CustomerListResult{Customers: customers}, nil
}

func (s *appService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*core.Customer, error) {
	return s.orders.CreateCustomer(ctx, req.CompanyCode, core.CustomerInput{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		Email:            strings.TrimSpace(req.Email),
		Phone:            req.Phone,
		Address:          req.Address,
		PaymentTermsDays: req.PaymentTermsDays,
	})
}

func (s *appService) ListProducts(ctx context.Context, companyCode string, includeInactive bool) (*ProductListResult, error) {
	products, err := s.orders.GetProducts(ctx, companyCode, includeInactive)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

func (s *appService) CreateProduct(ctx context.Context, req ProductRequest) (*core.Product, error) {
	return s.orders.CreateProduct(ctx, req.CompanyCode, req.input())
}

func (s *appService) UpdateProduct(ctx context.Context, productID int, req ProductRequest) (*core.Product, error) {
	return s.orders.UpdateProduct(ctx, req.CompanyCode, productID, req.input())
}

func (s *appService) DeactivateProduct(ctx context.Context, companyCode string, productID int) error {
	return s.orders.DeactivateProduct(ctx, companyCode, productID)
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) QuoteOrder(ctx context.Context, companyCode string, products []core.ProductSelection) (*QuoteResult, error) {
	totals, err := s.orders.QuoteOrder(ctx, companyCode, products)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		Totals: totals,
		Profit: core.ProjectProfit(totals.Subtotal, totals.VATAmount, totals.CompanyProfit),
	}, nil
}

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	scheduled, err := parseDate("scheduled_date", req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.CreateOrder(ctx, req.CompanyCode, core.OrderInput{
		CustomerID:      req.CustomerID,
		PropertyAddress: req.PropertyAddress,
		ScheduledDate:   scheduled,
		Notes:           req.Notes,
		Products:        req.Products,
	})
	if err != nil {
		return nil, err
	}
	return newOrderResult(order), nil
}

func (s *appService) ReplaceOrderLines(ctx context.Context, companyCode string, orderID int, products []core.ProductSelection) (*OrderResult, error) {
	order, err := s.orders.ReplaceOrderLines(ctx, companyCode, orderID, products)
	if err != nil {
		return nil, err
	}
	return newOrderResult(order), nil
}

func (s *appService) TransitionOrder(ctx context.Context, companyCode string, orderID int, status string) (*OrderResult, error) {
	order, err := s.orders.TransitionOrder(ctx, companyCode, orderID, core.OrderStatus(strings.ToUpper(status)))
	if err != nil {
		return nil, err
	}
	return newOrderResult(order), nil
}

func (s *appService) GetOrder(ctx context.Context, companyCode string, orderID int) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, companyCode, orderID)
	if err != nil {
		return nil, err
	}
	return newOrderResult(order), nil
}

func (s *appService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error) {
	filter := core.OrderFilter{
		Status:     core.OrderStatus(strings.ToUpper(req.Status)),
		CustomerID: req.CustomerID,
		Uninvoiced: req.Uninvoiced,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, core.FieldError("status", "unknown order status %q", req.Status)
	}
	var err error
	if filter.From, err = parseDate("from", req.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseDate("to", req.To); err != nil {
		return nil, err
	}

	orders, err := s.orders.GetOrders(ctx, req.CompanyCode, filter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders, CompanyCode: req.CompanyCode}, nil
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func (s *appService) CreatePeriodInvoice(ctx context.Context, req CreatePeriodInvoiceRequest) (*InvoiceResult, error) {
	inv, err := s.invoices.CreatePeriodInvoice(ctx, req.CompanyCode, req.CustomerID, req.Year, req.Month)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) CreateOrderInvoice(ctx context.Context, companyCode string, orderID int) (*InvoiceResult, error) {
	inv, err := s.invoices.CreateOrderInvoice(ctx, companyCode, orderID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) GetInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error) {
	inv, err := s.invoices.GetInvoice(ctx, companyCode, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) ListInvoices(ctx context.Context, req ListInvoicesRequest) (*InvoiceListResult, error) {
	filter, err := invoiceFilter(req)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoices.GetInvoices(ctx, req.CompanyCode, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices, CompanyCode: req.CompanyCode}, nil
}

func (s *appService) SendInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error) {
	return s.transitionInvoice(ctx, companyCode, invoiceID, core.InvoiceSent)
}

func (s *appService) PayInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error) {
	return s.transitionInvoice(ctx, companyCode, invoiceID, core.InvoicePaid)
}

func (s *appService) CancelInvoice(ctx context.Context, companyCode string, invoiceID int) (*InvoiceResult, error) {
	return s.transitionInvoice(ctx, companyCode, invoiceID, core.InvoiceCancelled)
}

func (s *appService) transitionInvoice(ctx context.Context, companyCode string, invoiceID int, next core.InvoiceStatus) (*InvoiceResult, error) {
	inv, err := s.invoices.TransitionInvoice(ctx, companyCode, invoiceID, next)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	return s.invoices.MarkOverdue(ctx, asOf)
}

func (s *appService) RunPeriodInvoicing(ctx context.Context, year, month int) (*PeriodRunResult, error) {
	log := logger.WithComponent("period-invoicing")

	candidates, err := s.invoices.PendingPeriodInvoices(ctx, year, month)
	if err != nil {
		return nil, err
	}

	result := &PeriodRunResult{Year: year, Month: month}
	for _, c := range candidates {
		inv, err := s.invoices.CreatePeriodInvoice(ctx, c.CompanyCode, c.CustomerID, year, month)
		if err != nil {
			// Another writer may have consolidated this customer in the meantime.
			if errors.Is(err, core.ErrNothingToInvoice) {
				continue
			}
			log.Error().Err(err).
				Str("company", c.CompanyCode).
				Int("customer_id", c.CustomerID).
				Msg("period invoice failed")
			result.Failures = append(result.Failures, PeriodFailure{
				CompanyCode: c.CompanyCode,
				CustomerID:  c.CustomerID,
				Error:       err.Error(),
			})
			continue
		}
		log.Info().
			Str("company", c.CompanyCode).
			Str("invoice", inv.InvoiceNumber).
			Int("orders", inv.OrderCount).
			Str("total", inv.Total.StringFixed(2)).
			Msg("period invoice created")
		result.Invoices = append(result.Invoices, *inv)
	}
	return result, nil
}

// ── Reporting ────────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context, companyCode string, year, month int) (*core.Dashboard, error) {
	return s.reports.GetDashboard(ctx, companyCode, year, month)
}

// ── Users ────────────────────────────────────────────────────────────────────

// errInvalidCredentials is returned for both unknown users and wrong passwords.
var errInvalidCredentials = errors.New("invalid username or password")

func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return &UserSession{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		CompanyID:   user.CompanyID,
		CompanyCode: user.CompanyCode,
	}, nil
}

func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userResult(user), nil
}

const minPasswordLength = 8

func (s *appService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResult, error) {
	if len(req.Password) < minPasswordLength {
		return nil, core.FieldError("password", "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, req.CompanyCode, strings.TrimSpace(req.Username), req.Email, string(hash), req.Role)
	if err != nil {
		return nil, err
	}
	return userResult(user), nil
}

func userResult(u *core.User) *UserResult {
	return &UserResult{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		CompanyCode: u.CompanyCode,
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// parseDate accepts any layout dateparse understands and interprets it as UTC wall-clock time.
// An empty string yields nil.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return nil, core.FieldError(field, "cannot parse %s %q as a date", field, value)
	}
	// An explicit offset is dropped, not converted, so the calendar day stays as written.
	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return &t, nil
}

func invoiceFilter(req ListInvoicesRequest) (core.InvoiceFilter, error) {
	filter := core.InvoiceFilter{
		Status:     core.InvoiceStatus(strings.ToUpper(req.Status)),
		CustomerID: req.CustomerID,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, core.FieldError("status", "unknown invoice status %q", req.Status)
	}
	return filter, nil
}
