package app

import "photo-agency/internal/core"

// CustomerListResult is returned by ListCustomers.
type CustomerListResult struct {
	Customers []core.Customer `json:"customers"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// QuoteResult is returned by QuoteOrder.
type QuoteResult struct {
	Totals *core.OrderTotals     `json:"totals"`
	Profit core.ProfitProjection `json:"profit"`
}

// OrderResult is returned by order operations.
type OrderResult struct {
	Order  *core.Order           `json:"order"`
	Profit core.ProfitProjection `json:"profit"`
}

func newOrderResult(o *core.Order) *OrderResult {
	return &OrderResult{Order: o, Profit: core.ProfitProjectionFor(o)}
}

// OrderListResult is returned by ListOrders.
type OrderListResult struct {
	Orders      []core.Order `json:"orders"`
	CompanyCode string       `json:"company_code"`
}

// InvoiceResult is returned by invoice operations.
type InvoiceResult struct {
	Invoice *core.Invoice `json:"invoice"`
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices    []core.Invoice `json:"invoices"`
	CompanyCode string         `json:"company_code"`
}

// PeriodRunResult is returned by RunPeriodInvoicing.
type PeriodRunResult struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Invoices []core.Invoice  `json:"invoices"`
	Failures []PeriodFailure `json:"failures"`
}

// PeriodFailure records one customer whose consolidation failed.
type PeriodFailure struct {
	CompanyCode string `json:"company_code"`
	CustomerID  int    `json:"customer_id"`
	Error       string `json:"error"`
}

// UserSession is returned by AuthenticateUser on successful login.
type UserSession struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	CompanyID   int    `json:"company_id"`
	CompanyCode string `json:"company_code"`
}

// UserResult is returned by GetUser.
type UserResult struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CompanyCode string `json:"company_code"`
}
