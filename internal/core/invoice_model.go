package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks an invoice from draft to settlement.
//
//	DRAFT → SENT → PAID
//	DRAFT/SENT → OVERDUE → PAID
//	DRAFT/SENT/OVERDUE → CANCELLED
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "DRAFT"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceDraft:   {InvoiceSent, InvoiceOverdue, InvoiceCancelled},
	InvoiceSent:    {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid, InvoiceCancelled},
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, st := range invoiceTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Invoice is either a single-order invoice (OrderID set) or a period invoice
// (PeriodStart/PeriodEnd set) consolidating several orders.
type Invoice struct {
	ID            int           `json:"id"`
	CompanyID     int           `json:"company_id"`
	InvoiceNumber string        `json:"invoice_number"`
	CustomerID    int           `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`  // joined from customers
	CustomerEmail string        `json:"customer_email"` // joined from customers
	Status        InvoiceStatus `json:"status"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	VATAmount decimal.Decimal `json:"vat_amount"`
	Total     decimal.Decimal `json:"total"`

	IssueDate time.Time `json:"issue_date"`
	DueDate   time.Time `json:"due_date"`

	OrderID     *int       `json:"order_id,omitempty"`
	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	OrderCount  int        `json:"order_count"`

	Lines       []InvoiceLine `json:"lines"`
	CreatedAt   time.Time     `json:"created_at"`
	SentAt      *time.Time    `json:"sent_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

// IsPeriodInvoice reports whether the invoice consolidates a billing period.
func (i *Invoice) IsPeriodInvoice() bool {
	return i.PeriodStart != nil
}

// InvoiceLine is one billed product on an invoice.
type InvoiceLine struct {
	ID          int             `json:"id"`
	InvoiceID   int             `json:"invoice_id"`
	LineNumber  int             `json:"line_number"`
	ProductID   *int            `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	VATRate     decimal.Decimal `json:"vat_rate"`
}

// InvoiceFilter narrows GetInvoices. Zero values mean "no filter".
type InvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID int
}
