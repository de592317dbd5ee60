package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the production state of a photo shoot order.
//
//	PENDING → SCHEDULED → IN_PROGRESS → EDITING → READY_FOR_DELIVERY → DELIVERED → COMPLETED
//	any status before COMPLETED → CANCELLED (only while not invoiced)
type OrderStatus string

const (
	OrderPending          OrderStatus = "PENDING"
	OrderScheduled        OrderStatus = "SCHEDULED"
	OrderInProgress       OrderStatus = "IN_PROGRESS"
	OrderEditing          OrderStatus = "EDITING"
	OrderReadyForDelivery OrderStatus = "READY_FOR_DELIVERY"
	OrderDelivered        OrderStatus = "DELIVERED"
	OrderCompleted        OrderStatus = "COMPLETED"
	OrderCancelled        OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:          {OrderScheduled, OrderCancelled},
	OrderScheduled:        {OrderInProgress, OrderPending, OrderCancelled},
	OrderInProgress:       {OrderEditing, OrderCancelled},
	OrderEditing:          {OrderReadyForDelivery, OrderCancelled},
	OrderReadyForDelivery: {OrderDelivered, OrderCancelled},
	OrderDelivered:        {OrderCompleted},
}

// InvoiceableStatuses are the statuses a period invoice picks orders up from.
var InvoiceableStatuses = []OrderStatus{OrderCompleted, OrderDelivered, OrderReadyForDelivery}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderScheduled, OrderInProgress, OrderEditing,
		OrderReadyForDelivery, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanEditLines reports whether the product lines of an order in this status may be replaced.
// Once production has started the lines are locked.
func (s OrderStatus) CanEditLines() bool {
	return s == OrderPending || s == OrderScheduled
}

// IsInvoiceable reports whether orders in this status are eligible for period invoicing.
func (s OrderStatus) IsInvoiceable() bool {
	for _, st := range InvoiceableStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, st := range orderTransitions[s] {
		if st == next {
			return true
		}
	}
	return false
}

// Order is a photo shoot order with its denormalized financial snapshot.
// The snapshot fields are rewritten whenever the lines change and are frozen once
// InvoiceID is set.
type Order struct {
	ID              int         `json:"id"`
	CompanyID       int         `json:"company_id"`
	OrderNumber     string      `json:"order_number"`
	CustomerID      int         `json:"customer_id"`
	CustomerCode    string      `json:"customer_code"`  // joined from customers
	CustomerName    string      `json:"customer_name"`  // joined from customers
	CustomerEmail   string      `json:"customer_email"` // joined from customers
	PropertyAddress string      `json:"property_address"`
	ScheduledDate   *time.Time  `json:"scheduled_date,omitempty"`
	Status          OrderStatus `json:"status"`
	Notes           string      `json:"notes"`

	TotalAmount     decimal.Decimal `json:"total_amount"` // subtotal ex VAT
	VATAmount       decimal.Decimal `json:"vat_amount"`
	PhotographerFee decimal.Decimal `json:"photographer_fee"`
	ExternalCost    decimal.Decimal `json:"external_cost"`
	InternalCost    decimal.Decimal `json:"internal_cost"`
	CompanyProfit   decimal.Decimal `json:"company_profit"`

	InvoiceID *int        `json:"invoice_id,omitempty"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// IsInvoiced reports whether the order is linked to an invoice.
func (o *Order) IsInvoiced() bool {
	return o.InvoiceID != nil
}

// OrderLine is one product on an order. Prices and costs are copied from the product
// when the line is written, so later product edits do not change history.
type OrderLine struct {
	ID                  int             `json:"id"`
	OrderID             int             `json:"order_id"`
	LineNumber          int             `json:"line_number"`
	ProductID           int             `json:"product_id"`
	ProductCode         string          `json:"product_code"` // joined from products
	ProductName         string          `json:"product_name"` // joined from products
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	VATRate             decimal.Decimal `json:"vat_rate"`
	UnitExternalCost    decimal.Decimal `json:"unit_external_cost"`
	UnitInternalCost    decimal.Decimal `json:"unit_internal_cost"`
	UnitPhotographerFee decimal.Decimal `json:"unit_photographer_fee"`
}

// ProductSelection is one {product, quantity} pick from the order form.
type ProductSelection struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// OrderInput is used when creating a new order.
type OrderInput struct {
	CustomerID      int
	PropertyAddress string
	ScheduledDate   *time.Time
	Notes           string
	Products        []ProductSelection
}

// OrderFilter narrows GetOrders. Zero values mean "no filter".
type OrderFilter struct {
	Status     OrderStatus
	CustomerID int
	From       *time.Time
	To         *time.Time
	Uninvoiced bool
}
