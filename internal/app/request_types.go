package app

import (
	"photo-agency/internal/core"

	"github.com/shopspring/decimal"
)

// CreateCustomerRequest is the input for creating a customer.
type CreateCustomerRequest struct {
	CompanyCode      string `json:"-"`
	Code             string `json:"code" jsonschema:"required,minLength=1"`
	Name             string `json:"name" jsonschema:"required,minLength=1"`
	Email            string `json:"email,omitempty" jsonschema:"format=email"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	PaymentTermsDays *int   `json:"payment_terms_days,omitempty" jsonschema:"minimum=0"`
}

// ProductRequest is the input for creating or editing a product.
type ProductRequest struct {
	CompanyCode     string           `json:"-"`
	Code            string           `json:"code" jsonschema:"required,minLength=1"`
	Name            string           `json:"name" jsonschema:"required,minLength=1"`
	Description     string           `json:"description,omitempty"`
	PriceExVAT      decimal.Decimal  `json:"price_ex_vat" jsonschema:"required,type=string,description=Price excluding VAT"`
	VATRate         *decimal.Decimal `json:"vat_rate,omitempty" jsonschema:"type=string,description=VAT percent; defaults to 25"`
	ExternalCost    decimal.Decimal  `json:"pke" jsonschema:"type=string,description=External production cost per unit"`
	InternalCost    decimal.Decimal  `json:"pki" jsonschema:"type=string,description=Internal production cost per unit"`
	PhotographerFee decimal.Decimal  `json:"photographer_fee" jsonschema:"type=string"`
}

func (r ProductRequest) input() core.ProductInput {
	return core.ProductInput{
		Code:            r.Code,
		Name:            r.Name,
		Description:     r.Description,
		PriceExVAT:      r.PriceExVAT,
		VATRate:         r.VATRate,
		ExternalCost:    r.ExternalCost,
		InternalCost:    r.InternalCost,
		PhotographerFee: r.PhotographerFee,
	}
}

// CreateOrderRequest is the input for creating a new order.
type CreateOrderRequest struct {
	CompanyCode     string `json:"-"`
	CustomerID      int    `json:"customer_id" jsonschema:"required,minimum=1"`
	PropertyAddress string `json:"property_address" jsonschema:"required"`
	// ScheduledDate accepts most common date layouts, e.g. "2025-01-15", "2025-01-15 09:00".
	ScheduledDate string                  `json:"scheduled_date,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	Products      []core.ProductSelection `json:"products" jsonschema:"required,minItems=1"`
}

// ReplaceLinesRequest is the body of a line replacement.
type ReplaceLinesRequest struct {
	Products []core.ProductSelection `json:"products" jsonschema:"required,minItems=1"`
}

// QuoteRequest is the body of a quote.
type QuoteRequest struct {
	Products []core.ProductSelection `json:"products" jsonschema:"required,minItems=1"`
}

// TransitionRequest is the body of an order status change.
type TransitionRequest struct {
	Status string `json:"status" jsonschema:"required,enum=PENDING,enum=SCHEDULED,enum=IN_PROGRESS,enum=EDITING,enum=READY_FOR_DELIVERY,enum=DELIVERED,enum=COMPLETED,enum=CANCELLED"`
}

// ListOrdersRequest filters ListOrders. Empty fields mean "no filter".
type ListOrdersRequest struct {
	CompanyCode string
	Status      string
	CustomerID  int
	From        string
	To          string
	Uninvoiced  bool
}

// CreatePeriodInvoiceRequest is the input for consolidating one customer's month.
type CreatePeriodInvoiceRequest struct {
	CompanyCode string `json:"-"`
	CustomerID  int    `json:"customer_id" jsonschema:"required,minimum=1"`
	Year        int    `json:"year" jsonschema:"required,minimum=2000"`
	Month       int    `json:"month" jsonschema:"required,minimum=1,maximum=12"`
}

// CreateOrderInvoiceRequest is the body of a single-order invoice creation.
type CreateOrderInvoiceRequest struct {
	OrderID int `json:"order_id" jsonschema:"required,minimum=1"`
}

// ListInvoicesRequest filters ListInvoices.
type ListInvoicesRequest struct {
	CompanyCode string
	Status      string
	CustomerID  int
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" jsonschema:"required"`
	Password string `json:"password" jsonschema:"required"`
}

// CreateUserRequest is the input for provisioning a user.
type CreateUserRequest struct {
	CompanyCode string
	Username    string
	Email       string
	Password    string
	Role        string
}
