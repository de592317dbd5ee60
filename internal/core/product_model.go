package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is the standard Norwegian VAT rate in percent.
var DefaultVATRate = decimal.NewFromInt(25)

var hundred = decimal.NewFromInt(100)

// Product is a sellable photography service with its price and per-unit cost structure.
// Products are never hard-deleted once an order references them; they are deactivated.
type Product struct {
	ID          int             `json:"id"`
	CompanyID   int             `json:"company_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PriceExVAT  decimal.Decimal `json:"price_ex_vat"`
	VATRate     decimal.Decimal `json:"vat_rate"` // percent
	// ExternalCost (PKE) is paid to third parties per unit, e.g. a floor-plan vendor.
	ExternalCost decimal.Decimal `json:"pke"`
	// InternalCost (PKI) is the agency's own per-unit production cost.
	InternalCost    decimal.Decimal `json:"pki"`
	PhotographerFee decimal.Decimal `json:"photographer_fee"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// UnitCost is the total per-unit cost: PKE + PKI + photographer fee.
func (p *Product) UnitCost() decimal.Decimal {
	return p.ExternalCost.Add(p.InternalCost).Add(p.PhotographerFee)
}

// ProductInput is used when creating or editing a product.
// A zero VATRate pointer means "use the default rate".
type ProductInput struct {
	Code            string           `json:"code"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	PriceExVAT      decimal.Decimal  `json:"price_ex_vat"`
	VATRate         *decimal.Decimal `json:"vat_rate,omitempty"`
	ExternalCost    decimal.Decimal  `json:"pke"`
	InternalCost    decimal.Decimal  `json:"pki"`
	PhotographerFee decimal.Decimal  `json:"photographer_fee"`
}

// Normalize fills defaults.
func (in *ProductInput) Normalize() {
	if in.VATRate == nil {
		rate := DefaultVATRate
		in.VATRate = &rate
	}
}

// Validate enforces the product invariants: positive price, VAT in [0,100], non-negative costs.
func (in ProductInput) Validate() error {
	if in.Code == "" {
		return FieldError("code", "product code is required")
	}
	if in.Name == "" {
		return FieldError("name", "product name is required")
	}
	if !in.PriceExVAT.IsPositive() {
		return FieldError("price_ex_vat", "price ex VAT must be greater than 0, got %s", in.PriceExVAT)
	}
	if in.VATRate != nil && (in.VATRate.IsNegative() || in.VATRate.GreaterThan(hundred)) {
		return FieldError("vat_rate", "VAT rate must be between 0 and 100, got %s", in.VATRate)
	}
	for field, v := range map[string]decimal.Decimal{
		"pke":              in.ExternalCost,
		"pki":              in.InternalCost,
		"photographer_fee": in.PhotographerFee,
	} {
		if v.IsNegative() {
			return FieldError(field, "%s must not be negative, got %s", field, v)
		}
	}
	return nil
}
