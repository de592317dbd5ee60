package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// VATMode selects how order VAT is derived from the lines.
type VATMode string

const (
	// VATPerLine sums each line's total multiplied by that line's own VAT rate.
	VATPerLine VATMode = "per_line"
	// VATFlat applies a single tenant rate to the order subtotal.
	VATFlat VATMode = "flat"
)

// ParseVATMode returns the mode for s, defaulting to VATPerLine for "".
func ParseVATMode(s string) (VATMode, error) {
	switch VATMode(s) {
	case "", VATPerLine:
		return VATPerLine, nil
	case VATFlat:
		return VATFlat, nil
	}
	return "", fmt.Errorf("unknown VAT mode %q (want %q or %q)", s, VATPerLine, VATFlat)
}

// PricingOptions configures ComputeOrderTotals.
type PricingOptions struct {
	VATMode VATMode
	// FlatVATRate is the percent applied in VATFlat mode. Zero means DefaultVATRate.
	FlatVATRate decimal.Decimal
}

// DefaultPricingOptions prices with per-line VAT.
func DefaultPricingOptions() PricingOptions {
	return PricingOptions{VATMode: VATPerLine, FlatVATRate: DefaultVATRate}
}

// PricedLine is a selection resolved against its product, ready to be stored as an order line.
type PricedLine struct {
	ProductID           int
	ProductCode         string
	ProductName         string
	Quantity            int
	UnitPrice           decimal.Decimal
	TotalPrice          decimal.Decimal
	VATRate             decimal.Decimal
	UnitExternalCost    decimal.Decimal
	UnitInternalCost    decimal.Decimal
	UnitPhotographerFee decimal.Decimal
}

// OrderTotals is the financial aggregate of a set of product selections.
type OrderTotals struct {
	Lines               []PricedLine    `json:"-"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	PhotographerFee     decimal.Decimal `json:"photographer_fee"`
	ExternalCost        decimal.Decimal `json:"external_cost"`
	InternalCost        decimal.Decimal `json:"internal_cost"`
	CompanyProfit       decimal.Decimal `json:"company_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
}

// Total returns subtotal plus VAT.
func (t *OrderTotals) Total() decimal.Decimal {
	return t.Subtotal.Add(t.VATAmount)
}

// ComputeOrderTotals resolves each selection against products and aggregates price, VAT,
// cost and profit. Selections are priced in the order given; repeated products stay as
// separate lines. Only active products are eligible.
//
// Sums are exact. VAT and the margin percent are rounded to two decimals.
func ComputeOrderTotals(selections []ProductSelection, products []Product, opts PricingOptions) (*OrderTotals, error) {
	if len(selections) == 0 {
		return nil, ValidationErrorf(ErrNoProductsSelected, "no products selected")
	}

	byID := make(map[int]*Product, len(products))
	for i := range products {
		if products[i].IsActive {
			byID[products[i].ID] = &products[i]
		}
	}

	totals := &OrderTotals{Lines: make([]PricedLine, 0, len(selections))}
	vat := decimal.Zero

	for _, sel := range selections {
		if sel.Quantity < 1 {
			return nil, ValidationErrorf(ErrInvalidQuantity,
				"quantity for product %d must be at least 1, got %d", sel.ProductID, sel.Quantity)
		}
		p, ok := byID[sel.ProductID]
		if !ok {
			return nil, ValidationErrorf(ErrProductNotFound,
				"product %d not found or inactive", sel.ProductID)
		}

		qty := decimal.NewFromInt(int64(sel.Quantity))
		lineTotal := p.PriceExVAT.Mul(qty)

		totals.Subtotal = totals.Subtotal.Add(lineTotal)
		totals.ExternalCost = totals.ExternalCost.Add(p.ExternalCost.Mul(qty))
		totals.InternalCost = totals.InternalCost.Add(p.InternalCost.Mul(qty))
		totals.PhotographerFee = totals.PhotographerFee.Add(p.PhotographerFee.Mul(qty))
		vat = vat.Add(lineTotal.Mul(p.VATRate).Div(hundred))

		totals.Lines = append(totals.Lines, PricedLine{
			ProductID:           p.ID,
			ProductCode:         p.Code,
			ProductName:         p.Name,
			Quantity:            sel.Quantity,
			UnitPrice:           p.PriceExVAT,
			TotalPrice:          lineTotal,
			VATRate:             p.VATRate,
			UnitExternalCost:    p.ExternalCost,
			UnitInternalCost:    p.InternalCost,
			UnitPhotographerFee: p.PhotographerFee,
		})
	}

	if opts.VATMode == VATFlat {
		rate := opts.FlatVATRate
		if rate.IsZero() {
			rate = DefaultVATRate
		}
		vat = totals.Subtotal.Mul(rate).Div(hundred)
	}
	totals.VATAmount = vat.Round(2)

	costs := totals.ExternalCost.Add(totals.InternalCost).Add(totals.PhotographerFee)
	totals.CompanyProfit = totals.Subtotal.Sub(costs)
	totals.ProfitMarginPercent = marginPercent(totals.CompanyProfit, totals.Subtotal)

	return totals, nil
}
