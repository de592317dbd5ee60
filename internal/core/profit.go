package core

import "github.com/shopspring/decimal"

// ProfitProjection is the read-side view of an order's (or a period's) profitability.
type ProfitProjection struct {
	TotalExVAT          decimal.Decimal `json:"total_ex_vat"`
	VATAmount           decimal.Decimal `json:"vat_amount"`
	TotalIncVAT         decimal.Decimal `json:"total_inc_vat"`
	CompanyProfit       decimal.Decimal `json:"company_profit"`
	ProfitMarginPercent decimal.Decimal `json:"profit_margin_percent"`
}

// ProjectProfit derives the projection from stored amounts.
// The margin is 0 when totalExVAT is 0.
func ProjectProfit(totalExVAT, vatAmount, companyProfit decimal.Decimal) ProfitProjection {
	return ProfitProjection{
		TotalExVAT:          totalExVAT,
		VATAmount:           vatAmount,
		TotalIncVAT:         totalExVAT.Add(vatAmount),
		CompanyProfit:       companyProfit,
		ProfitMarginPercent: marginPercent(companyProfit, totalExVAT),
	}
}

// ProfitProjectionFor projects an order's stored snapshot. Order detail, the dashboard and
// exports all go through here so they never disagree.
func ProfitProjectionFor(o *Order) ProfitProjection {
	return ProjectProfit(o.TotalAmount, o.VATAmount, o.CompanyProfit)
}

func marginPercent(profit, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return profit.Div(base).Mul(hundred).Round(2)
}
