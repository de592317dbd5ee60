package core_test

import (
	"testing"

	"photo-agency/internal/core"
)

func TestProfitProjectionFor(t *testing.T) {
	o := &core.Order{
		TotalAmount:   dec("3500"),
		VATAmount:     dec("875"),
		CompanyProfit: dec("1600"),
	}
	p := core.ProfitProjectionFor(o)
	if !p.TotalIncVAT.Equal(dec("4375")) {
		t.Errorf("expected total inc VAT 4375, got %s", p.TotalIncVAT)
	}
	if !p.ProfitMarginPercent.Equal(dec("45.71")) {
		t.Errorf("expected margin 45.71, got %s", p.ProfitMarginPercent)
	}
}

func TestProjectProfit_ZeroTotal(t *testing.T) {
	p := core.ProjectProfit(dec("0"), dec("0"), dec("-250"))
	if !p.ProfitMarginPercent.IsZero() {
		t.Errorf("expected margin 0 for zero total, got %s", p.ProfitMarginPercent)
	}
}

func TestProjectProfit_NegativeProfit(t *testing.T) {
	p := core.ProjectProfit(dec("1000"), dec("250"), dec("-200"))
	if !p.ProfitMarginPercent.Equal(dec("-20")) {
		t.Errorf("expected margin -20, got %s", p.ProfitMarginPercent)
	}
}
