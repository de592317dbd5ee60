package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"photo-agency/internal/app"
	"photo-agency/internal/core"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"migrate"},
		{"company", "create"},
		{"user", "create"},
		{"customer", "list"},
		{"product", "deactivate"},
		{"order", "status"},
		{"invoice", "period"},
		{"invoice", "run"},
		{"invoice", "send"},
		{"invoice", "overdue"},
		{"report", "dashboard"},
		{"export", "orders"},
	} {
		cmd, _, err := root.Find(path)
		if err != nil || cmd == root {
			t.Errorf("command %v not registered", path)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("42"); err != nil || id != 42 {
		t.Errorf("parseID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, err := parseID(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestPrintOrder(t *testing.T) {
	when := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	o := &core.Order{
		OrderNumber:     "ORD-00001",
		Status:          core.OrderDelivered,
		CustomerName:    "Meglerhuset",
		CustomerCode:    "MH",
		PropertyAddress: "Storgata 1",
		ScheduledDate:   &when,
		TotalAmount:     decimal.NewFromInt(3500),
		VATAmount:       decimal.NewFromInt(875),
		PhotographerFee: decimal.NewFromInt(1200),
		ExternalCost:    decimal.NewFromInt(500),
		InternalCost:    decimal.NewFromInt(200),
		CompanyProfit:   decimal.NewFromInt(1600),
		Lines: []core.OrderLine{
			{LineNumber: 1, ProductCode: "FOTO-STD", ProductName: "Boligfoto", Quantity: 1,
				UnitPrice: decimal.NewFromInt(3500), TotalPrice: decimal.NewFromInt(3500)},
		},
	}
	var buf bytes.Buffer
	printOrder(&buf, &app.OrderResult{Order: o, Profit: core.ProfitProjectionFor(o)})

	out := buf.String()
	for _, want := range []string{"ORDER ORD-00001  [DELIVERED]", "FOTO-STD", "4375.00", "1600.00  (45.71%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	st := &state{jsonOut: true}
	called := false
	if err := st.print(cmd, map[string]int{"orders": 2}, func() { called = true }); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if called || !strings.Contains(buf.String(), `"orders": 2`) {
		t.Errorf("expected JSON output only, got %q", buf.String())
	}
}
