package core_test

import (
	"errors"
	"fmt"
	"testing"

	"photo-agency/internal/core"

	"github.com/shopspring/decimal"
)

func orderWithLines(id int, address string, lines ...core.OrderLine) core.Order {
	o := core.Order{ID: id, CustomerID: 10, OrderNumber: fmt.Sprintf("ORD-%05d", id), PropertyAddress: address, Lines: lines}
	for _, l := range lines {
		o.TotalAmount = o.TotalAmount.Add(l.TotalPrice)
	}
	o.VATAmount = o.TotalAmount.Mul(dec("0.25"))
	return o
}

func line(productID int, name string, qty int, unit string) core.OrderLine {
	u := dec(unit)
	return core.OrderLine{
		ProductID:   productID,
		ProductName: name,
		Quantity:    qty,
		UnitPrice:   u,
		TotalPrice:  u.Mul(decimal.NewFromInt(int64(qty))),
		VATRate:     dec("25"),
	}
}

func TestConsolidateOrders_MergesSameProduct(t *testing.T) {
	orders := []core.Order{
		orderWithLines(1, "Storgata 1", line(5, "Boligfoto", 2, "100")),
		orderWithLines(2, "Kirkeveien 9", line(5, "Boligfoto", 3, "100")),
	}

	draft, err := core.ConsolidateOrders(orders)
	if err != nil {
		t.Fatalf("ConsolidateOrders failed: %v", err)
	}
	if len(draft.Lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(draft.Lines))
	}
	l := draft.Lines[0]
	if l.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", l.Quantity)
	}
	if !l.TotalPrice.Equal(dec("500")) {
		t.Errorf("expected total 500, got %s", l.TotalPrice)
	}
	if !l.UnitPrice.Equal(dec("100")) {
		t.Errorf("expected unit price 100, got %s", l.UnitPrice)
	}
	if l.Description != "Boligfoto – Storgata 1" {
		t.Errorf("expected first occurrence description, got %q", l.Description)
	}
	if !draft.Subtotal.Equal(dec("500")) || !draft.VATAmount.Equal(dec("125")) || !draft.Total().Equal(dec("625")) {
		t.Errorf("unexpected header: subtotal %s vat %s total %s", draft.Subtotal, draft.VATAmount, draft.Total())
	}
	if len(draft.OrderIDs) != 2 {
		t.Errorf("expected 2 order ids, got %v", draft.OrderIDs)
	}
}

func TestConsolidateOrders_MergesAcrossPriceChange(t *testing.T) {
	orders := []core.Order{
		orderWithLines(1, "Storgata 1", line(5, "Boligfoto", 1, "3500")),
		orderWithLines(2, "Kirkeveien 9", line(5, "Boligfoto", 2, "3900")),
	}
	draft, err := core.ConsolidateOrders(orders)
	if err != nil {
		t.Fatalf("ConsolidateOrders failed: %v", err)
	}
	if len(draft.Lines) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(draft.Lines))
	}
	l := draft.Lines[0]
	if l.Quantity != 3 || !l.UnitPrice.Equal(dec("3500")) {
		t.Errorf("expected quantity 3 at first-seen price 3500, got %d x %s", l.Quantity, l.UnitPrice)
	}
	// 3500 + 2×3900, not 3 × 3500
	if !l.TotalPrice.Equal(dec("11300")) {
		t.Errorf("expected summed total 11300, got %s", l.TotalPrice)
	}
	if !l.TotalPrice.Equal(draft.Subtotal) {
		t.Errorf("line total %s must still match subtotal %s", l.TotalPrice, draft.Subtotal)
	}
}

func TestConsolidateOrders_KeepsFirstSeenOrder(t *testing.T) {
	orders := []core.Order{
		orderWithLines(1, "A", line(2, "Video", 1, "900"), line(1, "Boligfoto", 1, "100")),
		orderWithLines(2, "B", line(3, "Drone", 1, "700"), line(2, "Video", 1, "900")),
	}
	draft, err := core.ConsolidateOrders(orders)
	if err != nil {
		t.Fatalf("ConsolidateOrders failed: %v", err)
	}

	want := []string{"Video – A", "Boligfoto – A", "Drone – B"}
	if len(draft.Lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(draft.Lines))
	}
	for i, l := range draft.Lines {
		if l.Description != want[i] {
			t.Errorf("line %d: expected %q, got %q", i+1, want[i], l.Description)
		}
		if l.LineNumber != i+1 {
			t.Errorf("line %d: expected line number %d, got %d", i+1, i+1, l.LineNumber)
		}
	}
	if draft.Lines[0].Quantity != 2 {
		t.Errorf("expected merged Video quantity 2, got %d", draft.Lines[0].Quantity)
	}
}

func TestConsolidateOrders_SubtotalMatchesLines(t *testing.T) {
	orders := []core.Order{
		orderWithLines(1, "A", line(1, "Boligfoto", 2, "3500"), line(2, "Video", 1, "4200")),
		orderWithLines(2, "B", line(1, "Boligfoto", 1, "3500")),
	}
	draft, err := core.ConsolidateOrders(orders)
	if err != nil {
		t.Fatalf("ConsolidateOrders failed: %v", err)
	}
	sum := dec("0")
	for _, l := range draft.Lines {
		sum = sum.Add(l.TotalPrice)
	}
	if !sum.Equal(draft.Subtotal) {
		t.Errorf("Σ line totals %s != subtotal %s", sum, draft.Subtotal)
	}
}

func TestConsolidateOrders_Errors(t *testing.T) {
	if _, err := core.ConsolidateOrders(nil); !errors.Is(err, core.ErrNothingToInvoice) || !core.IsValidation(err) {
		t.Errorf("expected nothing-to-invoice validation error, got %v", err)
	}

	invoiced := orderWithLines(1, "A", line(1, "Boligfoto", 1, "100"))
	invoiceID := 3
	invoiced.InvoiceID = &invoiceID
	if _, err := core.ConsolidateOrders([]core.Order{invoiced}); !errors.Is(err, core.ErrInvoiceExists) {
		t.Errorf("expected invoice-exists error, got %v", err)
	}
}

func TestDraftFromOrder(t *testing.T) {
	o := orderWithLines(1, "Storgata 1", line(5, "Boligfoto", 2, "100"), line(5, "Boligfoto", 1, "100"))

	draft, err := core.DraftFromOrder(&o)
	if err != nil {
		t.Fatalf("DraftFromOrder failed: %v", err)
	}
	if len(draft.Lines) != 2 {
		t.Fatalf("single-order invoices keep one line per order line, got %d", len(draft.Lines))
	}
	for _, l := range draft.Lines {
		if l.Description != "Boligfoto" {
			t.Errorf("expected product name only, got %q", l.Description)
		}
	}
	if !draft.Subtotal.Equal(o.TotalAmount) || !draft.VATAmount.Equal(o.VATAmount) {
		t.Errorf("draft totals must be copied from the order snapshot")
	}
	var unsaved *core.DraftInvoice = draft
	if !unsaved.Total().Equal(dec("375")) {
		t.Errorf("expected draft total 375, got %s", unsaved.Total())
	}
	if core.InvoiceDraft != "DRAFT" {
		t.Errorf("stored invoices start as DRAFT, got %s", core.InvoiceDraft)
	}
}

func TestDraftFromOrder_Errors(t *testing.T) {
	empty := core.Order{ID: 1, OrderNumber: "ORD-00001"}
	if _, err := core.DraftFromOrder(&empty); !errors.Is(err, core.ErrOrderHasNoProducts) {
		t.Errorf("expected no-products error, got %v", err)
	}

	invoiced := orderWithLines(2, "A", line(1, "Boligfoto", 1, "100"))
	id := 9
	invoiced.InvoiceID = &id
	_, err := core.DraftFromOrder(&invoiced)
	if !errors.Is(err, core.ErrInvoiceExists) {
		t.Errorf("expected invoice-exists error, got %v", err)
	}
	if !core.IsValidation(err) {
		t.Errorf("expected validation kind, got %s", core.KindOf(err))
	}
}

func TestBuildInvoiceLines_NoMergeWithAddress(t *testing.T) {
	orders := []core.Order{orderWithLines(1, "", line(1, "Boligfoto", 1, "100"))}
	lines := core.BuildInvoiceLines(orders, core.LineBuildOptions{Description: core.DescribeProductWithAddress})
	if len(lines) != 1 || lines[0].Description != "Boligfoto" {
		t.Errorf("empty address must not add a suffix, got %+v", lines)
	}
}
