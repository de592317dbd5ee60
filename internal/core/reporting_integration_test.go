package core_test

import (
	"context"
	"testing"

	"photo-agency/internal/core"
)

func TestReportingService_Dashboard(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-01-31")}, nil)
	reports := core.NewReportingService(pool)

	invoiced := deliveredOrder(t, ctx, orders, 1, "2025-01-07", "A", core.ProductSelection{ProductID: 1, Quantity: 1})
	deliveredOrder(t, ctx, orders, 2, "2025-01-08", "B", core.ProductSelection{ProductID: 2, Quantity: 2})
	cancelled, err := orders.CreateOrder(ctx, "1000", core.OrderInput{
		CustomerID: 1, ScheduledDate: at("2025-01-09"), Products: []core.ProductSelection{{ProductID: 1, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if _, err := orders.TransitionOrder(ctx, "1000", cancelled.ID, core.OrderCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	inv, err := invoices.CreateOrderInvoice(ctx, "1000", invoiced.ID)
	if err != nil {
		t.Fatalf("CreateOrderInvoice failed: %v", err)
	}
	if _, err := invoices.TransitionInvoice(ctx, "1000", inv.ID, core.InvoiceSent); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	d, err := reports.GetDashboard(ctx, "1000", 2025, 1)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}

	if d.OrderCount != 2 || d.OrdersByStatus[core.OrderDelivered] != 2 {
		t.Errorf("expected 2 delivered orders (cancelled excluded), got %d %v", d.OrderCount, d.OrdersByStatus)
	}
	// 3500 + 2×1200 = 5900; profit 1600 + 2×800 = 3200
	if !d.Profit.TotalExVAT.Equal(dec("5900")) || !d.Profit.CompanyProfit.Equal(dec("3200")) {
		t.Errorf("unexpected revenue/profit: %s / %s", d.Profit.TotalExVAT, d.Profit.CompanyProfit)
	}
	if !d.Profit.ProfitMarginPercent.Equal(dec("54.24")) {
		t.Errorf("expected margin 54.24, got %s", d.Profit.ProfitMarginPercent)
	}
	if d.UninvoicedOrders != 1 || !d.UninvoicedAmount.Equal(dec("3000")) {
		t.Errorf("expected one uninvoiced order worth 3000, got %d / %s", d.UninvoicedOrders, d.UninvoicedAmount)
	}
	if d.OutstandingInvoices != 1 || !d.OutstandingAmount.Equal(dec("4375")) {
		t.Errorf("expected one outstanding invoice of 4375, got %d / %s", d.OutstandingInvoices, d.OutstandingAmount)
	}
	if len(d.TopProducts) != 2 || d.TopProducts[0].Code != "FOTO-STD" {
		t.Errorf("unexpected top products %+v", d.TopProducts)
	}

	empty, err := reports.GetDashboard(ctx, "1000", 2024, 6)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if empty.OrderCount != 0 || !empty.Profit.ProfitMarginPercent.IsZero() {
		t.Errorf("expected empty month with zero margin, got %+v", empty)
	}
}
