package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"photo-agency/internal/core"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func TestInvoiceService_PeriodInvoice(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	events := &recordingPublisher{}
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-02-03")}, events)

	// Two January orders with the same product (2 + 3 floor plans), one February order,
	// and one January order still in production.
	a := deliveredOrder(t, ctx, orders, 1, "2025-01-07", "Storgata 1", core.ProductSelection{ProductID: 2, Quantity: 2})
	b := deliveredOrder(t, ctx, orders, 1, "2025-01-31", "Kirkeveien 9",
		core.ProductSelection{ProductID: 2, Quantity: 3}, core.ProductSelection{ProductID: 1, Quantity: 1})
	deliveredOrder(t, ctx, orders, 1, "2025-02-01", "Elsewhere", core.ProductSelection{ProductID: 1, Quantity: 1})
	if _, err := orders.CreateOrder(ctx, "1000", core.OrderInput{
		CustomerID: 1, ScheduledDate: at("2025-01-15"), Products: []core.ProductSelection{{ProductID: 1, Quantity: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	inv, err := invoices.CreatePeriodInvoice(ctx, "1000", 1, 2025, 1)
	if err != nil {
		t.Fatalf("CreatePeriodInvoice failed: %v", err)
	}

	if inv.OrderCount != 2 {
		t.Errorf("expected 2 orders, got %d", inv.OrderCount)
	}
	if inv.InvoiceNumber != "INV-2025-00001" {
		t.Errorf("expected INV-2025-00001, got %s", inv.InvoiceNumber)
	}
	// 2×1200 + 3×1200 + 3500 = 9500
	if !inv.Subtotal.Equal(dec("9500")) || !inv.VATAmount.Equal(dec("2375")) || !inv.Total.Equal(dec("11875")) {
		t.Errorf("unexpected totals: %s + %s = %s", inv.Subtotal, inv.VATAmount, inv.Total)
	}
	if got := inv.DueDate.Format("2006-01-02"); got != "2025-02-17" {
		t.Errorf("expected due 2025-02-17, got %s", got)
	}
	if !inv.IsPeriodInvoice() || inv.PeriodStart.Format("2006-01-02") != "2025-01-01" {
		t.Errorf("expected period invoice starting 2025-01-01, got %v", inv.PeriodStart)
	}
	if len(inv.Lines) != 2 {
		t.Fatalf("expected 2 merged lines, got %d", len(inv.Lines))
	}
	plan := inv.Lines[0]
	if plan.Quantity != 5 || !plan.TotalPrice.Equal(dec("6000")) || plan.Description != "Plantegning – Storgata 1" {
		t.Errorf("unexpected merged line: %+v", plan)
	}

	for _, id := range []int{a.ID, b.ID} {
		o, err := orders.GetOrder(ctx, "1000", id)
		if err != nil {
			t.Fatalf("GetOrder failed: %v", err)
		}
		if o.InvoiceID == nil || *o.InvoiceID != inv.ID {
			t.Errorf("order %s not linked to invoice %d", o.OrderNumber, inv.ID)
		}
	}

	if len(events.topics) == 0 || events.topics[len(events.topics)-1] != core.TopicInvoiceCreated {
		t.Errorf("expected invoice:created event, got %v", events.topics)
	}

	// Consolidating the same month again finds nothing: linked orders are excluded.
	_, err = invoices.CreatePeriodInvoice(ctx, "1000", 1, 2025, 1)
	if !errors.Is(err, core.ErrNothingToInvoice) || !core.IsValidation(err) {
		t.Errorf("expected nothing to invoice, got %v", err)
	}
}

func TestInvoiceService_PeriodExcludesAlreadyInvoicedOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-02-03")}, nil)

	single := deliveredOrder(t, ctx, orders, 1, "2025-01-10", "A", core.ProductSelection{ProductID: 1, Quantity: 1})
	other := deliveredOrder(t, ctx, orders, 1, "2025-01-20", "B", core.ProductSelection{ProductID: 2, Quantity: 1})

	if _, err := invoices.CreateOrderInvoice(ctx, "1000", single.ID); err != nil {
		t.Fatalf("CreateOrderInvoice failed: %v", err)
	}

	inv, err := invoices.CreatePeriodInvoice(ctx, "1000", 1, 2025, 1)
	if err != nil {
		t.Fatalf("CreatePeriodInvoice failed: %v", err)
	}
	if inv.OrderCount != 1 || !inv.Subtotal.Equal(other.TotalAmount) {
		t.Errorf("expected only order %s, got count %d subtotal %s", other.OrderNumber, inv.OrderCount, inv.Subtotal)
	}
	for _, l := range inv.Lines {
		if l.ProductID != nil && *l.ProductID == 1 {
			t.Errorf("already invoiced order's product appeared on the period invoice")
		}
	}
}

func TestInvoiceService_EmptyPeriodIsValidationError(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{}, nil)

	_, err := invoices.CreatePeriodInvoice(ctx, "1000", 2, 2025, 3)
	if !core.IsValidation(err) || !errors.Is(err, core.ErrNothingToInvoice) {
		t.Errorf("expected validation error, got %v", err)
	}
	var n int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM invoices").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no invoice rows, found %d", n)
	}

	if _, err := invoices.CreatePeriodInvoice(ctx, "1000", 3, 2025, 1); !core.IsNotFound(err) {
		t.Errorf("expected other tenant's customer to be not found, got %v", err)
	}
}

func TestInvoiceService_OrderInvoiceRefusesSecondTime(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-01-10")}, nil)

	order, err := orders.CreateOrder(ctx, "1000", core.OrderInput{
		CustomerID:      1,
		PropertyAddress: "Storgata 1",
		Products:        []core.ProductSelection{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	inv, err := invoices.CreateOrderInvoice(ctx, "1000", order.ID)
	if err != nil {
		t.Fatalf("CreateOrderInvoice failed: %v", err)
	}
	if got := inv.DueDate.Format("2006-01-02"); got != "2025-01-24" {
		t.Errorf("expected due 2025-01-24, got %s", got)
	}
	if inv.OrderID == nil || *inv.OrderID != order.ID || inv.OrderCount != 1 {
		t.Errorf("expected single-order invoice for %d, got %+v", order.ID, inv.OrderID)
	}
	if len(inv.Lines) != 2 || inv.Lines[0].Description != "Standard boligfoto" {
		t.Errorf("expected product-name descriptions, got %+v", inv.Lines)
	}
	if !inv.Total.Equal(inv.Subtotal.Add(inv.VATAmount)) {
		t.Errorf("total %s != subtotal %s + vat %s", inv.Total, inv.Subtotal, inv.VATAmount)
	}

	_, err = invoices.CreateOrderInvoice(ctx, "1000", order.ID)
	if !errors.Is(err, core.ErrInvoiceExists) {
		t.Errorf("expected invoice already exists, got %v", err)
	}

	// An invoiced order is frozen.
	if _, err := orders.ReplaceOrderLines(ctx, "1000", order.ID, []core.ProductSelection{{ProductID: 2, Quantity: 1}}); !errors.Is(err, core.ErrOrderLocked) {
		t.Errorf("expected invoiced order to be locked, got %v", err)
	}
	if _, err := orders.TransitionOrder(ctx, "1000", order.ID, core.OrderCancelled); !errors.Is(err, core.ErrOrderLocked) {
		t.Errorf("expected invoiced order cancellation to fail, got %v", err)
	}

	if _, err := invoices.CreateOrderInvoice(ctx, "1000", 9999); !core.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestInvoiceService_LinesKeepProductNameFromOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-02-03")}, nil)

	order := deliveredOrder(t, ctx, orders, 1, "2025-01-15", "Storgata 1", core.ProductSelection{ProductID: 1, Quantity: 1})
	if _, err := pool.Exec(ctx, "UPDATE products SET code = 'FOTO-NY', name = 'Boligfoto premium' WHERE id = 1"); err != nil {
		t.Fatalf("rename product: %v", err)
	}

	got, err := orders.GetOrder(ctx, "1000", order.ID)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Lines[0].ProductCode != "FOTO-STD" || got.Lines[0].ProductName != "Standard boligfoto" {
		t.Errorf("order line must keep the priced product, got %s %q", got.Lines[0].ProductCode, got.Lines[0].ProductName)
	}

	inv, err := invoices.CreatePeriodInvoice(ctx, "1000", 1, 2025, 1)
	if err != nil {
		t.Fatalf("CreatePeriodInvoice failed: %v", err)
	}
	if len(inv.Lines) != 1 || inv.Lines[0].Description != "Standard boligfoto – Storgata 1" {
		t.Errorf("expected description from the order snapshot, got %+v", inv.Lines)
	}
}

func TestInvoiceService_ConcurrentPeriodInvoicing(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{}, nil)

	for i := 0; i < 3; i++ {
		deliveredOrder(t, ctx, orders, 1, fmt.Sprintf("2025-01-%02d", 10+i), "A", core.ProductSelection{ProductID: 1, Quantity: 1})
	}

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := invoices.CreatePeriodInvoice(ctx, "1000", 1, 2025, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !core.IsValidation(err) {
				t.Errorf("unexpected error kind: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one period invoice, got %d", succeeded)
	}
	var linked int
	if err := pool.QueryRow(ctx, "SELECT COUNT(DISTINCT invoice_id) FROM orders WHERE invoice_id IS NOT NULL").Scan(&linked); err != nil {
		t.Fatal(err)
	}
	if linked != 1 {
		t.Errorf("orders spread over %d invoices", linked)
	}
}

func TestInvoiceService_Lifecycle(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	events := &recordingPublisher{}
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{Now: fixedClock("2025-01-10")}, events)

	o := deliveredOrder(t, ctx, orders, 2, "2025-01-05", "A", core.ProductSelection{ProductID: 1, Quantity: 1})
	inv, err := invoices.CreateOrderInvoice(ctx, "1000", o.ID)
	if err != nil {
		t.Fatalf("CreateOrderInvoice failed: %v", err)
	}
	if inv.Status != core.InvoiceDraft {
		t.Errorf("expected DRAFT, got %s", inv.Status)
	}

	if _, err := invoices.TransitionInvoice(ctx, "1000", inv.ID, core.InvoicePaid); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("expected DRAFT → PAID to be rejected, got %v", err)
	}
	inv, err = invoices.TransitionInvoice(ctx, "1000", inv.ID, core.InvoiceSent)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if inv.SentAt == nil {
		t.Error("expected sent_at to be set")
	}
	if events.topics[len(events.topics)-1] != core.TopicInvoiceSent {
		t.Errorf("expected invoice:sent event, got %v", events.topics)
	}

	// Bolig AS has no terms: default 14 days → due 2025-01-24.
	n, err := invoices.MarkOverdue(ctx, *at("2025-01-24"))
	if err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if n != 0 {
		t.Errorf("invoice is not overdue on its due date, marked %d", n)
	}
	if n, err = invoices.MarkOverdue(ctx, *at("2025-01-25")); err != nil || n != 1 {
		t.Fatalf("expected one overdue invoice, got %d (%v)", n, err)
	}

	inv, err = invoices.TransitionInvoice(ctx, "1000", inv.ID, core.InvoicePaid)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if inv.Status != core.InvoicePaid || inv.PaidAt == nil {
		t.Errorf("expected PAID with paid_at, got %s", inv.Status)
	}

	list, err := invoices.GetInvoices(ctx, "1000", core.InvoiceFilter{Status: core.InvoicePaid})
	if err != nil {
		t.Fatalf("GetInvoices failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 paid invoice, got %d", len(list))
	}
	if _, err := invoices.GetInvoice(ctx, "2000", inv.ID); !core.IsNotFound(err) {
		t.Errorf("expected not found across tenants, got %v", err)
	}
}

func TestInvoiceService_PendingPeriodInvoices(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	orders := core.NewOrderService(pool, core.DefaultPricingOptions(), nil)
	invoices := core.NewInvoiceService(pool, core.InvoiceOptions{}, nil)

	deliveredOrder(t, ctx, orders, 1, "2025-01-07", "A", core.ProductSelection{ProductID: 1, Quantity: 1})
	deliveredOrder(t, ctx, orders, 1, "2025-01-08", "B", core.ProductSelection{ProductID: 1, Quantity: 1})
	deliveredOrder(t, ctx, orders, 2, "2025-01-09", "C", core.ProductSelection{ProductID: 2, Quantity: 1})

	pending, err := invoices.PendingPeriodInvoices(ctx, 2025, 1)
	if err != nil {
		t.Fatalf("PendingPeriodInvoices failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", pending)
	}
	if pending[0].CompanyCode != "1000" || pending[0].CustomerID != 1 || pending[0].OrderCount != 2 {
		t.Errorf("unexpected first candidate %+v", pending[0])
	}
}
