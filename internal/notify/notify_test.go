package notify

import (
	"strings"
	"sync"
	"testing"
	"time"

	"photo-agency/internal/core"

	"github.com/asaskevich/EventBus"
	"github.com/shopspring/decimal"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
}

func (r *recordingSender) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func periodInvoice() *core.Invoice {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return &core.Invoice{
		InvoiceNumber: "INV-2025-00001",
		CustomerName:  "Meglerhuset",
		CustomerEmail: "faktura@meglerhuset.no",
		Subtotal:      decimal.NewFromInt(9500),
		VATAmount:     decimal.NewFromInt(2375),
		Total:         decimal.NewFromInt(11875),
		DueDate:       time.Date(2025, 2, 17, 0, 0, 0, 0, time.UTC),
		PeriodStart:   &start,
		OrderCount:    2,
		Lines: []core.InvoiceLine{
			{Quantity: 5, Description: "Plantegning – Storgata 1", TotalPrice: decimal.NewFromInt(6000)},
		},
	}
}

func TestInvoiceMessage(t *testing.T) {
	msg := InvoiceMessage(periodInvoice())

	if msg.To != "faktura@meglerhuset.no" || msg.Subject != "Invoice INV-2025-00001" {
		t.Errorf("unexpected envelope %+v", msg)
	}
	for _, want := range []string{"covers 2 orders in January 2025", "Plantegning – Storgata 1", "Total due: 11875.00", "Due date: 2025-02-17"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestOrderConfirmation(t *testing.T) {
	when := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	msg := OrderConfirmation(&core.Order{
		OrderNumber:     "ORD-00007",
		CustomerName:    "Meglerhuset",
		CustomerEmail:   "post@meglerhuset.no",
		PropertyAddress: "Storgata 1",
		ScheduledDate:   &when,
		TotalAmount:     decimal.NewFromInt(3500),
		VATAmount:       decimal.NewFromInt(875),
	})
	if msg.Subject != "Order confirmation ORD-00007" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"order ORD-00007 for Storgata 1", "Scheduled: 2025-01-15 09:00", "Total: 4375.00"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	bus := EventBus.New()
	sender := &recordingSender{}
	if err := NewNotifier(sender).Subscribe(bus); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	bus.Publish(core.TopicInvoiceSent, periodInvoice())
	bus.Publish(core.TopicOrderCreated, &core.Order{OrderNumber: "ORD-00001"}) // no email: skipped
	bus.WaitAsync()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 || sender.sent[0].Subject != "Invoice INV-2025-00001" {
		t.Errorf("expected exactly the invoice mail, got %+v", sender.sent)
	}
}
