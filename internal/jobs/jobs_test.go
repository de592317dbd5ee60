package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"photo-agency/internal/app"
	"photo-agency/internal/core"
)

type fakeBilling struct {
	asOf        time.Time
	year, month int
	result      *app.PeriodRunResult
	err         error
	panics      bool
}

func (f *fakeBilling) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	if f.panics {
		panic("boom")
	}
	f.asOf = asOf
	return 3, f.err
}

func (f *fakeBilling) RunPeriodInvoicing(ctx context.Context, year, month int) (*app.PeriodRunResult, error) {
	f.year, f.month = year, month
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func clock(s string) func() time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return func() time.Time { return t }
}

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(&fakeBilling{}, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("expected only the overdue job, got %d entries", n)
	}

	oslo, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	s, err = New(&fakeBilling{}, Options{Location: oslo, AutoPeriodInvoicing: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("expected overdue and period jobs, got %d entries", n)
	}
}

func TestInvoicePreviousMonth(t *testing.T) {
	billing := &fakeBilling{result: &app.PeriodRunResult{Invoices: []core.Invoice{{}, {}}}}
	s, _ := New(billing, Options{Now: clock("2025-01-01T03:00:00Z")})

	if err := s.InvoicePreviousMonth(context.Background()); err != nil {
		t.Fatalf("InvoicePreviousMonth failed: %v", err)
	}
	if billing.year != 2024 || billing.month != 12 {
		t.Errorf("expected December 2024, got %d-%02d", billing.year, billing.month)
	}

	billing.result = &app.PeriodRunResult{
		Invoices: []core.Invoice{{}},
		Failures: []app.PeriodFailure{{CompanyCode: "1000", CustomerID: 2, Error: "boom"}},
	}
	if err := s.InvoicePreviousMonth(context.Background()); err == nil {
		t.Error("expected an error when a customer fails")
	}
}

func TestMarkOverdue(t *testing.T) {
	billing := &fakeBilling{}
	s, _ := New(billing, Options{Now: clock("2025-02-18T01:00:00Z")})

	if err := s.MarkOverdue(context.Background()); err != nil {
		t.Fatalf("MarkOverdue failed: %v", err)
	}
	if billing.asOf.Format("2006-01-02") != "2025-02-18" {
		t.Errorf("unexpected asOf %s", billing.asOf)
	}

	billing.err = errors.New("db down")
	if err := s.MarkOverdue(context.Background()); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestGuard_RecoversPanic(t *testing.T) {
	s, _ := New(&fakeBilling{panics: true}, Options{})
	// Must not panic.
	s.guard("mark-overdue", s.MarkOverdue)()
}
