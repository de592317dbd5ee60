package core_test

import (
	"errors"
	"fmt"
	"testing"

	"photo-agency/internal/core"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to core.OrderStatus
		ok       bool
	}{
		{core.OrderPending, core.OrderScheduled, true},
		{core.OrderScheduled, core.OrderInProgress, true},
		{core.OrderInProgress, core.OrderEditing, true},
		{core.OrderEditing, core.OrderReadyForDelivery, true},
		{core.OrderReadyForDelivery, core.OrderDelivered, true},
		{core.OrderDelivered, core.OrderCompleted, true},
		{core.OrderPending, core.OrderCancelled, true},
		{core.OrderPending, core.OrderCompleted, false},
		{core.OrderCompleted, core.OrderCancelled, false},
		{core.OrderDelivered, core.OrderCancelled, false},
		{core.OrderCancelled, core.OrderPending, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s → %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestOrderStatus_EditableAndInvoiceable(t *testing.T) {
	editable := map[core.OrderStatus]bool{core.OrderPending: true, core.OrderScheduled: true}
	invoiceable := map[core.OrderStatus]bool{core.OrderCompleted: true, core.OrderDelivered: true, core.OrderReadyForDelivery: true}

	all := []core.OrderStatus{
		core.OrderPending, core.OrderScheduled, core.OrderInProgress, core.OrderEditing,
		core.OrderReadyForDelivery, core.OrderDelivered, core.OrderCompleted, core.OrderCancelled,
	}
	for _, s := range all {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
		if s.CanEditLines() != editable[s] {
			t.Errorf("%s: CanEditLines = %v", s, s.CanEditLines())
		}
		if s.IsInvoiceable() != invoiceable[s] {
			t.Errorf("%s: IsInvoiceable = %v", s, s.IsInvoiceable())
		}
	}
	if core.OrderStatus("SHIPPED").Valid() {
		t.Error("unknown status reported as valid")
	}
}

func TestInvoiceStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to core.InvoiceStatus
		ok       bool
	}{
		{core.InvoiceDraft, core.InvoiceSent, true},
		{core.InvoiceSent, core.InvoicePaid, true},
		{core.InvoiceSent, core.InvoiceOverdue, true},
		{core.InvoiceOverdue, core.InvoicePaid, true},
		{core.InvoiceDraft, core.InvoiceCancelled, true},
		{core.InvoicePaid, core.InvoiceCancelled, false},
		{core.InvoiceCancelled, core.InvoiceSent, false},
		{core.InvoiceDraft, core.InvoicePaid, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s → %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestProductInput_Validate(t *testing.T) {
	valid := func() core.ProductInput {
		return core.ProductInput{Code: "FOTO", Name: "Boligfoto", PriceExVAT: dec("3500")}
	}
	neg := dec("-1")
	over := dec("101")

	tests := []struct {
		name   string
		mutate func(*core.ProductInput)
		field  string
	}{
		{"valid", func(*core.ProductInput) {}, ""},
		{"missing code", func(in *core.ProductInput) { in.Code = "" }, "code"},
		{"zero price", func(in *core.ProductInput) { in.PriceExVAT = decimal.Zero }, "price_ex_vat"},
		{"negative VAT", func(in *core.ProductInput) { in.VATRate = &neg }, "vat_rate"},
		{"VAT over 100", func(in *core.ProductInput) { in.VATRate = &over }, "vat_rate"},
		{"negative pke", func(in *core.ProductInput) { in.ExternalCost = neg }, "pke"},
		{"negative fee", func(in *core.ProductInput) { in.PhotographerFee = neg }, "photographer_fee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			var ce *core.Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *core.Error, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, ce.Field)
			}
		})
	}
}

func TestProductInput_NormalizeDefaultsVAT(t *testing.T) {
	in := core.ProductInput{Code: "X", Name: "X", PriceExVAT: dec("1")}
	in.Normalize()
	if in.VATRate == nil || !in.VATRate.Equal(core.DefaultVATRate) {
		t.Errorf("expected default VAT 25, got %v", in.VATRate)
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("create order: %w", core.ValidationErrorf(core.ErrNoProductsSelected, "no products selected"))
	if core.KindOf(wrapped) != core.KindValidation {
		t.Errorf("expected validation kind through wrapping, got %s", core.KindOf(wrapped))
	}
	if !errors.Is(wrapped, core.ErrNoProductsSelected) {
		t.Error("expected sentinel to be reachable with errors.Is")
	}
	if wrapped.Error() != "create order: no products selected" {
		t.Errorf("unexpected message %q", wrapped.Error())
	}

	if core.KindOf(errors.New("boom")) != core.KindInternal {
		t.Error("plain errors must be internal")
	}
	if !core.IsNotFound(core.NotFoundErrorf("order %d not found", 4)) {
		t.Error("expected not found")
	}
	if core.KindOf(core.ConflictErrorf(core.ErrInvoiceExists, "dup")) != core.KindConflict {
		t.Error("expected conflict")
	}
}

func TestFormatNumbers(t *testing.T) {
	if got := core.FormatOrderNumber(42); got != "ORD-00042" {
		t.Errorf("got %s", got)
	}
	if got := core.FormatInvoiceNumber(2025, 7); got != "INV-2025-00007" {
		t.Errorf("got %s", got)
	}
}
