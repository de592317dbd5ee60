package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Sequence kinds stored in number_sequences.kind.
const (
	seqOrder   = "ORD"
	seqInvoice = "INV"
)

// nextNumber returns the next gapless number for (company, kind, year) inside tx.
// The row upsert takes a row lock, so concurrent callers serialize until tx ends and a
// rolled-back transaction gives its number back.
func nextNumber(ctx context.Context, tx pgx.Tx, companyID int, kind string, year int) (int64, error) {
	var n int64
	err := tx.QueryRow(ctx, `
		INSERT INTO number_sequences (company_id, kind, year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, kind, year)
		DO UPDATE SET last_number = number_sequences.last_number + 1
		RETURNING last_number
	`, companyID, kind, year).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to generate %s sequence number: %w", kind, err)
	}
	return n, nil
}

// FormatOrderNumber renders an order number, e.g. ORD-00042.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("%s-%05d", seqOrder, n)
}

// FormatInvoiceNumber renders an invoice number, e.g. INV-2025-00007.
func FormatInvoiceNumber(year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", seqInvoice, year, n)
}
