package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"photo-agency/internal/core"
	"photo-agency/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// setupTestDB migrates and truncates the test database, then seeds company 1000 with:
//
//	customers: 1 Meglerhuset (terms 14), 2 Bolig AS (terms unset)
//	products:  1 Standard boligfoto 3500 (pke 500, pki 200, fee 1200)
//	           2 Plantegning 1200 (pke 400)
//	           3 Dronefoto 2500 (inactive)
//
// Company 2000 exists with one customer (id 3) for tenant isolation checks.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx, pool, "../../migrations"); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE invoice_lines, order_lines, orders, invoices, number_sequences,
		               products, customers, users, companies RESTART IDENTITY CASCADE;

		INSERT INTO companies (id, company_code, name) VALUES
		(1, '1000', 'Fotobyrå Oslo'),
		(2, '2000', 'Other Agency');

		INSERT INTO customers (id, company_id, code, name, email, address, payment_terms_days) VALUES
		(1, 1, 'MH',  'Meglerhuset',  'faktura@meglerhuset.no', 'Karl Johans gate 1', 14),
		(2, 1, 'BAS', 'Bolig AS',     'post@bolig.no',          'Torggata 5',         NULL),
		(3, 2, 'OTH', 'Other Client', '',                       '',                   NULL);

		INSERT INTO products (id, company_id, code, name, price_ex_vat, vat_rate,
		                      external_production_cost, internal_production_cost, photographer_fee, is_active) VALUES
		(1, 1, 'FOTO-STD', 'Standard boligfoto', 3500, 25, 500, 200, 1200, true),
		(2, 1, 'PLAN',     'Plantegning',        1200, 25, 400,   0,    0, true),
		(3, 1, 'DRONE',    'Dronefoto',          2500, 25,   0,   0,  800, false);

		SELECT setval('companies_id_seq', 2), setval('customers_id_seq', 3), setval('products_id_seq', 3);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func fixedClock(day string) func() time.Time {
	ts, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return ts.Add(10 * time.Hour) }
}

func at(day string) *time.Time {
	ts, _ := time.Parse("2006-01-02", day)
	ts = ts.Add(9 * time.Hour)
	return &ts
}

// deliveredOrder creates an order and walks it to DELIVERED so it becomes invoiceable.
func deliveredOrder(t *testing.T, ctx context.Context, svc core.OrderService, customerID int, day, address string, products ...core.ProductSelection) *core.Order {
	t.Helper()
	o, err := svc.CreateOrder(ctx, "1000", core.OrderInput{
		CustomerID:      customerID,
		PropertyAddress: address,
		ScheduledDate:   at(day),
		Products:        products,
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	for _, next := range []core.OrderStatus{
		core.OrderInProgress, core.OrderEditing, core.OrderReadyForDelivery, core.OrderDelivered,
	} {
		if o, err = svc.TransitionOrder(ctx, "1000", o.ID, next); err != nil {
			t.Fatalf("TransitionOrder to %s failed: %v", next, err)
		}
	}
	return o
}
