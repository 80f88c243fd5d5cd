package core_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"pnl-engine/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; the tables below are truncated.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE orders, invoices, cash_accounts, cash_events, cash_balance_history CASCADE;

		INSERT INTO orders (id, brand, order_date, customer_name, subtotal, total, currency, raw_source) VALUES
		('o1', 'acme', '2024-03-01', 'Acme Ltd', 100.00, 120.00, 'GBP', '{"customer":{"company":"Acme Trading"}}'),
		('o2', 'acme', '2024-03-02', 'Beta Co', 250.00, 300.00, 'GBP', NULL),
		('o3', 'zeta', '2024-03-02', 'Zeta Ltd', 80.00, 96.00, 'EUR', NULL);

		INSERT INTO invoices (id, brand, invoice_number, contact_name, invoice_date, subtotal, tax, total, currency) VALUES
		('i1', 'acme', 'INV-001', 'Acme Trading', '2024-03-02', 100.00, 20.00, 120.00, 'GBP'),
		('i2', 'acme', 'INV-002', 'Beta', '2024-03-02', 250.00, 50.00, 300.00, 'GBP'),
		('i3', 'acme', 'INV-003', 'Zeta', '2024-03-02', 80.00, 16.00, 96.00, 'GBP');

		INSERT INTO cash_accounts (id, brand, name, type, balance, currency) VALUES
		('a1', 'acme', 'Current', 'bank', 10000.00, 'GBP'),
		('c1', 'acme', 'Card', 'credit', -1500.00, 'GBP');

		INSERT INTO cash_events (id, brand, direction, category, amount, event_date) VALUES
		('e1', 'acme', 'inflow', 'receivable', 500.00, '2024-03-05'),
		('e2', 'acme', 'outflow', 'payroll', 2000.00, '2024-03-28');

		INSERT INTO cash_balance_history (brand, balance_date, net_position) VALUES
		('acme', '2024-02-28', 9000.00),
		('acme', '2024-02-29', 8800.00),
		('zeta', '2024-02-29', 100.00);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return pool
}

func TestReconciliationStore_ListAndLink(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	store := core.NewReconciliationStore(pool)

	orders, err := store.ListOrders(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, core.OrderUnmatched, orders[0].State)
	assert.JSONEq(t, `{"customer":{"company":"Acme Trading"}}`, string(orders[0].RawSource))

	invoices, err := store.ListInvoices(ctx, "")
	require.NoError(t, err)
	require.Len(t, invoices, 3)

	require.NoError(t, store.LinkMatch(ctx, "o1", "i1"))

	o, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, core.OrderMatched, o.State)
	require.NotNil(t, o.MatchedInvoiceID)
	assert.Equal(t, "i1", *o.MatchedInvoiceID)

	i, err := store.GetInvoice(ctx, "i1")
	require.NoError(t, err)
	require.NotNil(t, i.MatchedOrderID)
	assert.Equal(t, "o1", *i.MatchedOrderID)

	assert.ErrorIs(t, store.LinkMatch(ctx, "o1", "i2"), core.ErrAlreadyLinked)
	assert.ErrorIs(t, store.LinkMatch(ctx, "o2", "i1"), core.ErrAlreadyLinked)
	assert.ErrorIs(t, store.LinkMatch(ctx, "missing", "i2"), core.ErrNotFound)
	assert.ErrorIs(t, store.LinkMatch(ctx, "o3", "i3"), core.ErrInvalidInput)

	require.NoError(t, store.UnlinkMatch(ctx, "o1"))
	o, err = store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, core.OrderUnmatched, o.State)
	assert.Nil(t, o.MatchedInvoiceID)
	assert.ErrorIs(t, store.UnlinkMatch(ctx, "o1"), core.ErrNotLinked)
}

func TestReconciliationStore_ConcurrentLink(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	store := core.NewReconciliationStore(pool)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for n, orderID := range []string{"o1", "o2"} {
		wg.Add(1)
		go func(n int, orderID string) {
			defer wg.Done()
			errs[n] = store.LinkMatch(ctx, orderID, "i2")
		}(n, orderID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, core.ErrAlreadyLinked)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestReconciliationStore_Transitions(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	store := core.NewReconciliationStore(pool)

	o, err := store.TransitionOrder(ctx, "o2", core.OrderExclude)
	require.NoError(t, err)
	assert.Equal(t, core.OrderExcluded, o.State)
	assert.ErrorIs(t, store.LinkMatch(ctx, "o2", "i2"), core.ErrInvalidTransition)

	_, err = store.TransitionOrder(ctx, "o2", core.OrderInclude)
	require.NoError(t, err)

	inv, err := store.TransitionInvoice(ctx, "i2", core.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceApproved, inv.Status)

	_, err = store.TransitionInvoice(ctx, "i2", core.ActionIgnore)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestCashStore(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	store := core.NewCashStore(pool)

	accounts, err := store.ListAccounts(ctx, "acme")
	require.NoError(t, err)
	pos := core.ComputePosition(accounts)
	assert.True(t, pos.NetPosition.Equal(dec("8500")), pos.NetPosition.String())

	events, err := store.ListEvents(ctx, "acme", date("2024-03-01"), date("2024-03-10"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.Inflow, events[0].Direction)

	h, err := store.GetHistory(ctx, "", date("2024-02-01"), date("2024-03-01"))
	require.NoError(t, err)
	require.Len(t, h.Points, 2)
	assert.True(t, h.Points[1].NetPosition.Equal(dec("8900")))
}
