package repl_test

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"pnl-engine/internal/adapters/repl"
	"pnl-engine/internal/app"
	"pnl-engine/internal/config"
	"pnl-engine/internal/core"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newStore(t *testing.T) *core.MemoryStore {
	t.Helper()
	d := decimal.RequireFromString
	store, err := core.NewMemoryStore(&core.Snapshot{
		Orders: []core.Order{
			{ID: "o1", Brand: "acme", OrderDate: day("2024-03-01"), CustomerName: "Acme Ltd", Subtotal: d("100"), Total: d("120"), Currency: "GBP"},
			{ID: "o2", Brand: "acme", OrderDate: day("2024-03-03"), CustomerName: "Beta Co", Subtotal: d("250"), Total: d("300"), Currency: "GBP"},
		},
		Invoices: []core.Invoice{
			{ID: "i1", Brand: "acme", ContactName: "Acme", InvoiceDate: day("2024-03-01"), Subtotal: d("100"), Total: d("120"), Currency: "GBP"},
			{ID: "i2", Brand: "acme", ContactName: "Beta Co", InvoiceDate: day("2024-03-04"), Subtotal: d("250"), Total: d("300"), Currency: "GBP"},
		},
		Accounts: []core.CashAccount{
			{ID: "a1", Brand: "acme", Name: "Current", Type: core.AccountBank, Balance: d("5000"), Currency: "GBP"},
		},
	})
	require.NoError(t, err)
	return store
}

func newService(store *core.MemoryStore) app.ApplicationService {
	logger, _ := test.NewNullLogger()
	return app.NewAppService(store, store, nil, config.Default(),
		app.WithLogger(logger),
		app.WithClock(func() time.Time { return day("2024-03-01") }))
}

func TestReview_LinksAcceptedSuggestions(t *testing.T) {
	store := newStore(t)
	svc := newService(store)
	var out bytes.Buffer

	err := repl.Review(context.Background(), svc, "acme", bufio.NewReader(strings.NewReader("y\nn\n")), &out)
	require.NoError(t, err)

	o1, err := store.GetOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, core.OrderMatched, o1.State)
	o2, err := store.GetOrder(context.Background(), "o2")
	require.NoError(t, err)
	assert.Equal(t, core.OrderUnmatched, o2.State)

	assert.Contains(t, out.String(), "Link order o1 to invoice i1? (y/n/q)")
	assert.Contains(t, out.String(), "Review complete. Linked 1, skipped 1.")
}

func TestReview_QuitStopsEarly(t *testing.T) {
	store := newStore(t)
	var out bytes.Buffer

	err := repl.Review(context.Background(), newService(store), "", bufio.NewReader(strings.NewReader("q\n")), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Review stopped. Linked 0, skipped 0.")
	assert.NotContains(t, out.String(), "[2/2]")
}

func TestRun_Commands(t *testing.T) {
	store := newStore(t)
	var out bytes.Buffer
	input := strings.Join([]string{
		"q",                  // leave the opening review
		"/link o2 i2",        // manual link
		"/unlink o1",         // never linked
		"/exclude o1",        // take out of matching
		"/invoice i1 ignore", // reviewer ignores the invoice
		"/position acme",
		"hello",
		"/quit",
	}, "\n") + "\n"

	repl.Run(context.Background(), newService(store), bufio.NewReader(strings.NewReader(input)), &out)

	s := out.String()
	assert.Contains(t, s, "Order o2 is MATCHED -> invoice i2.")
	assert.Contains(t, s, "Error: order o1")
	assert.Contains(t, s, "Order o1 is EXCLUDED.")
	assert.Contains(t, s, "Invoice i1 is IGNORED.")
	assert.Contains(t, s, "CASH POSITION: acme")
	assert.Contains(t, s, "£5,000.00")
	assert.Contains(t, s, "Commands start with /.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(s), "Goodbye!"))
}

func TestRun_EndOfInput(t *testing.T) {
	var out bytes.Buffer
	repl.Run(context.Background(), newService(newStore(t)), bufio.NewReader(strings.NewReader("")), &out)
	assert.Contains(t, out.String(), "Goodbye!")
}
