package core_test

import (
	"encoding/json"
	"testing"
	"time"

	"pnl-engine/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() core.Order {
	return core.Order{
		ID: " o1 ", Brand: "acme", OrderDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		CustomerName: "  Acme Ltd ", Subtotal: decimal.NewFromInt(100), Total: decimal.NewFromInt(120), Currency: "gbp",
	}
}

func TestOrder_NormalizeAndValidate(t *testing.T) {
	o := validOrder()
	o.Normalize()
	require.NoError(t, o.Validate())
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, "Acme Ltd", o.CustomerName)
	assert.Equal(t, "GBP", o.Currency)
	assert.Equal(t, core.OrderUnmatched, o.State)

	tests := []struct {
		name   string
		mutate func(*core.Order)
		want   string
	}{
		{"missing brand", func(o *core.Order) { o.Brand = "" }, "brand"},
		{"bad currency", func(o *core.Order) { o.Currency = "POUND" }, "currency"},
		{"negative subtotal", func(o *core.Order) { o.Subtotal = decimal.NewFromInt(-1) }, "negative"},
		{"broken raw source", func(o *core.Order) { o.RawSource = json.RawMessage(`{"a":`) }, "raw_source"},
		{"unknown state", func(o *core.Order) { o.State = "lost" }, "state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			o.Normalize()
			tt.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInvoice_Validate(t *testing.T) {
	i := core.Invoice{ID: "i1", Brand: "acme", InvoiceDate: time.Now(), Currency: "eur", Tax: decimal.NewFromInt(-5)}
	i.Normalize()
	assert.Equal(t, core.InvoicePending, i.Status)
	assert.Equal(t, "EUR", i.Currency)
	assert.ErrorIs(t, i.Validate(), core.ErrInvalidInput)
}

func TestCashEvent_Validate(t *testing.T) {
	e := core.CashEvent{ID: "e1", Direction: core.Outflow, Amount: decimal.Zero, Date: time.Now()}
	err := e.Validate()
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Contains(t, err.Error(), "amount must be positive")

	e.Amount = decimal.NewFromInt(10)
	assert.NoError(t, e.Validate())
}

func TestSnapshot_Validate(t *testing.T) {
	inv := "i1"
	ord := "o1"
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snap := core.Snapshot{
		Orders: []core.Order{validOrder()},
		Invoices: []core.Invoice{
			{ID: "i1", Brand: "acme", InvoiceDate: day, Currency: "GBP"},
		},
		Accounts: []core.CashAccount{{ID: "a1", Type: core.AccountBank, Currency: "gbp"}},
	}
	require.NoError(t, snap.Validate())
	assert.Equal(t, "GBP", snap.Accounts[0].Currency)

	snap.Orders[0].MatchedInvoiceID = &inv
	snap.Orders[0].State = core.OrderMatched
	err := snap.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `order "o1" link to invoice "i1" is not mirrored`)

	snap.Invoices[0].MatchedOrderID = &ord
	require.NoError(t, snap.Validate())

	snap.Orders = append(snap.Orders, validOrder())
	snap.Events = []core.CashEvent{{ID: "e1", Direction: "sideways", Amount: decimal.NewFromInt(1), Date: day}}
	err = snap.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Contains(t, err.Error(), `duplicate order id "o1"`)
	assert.Contains(t, err.Error(), `event "e1"`)
}
