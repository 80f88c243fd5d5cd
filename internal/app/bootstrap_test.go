package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"pnl-engine/internal/app"
	"pnl-engine/internal/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const snapshotJSON = `{
  "orders": [
    {"id": "o1", "brand": "acme", "order_date": "2024-03-01T00:00:00Z", "customer_name": "Acme Ltd",
     "subtotal": "100.00", "total": "120.00", "currency": "gbp",
     "raw_source": {"customer": {"company": "Acme Trading"}}}
  ],
  "invoices": [
    {"id": "i1", "brand": "acme", "invoice_number": "INV-1", "contact_name": "Acme Trading",
     "invoice_date": "2024-03-02T00:00:00Z", "subtotal": "100.00", "tax": "20.00", "total": "120.00", "currency": "GBP"}
  ],
  "accounts": [
    {"id": "a1", "brand": "acme", "name": "Current", "type": "bank", "balance": "900.00", "currency": "GBP",
     "snapshot_at": "2024-03-01T09:00:00Z"}
  ],
  "events": [],
  "history": []
}`

func TestOpen_SnapshotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotJSON), 0o600))

	cfg := config.Default()
	cfg.DataFile = path
	logger, hook := test.NewNullLogger()

	svc, cleanup, err := app.Open(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer cleanup()

	res, err := svc.SuggestMatches(context.Background(), app.SuggestRequest{})
	require.NoError(t, err)
	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "i1", res.Suggestions[0].InvoiceID)

	pos, err := svc.GetCashPosition(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "GBP", pos.Position.Currency)

	var sawStore bool
	for _, e := range hook.AllEntries() {
		if e.Message == "using snapshot store" {
			sawStore = true
		}
	}
	assert.True(t, sawStore)
}

func TestOpen_MissingSnapshot(t *testing.T) {
	cfg := config.Default()
	cfg.DataFile = filepath.Join(t.TempDir(), "absent.json")
	logger, _ := test.NewNullLogger()

	_, _, err := app.Open(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, "snapshot unavailable")
}
