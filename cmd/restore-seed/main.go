// restore-seed loads a JSON snapshot into the database, replacing the brands it contains.
// Use it to seed a fresh database or to restore one from an export.
//
// Usage: go run ./cmd/restore-seed [snapshot.json]
// Without an argument the path is taken from DATA_FILE.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pnl-engine/internal/config"
	"pnl-engine/internal/core"
	"pnl-engine/internal/db"
	"pnl-engine/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log = logging.GetLogger()

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	path := cfg.DataFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	snap, err := core.LoadSnapshotFile(path)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	if err := snap.Validate(); err != nil {
		log.Fatalf("Snapshot rejected: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		return restore(ctx, tx, snap)
	})
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	log.WithFields(logrus.Fields{
		"file":     path,
		"orders":   len(snap.Orders),
		"invoices": len(snap.Invoices),
		"accounts": len(snap.Accounts),
		"events":   len(snap.Events),
	}).Info("Seed data restored successfully.")
}

func brandsOf(snap *core.Snapshot) []string {
	seen := map[string]bool{}
	var brands []string
	add := func(b string) {
		if !seen[b] {
			seen[b] = true
			brands = append(brands, b)
		}
	}
	for _, o := range snap.Orders {
		add(o.Brand)
	}
	for _, i := range snap.Invoices {
		add(i.Brand)
	}
	for _, a := range snap.Accounts {
		add(a.Brand)
	}
	for _, e := range snap.Events {
		add(e.Brand)
	}
	for _, h := range snap.History {
		add(h.Brand)
	}
	return brands
}

func restore(ctx context.Context, tx pgx.Tx, snap *core.Snapshot) error {
	brands := brandsOf(snap)

	log.WithField("brands", brands).Println("Clearing existing data...")
	// Links are cleared first so the two foreign keys between orders and invoices
	// never block the deletes.
	clearStmts := []string{
		`UPDATE orders SET matched_invoice_id = NULL WHERE brand = ANY($1)`,
		`UPDATE invoices SET matched_order_id = NULL WHERE brand = ANY($1)`,
		`DELETE FROM invoices WHERE brand = ANY($1)`,
		`DELETE FROM orders WHERE brand = ANY($1)`,
		`DELETE FROM cash_accounts WHERE brand = ANY($1)`,
		`DELETE FROM cash_events WHERE brand = ANY($1)`,
		`DELETE FROM cash_balance_history WHERE brand = ANY($1)`,
	}
	for _, q := range clearStmts {
		if _, err := tx.Exec(ctx, q, brands); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	log.Println("Restoring orders...")
	for _, o := range snap.Orders {
		alt := o.AltCustomerNames
		if alt == nil {
			alt = []string{}
		}
		var raw any
		if len(o.RawSource) > 0 {
			raw = string(o.RawSource)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO orders (id, brand, order_date, customer_name, alt_customer_names,
			                    subtotal, total, currency, raw_source, state)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)`,
			o.ID, o.Brand, o.OrderDate, o.CustomerName, alt,
			o.Subtotal, o.Total, o.Currency, raw, string(o.State))
		if err != nil {
			return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
		}
	}

	log.Println("Restoring invoices...")
	for _, i := range snap.Invoices {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoices (id, brand, invoice_number, contact_name, invoice_date,
			                      subtotal, tax, total, currency, status, matched_order_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			i.ID, i.Brand, i.InvoiceNumber, i.ContactName, i.InvoiceDate,
			i.Subtotal, i.Tax, i.Total, i.Currency, string(i.Status), i.MatchedOrderID)
		if err != nil {
			return fmt.Errorf("failed to insert invoice %s: %w", i.ID, err)
		}
	}

	log.Println("Restoring links...")
	for _, o := range snap.Orders {
		if !o.IsLinked() {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE orders SET matched_invoice_id = $1 WHERE id = $2`,
			*o.MatchedInvoiceID, o.ID); err != nil {
			return fmt.Errorf("failed to link order %s: %w", o.ID, err)
		}
	}

	log.Println("Restoring cash accounts...")
	for _, a := range snap.Accounts {
		_, err := tx.Exec(ctx, `
			INSERT INTO cash_accounts (id, brand, name, type, balance, currency, snapshot_at)
			VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
			ON CONFLICT (id) DO UPDATE
			  SET brand = EXCLUDED.brand, name = EXCLUDED.name, type = EXCLUDED.type,
			      balance = EXCLUDED.balance, currency = EXCLUDED.currency,
			      snapshot_at = EXCLUDED.snapshot_at`,
			a.ID, a.Brand, a.Name, string(a.Type), a.Balance, a.Currency, nullTime(a.SnapshotAt))
		if err != nil {
			return fmt.Errorf("failed to upsert account %s: %w", a.ID, err)
		}
	}

	log.Println("Restoring cash events...")
	for _, e := range snap.Events {
		_, err := tx.Exec(ctx, `
			INSERT INTO cash_events (id, brand, direction, category, amount, event_date, is_forecast, source_ref)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			  SET brand = EXCLUDED.brand, direction = EXCLUDED.direction, category = EXCLUDED.category,
			      amount = EXCLUDED.amount, event_date = EXCLUDED.event_date,
			      is_forecast = EXCLUDED.is_forecast, source_ref = EXCLUDED.source_ref`,
			e.ID, e.Brand, string(e.Direction), e.Category, e.Amount, e.Date, e.Forecast, e.SourceRef)
		if err != nil {
			return fmt.Errorf("failed to upsert event %s: %w", e.ID, err)
		}
	}

	log.Println("Restoring balance history...")
	for _, h := range snap.History {
		for _, p := range h.Points {
			_, err := tx.Exec(ctx, `
				INSERT INTO cash_balance_history (brand, balance_date, net_position)
				VALUES ($1, $2, $3)
				ON CONFLICT (brand, balance_date) DO UPDATE SET net_position = EXCLUDED.net_position`,
				h.Brand, p.Date, p.NetPosition)
			if err != nil {
				return fmt.Errorf("failed to upsert balance for %s on %s: %w", h.Brand, p.Date.Format("2006-01-02"), err)
			}
		}
	}
	return nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
