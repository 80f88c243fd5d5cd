// verify-db applies versioned SQL migrations from ./migrations and then checks that
// every confirmed order/invoice link is consistent on both sides.
//
// Usage: go run ./cmd/verify-db [migrations-dir]
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"pnl-engine/internal/config"
	"pnl-engine/internal/db"
	"pnl-engine/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// migratorLockID is the advisory lock held while migrations run.
const migratorLockID = 7462839

var log = logging.GetLogger()

type migration struct {
	version  string
	filename string
	checksum string
	sql      string
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	ctx := context.Background()
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := db.NewPool(connCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	migrations, err := loadMigrations(dir)
	if err != nil {
		log.Fatalf("Failed to read migrations: %v", err)
	}
	if err := migrate(ctx, pool, migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	problems, err := verifyLinks(ctx, pool)
	if err != nil {
		log.Fatalf("Link verification failed: %v", err)
	}
	if problems > 0 {
		log.WithField("problems", problems).Fatal("inconsistent links found")
	}
	log.Info("links consistent")
}

// loadMigrations reads NNN_description.sql files from dir in version order.
func loadMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []migration
	versions := map[string]string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		version, _, ok := strings.Cut(name, "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("invalid migration filename %s, expected NNN_description.sql", name)
		}
		if prev, dup := versions[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %s: %s and %s", version, prev, name)
		}
		versions[version] = name

		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		sum := sha256.Sum256(body)
		out = append(out, migration{version: version, filename: name, checksum: hex.EncodeToString(sum[:]), sql: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

// migrate applies pending migrations under an advisory lock. An applied migration whose
// file has since changed is an error.
func migrate(ctx context.Context, pool *pgxpool.Pool, migrations []migration) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", migratorLockID).Scan(&locked); err != nil {
		return fmt.Errorf("failed to query advisory lock: %w", err)
	}
	if !locked {
		return errors.New("another migrator is currently running")
	}
	defer conn.Exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migratorLockID)

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied := 0
	for _, m := range migrations {
		entry := log.WithFields(logrus.Fields{"version": m.version, "file": m.filename})

		var existing string
		err := pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.version).Scan(&existing)
		switch {
		case err == nil && existing == m.checksum:
			entry.Debug("migration already applied")
			continue
		case err == nil:
			return fmt.Errorf("checksum mismatch for %s: recorded %s, file %s", m.filename, existing, m.checksum)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("failed to query schema_migrations for %s: %w", m.filename, err)
		}

		err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("failed to execute %s: %w", m.filename, err)
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
				m.version, m.filename, m.checksum)
			return err
		})
		if err != nil {
			return err
		}
		applied++
		entry.Info("migration applied")
	}
	log.WithFields(logrus.Fields{"applied": applied, "total": len(migrations)}).Info("migrations complete")
	return nil
}

// linkChecks each return the offending ids; any row is an integrity failure.
var linkChecks = []struct {
	name  string
	query string
}{
	{
		"order link without matching invoice back-reference",
		`SELECT o.id, o.matched_invoice_id FROM orders o
		 LEFT JOIN invoices i ON i.id = o.matched_invoice_id
		 WHERE o.matched_invoice_id IS NOT NULL AND (i.id IS NULL OR i.matched_order_id IS DISTINCT FROM o.id)`,
	},
	{
		"invoice link without matching order back-reference",
		`SELECT i.matched_order_id, i.id FROM invoices i
		 LEFT JOIN orders o ON o.id = i.matched_order_id
		 WHERE i.matched_order_id IS NOT NULL AND (o.id IS NULL OR o.matched_invoice_id IS DISTINCT FROM i.id)`,
	},
	{
		"order state disagrees with link",
		`SELECT id, COALESCE(matched_invoice_id, '') FROM orders
		 WHERE (state = 'matched') <> (matched_invoice_id IS NOT NULL)`,
	},
}

func verifyLinks(ctx context.Context, pool *pgxpool.Pool) (int, error) {
	problems := 0
	for _, check := range linkChecks {
		rows, err := pool.Query(ctx, check.query)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", check.name, err)
		}
		for rows.Next() {
			var orderID, invoiceID string
			if err := rows.Scan(&orderID, &invoiceID); err != nil {
				rows.Close()
				return 0, fmt.Errorf("%s: %w", check.name, err)
			}
			log.WithFields(logrus.Fields{"order_id": orderID, "invoice_id": invoiceID}).Error(check.name)
			problems++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return problems, nil
}
