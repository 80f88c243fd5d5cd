package core

import (
	"context"
	"fmt"
	"time"

	"pnl-engine/internal/money"

	"github.com/jackc/pgx/v5/pgxpool"
)

type cashStore struct {
	pool *pgxpool.Pool
}

// NewCashStore returns a Postgres-backed CashStore.
func NewCashStore(pool *pgxpool.Pool) CashStore {
	return &cashStore{pool: pool}
}

func (s *cashStore) ListAccounts(ctx context.Context, brand string) ([]CashAccount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, brand, name, type, balance, currency, snapshot_at
		FROM cash_accounts
		WHERE ($1 = '' OR brand = $1)
		ORDER BY type, name, id
	`, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash accounts: %w", err)
	}
	defer rows.Close()

	var accounts []CashAccount
	for rows.Next() {
		var a CashAccount
		var kind string
		if err := rows.Scan(&a.ID, &a.Brand, &a.Name, &kind, &a.Balance, &a.Currency, &a.SnapshotAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash account: %w", err)
		}
		a.Type = AccountKind(kind)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *cashStore) ListEvents(ctx context.Context, brand string, from, to time.Time) ([]CashEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, brand, direction, category, amount, event_date, is_forecast, source_ref
		FROM cash_events
		WHERE ($1 = '' OR brand = $1) AND event_date >= $2 AND event_date <= $3
		ORDER BY event_date, id
	`, brand, money.Date(from), money.Date(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query cash events: %w", err)
	}
	defer rows.Close()

	var events []CashEvent
	for rows.Next() {
		var e CashEvent
		var dir string
		if err := rows.Scan(&e.ID, &e.Brand, &dir, &e.Category, &e.Amount, &e.Date, &e.Forecast, &e.SourceRef); err != nil {
			return nil, fmt.Errorf("failed to scan cash event: %w", err)
		}
		e.Direction = EventDirection(dir)
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetHistory returns one point per day, summed across brands when brand is empty.
func (s *cashStore) GetHistory(ctx context.Context, brand string, from, to time.Time) (CashHistory, error) {
	h := CashHistory{Brand: brand}
	rows, err := s.pool.Query(ctx, `
		SELECT balance_date, SUM(net_position)
		FROM cash_balance_history
		WHERE ($1 = '' OR brand = $1) AND balance_date >= $2 AND balance_date <= $3
		GROUP BY balance_date
		ORDER BY balance_date
	`, brand, money.Date(from), money.Date(to))
	if err != nil {
		return h, fmt.Errorf("failed to query balance history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p BalancePoint
		if err := rows.Scan(&p.Date, &p.NetPosition); err != nil {
			return h, fmt.Errorf("failed to scan balance point: %w", err)
		}
		h.Points = append(h.Points, p)
	}
	return h, rows.Err()
}
