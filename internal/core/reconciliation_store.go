package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReconciliationStore persists orders, invoices and the confirmed links between them.
// An empty brand means all brands.
type ReconciliationStore interface {
	ListOrders(ctx context.Context, brand string) ([]Order, error)
	ListInvoices(ctx context.Context, brand string) ([]Invoice, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)

	// LinkMatch atomically sets both back-references. It fails with ErrNotFound when
	// either id is unknown and ErrAlreadyLinked when either side has a counterpart.
	LinkMatch(ctx context.Context, orderID, invoiceID string) error
	// UnlinkMatch clears an order's link and its invoice's back-reference.
	UnlinkMatch(ctx context.Context, orderID string) error
	// TransitionOrder applies exclude/include to an order.
	TransitionOrder(ctx context.Context, orderID string, action OrderAction) (*Order, error)
	// TransitionInvoice applies a reviewer action to an invoice.
	TransitionInvoice(ctx context.Context, invoiceID string, action InvoiceAction) (*Invoice, error)
}

// CashStore reads account snapshots, scheduled events and balance history.
type CashStore interface {
	ListAccounts(ctx context.Context, brand string) ([]CashAccount, error)
	ListEvents(ctx context.Context, brand string, from, to time.Time) ([]CashEvent, error)
	GetHistory(ctx context.Context, brand string, from, to time.Time) (CashHistory, error)
}

// checkLink reports why o and i cannot be linked, if anything.
// The already-linked check comes first so repeating a successful link reports ErrAlreadyLinked.
func checkLink(o *Order, i *Invoice) error {
	if o.IsLinked() {
		return fmt.Errorf("order %s is linked to invoice %s: %w", o.ID, *o.MatchedInvoiceID, ErrAlreadyLinked)
	}
	if i.IsLinked() {
		return fmt.Errorf("invoice %s is linked to order %s: %w", i.ID, *i.MatchedOrderID, ErrAlreadyLinked)
	}
	if _, err := NextOrderState(o.State, OrderLink); err != nil {
		return err
	}
	if !strings.EqualFold(o.Currency, i.Currency) {
		return fmt.Errorf("order %s is in %s but invoice %s is in %s: %w", o.ID, o.Currency, i.ID, i.Currency, ErrInvalidInput)
	}
	return nil
}

// ── Postgres implementation ─────────────────────────────────────────────────

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type reconciliationStore struct {
	pool *pgxpool.Pool
}

// NewReconciliationStore returns a Postgres-backed ReconciliationStore.
func NewReconciliationStore(pool *pgxpool.Pool) ReconciliationStore {
	return &reconciliationStore{pool: pool}
}

const orderColumns = `id, brand, order_date, customer_name, alt_customer_names, subtotal, total,
	currency, raw_source, state, matched_invoice_id`

const invoiceColumns = `id, brand, invoice_number, contact_name, invoice_date, subtotal, tax, total,
	currency, status, matched_order_id`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var raw []byte
	var state string
	if err := row.Scan(&o.ID, &o.Brand, &o.OrderDate, &o.CustomerName, &o.AltCustomerNames,
		&o.Subtotal, &o.Total, &o.Currency, &raw, &state, &o.MatchedInvoiceID); err != nil {
		return nil, err
	}
	o.RawSource = raw
	o.State = OrderState(state)
	return &o, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var i Invoice
	var status string
	if err := row.Scan(&i.ID, &i.Brand, &i.InvoiceNumber, &i.ContactName, &i.InvoiceDate,
		&i.Subtotal, &i.Tax, &i.Total, &i.Currency, &status, &i.MatchedOrderID); err != nil {
		return nil, err
	}
	i.Status = InvoiceStatus(status)
	return &i, nil
}

func (s *reconciliationStore) ListOrders(ctx context.Context, brand string) ([]Order, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR brand = $1)
		ORDER BY order_date, id`, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *reconciliationStore) ListInvoices(ctx context.Context, brand string) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices
		WHERE ($1 = '' OR brand = $1)
		ORDER BY invoice_date, id`, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *i)
	}
	return invoices, rows.Err()
}

func (s *reconciliationStore) GetOrder(ctx context.Context, id string) (*Order, error) {
	return getOrder(ctx, s.pool, id, false)
}

func (s *reconciliationStore) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return getInvoice(ctx, s.pool, id, false)
}

func getOrder(ctx context.Context, q pgxQuerier, id string, forUpdate bool) (*Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	o, err := scanOrder(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order %s: %w", id, err)
	}
	return o, nil
}

func getInvoice(ctx context.Context, q pgxQuerier, id string, forUpdate bool) (*Invoice, error) {
	sql := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	i, err := scanInvoice(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load invoice %s: %w", id, err)
	}
	return i, nil
}

// LinkMatch locks the order row then the invoice row. The fixed lock order keeps two
// reviewers confirming overlapping suggestions from deadlocking.
func (s *reconciliationStore) LinkMatch(ctx context.Context, orderID, invoiceID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := getOrder(ctx, tx, orderID, true)
	if err != nil {
		return err
	}
	i, err := getInvoice(ctx, tx, invoiceID, true)
	if err != nil {
		return err
	}
	if err := checkLink(o, i); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE orders SET matched_invoice_id = $1, state = $2, updated_at = NOW() WHERE id = $3`,
		invoiceID, string(OrderMatched), orderID,
	); err != nil {
		return fmt.Errorf("failed to link order %s: %w", orderID, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET matched_order_id = $1, updated_at = NOW() WHERE id = $2`,
		orderID, invoiceID,
	); err != nil {
		return fmt.Errorf("failed to link invoice %s: %w", invoiceID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit link: %w", err)
	}
	return nil
}

func (s *reconciliationStore) UnlinkMatch(ctx context.Context, orderID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := getOrder(ctx, tx, orderID, true)
	if err != nil {
		return err
	}
	if !o.IsLinked() {
		return fmt.Errorf("order %s: %w", orderID, ErrNotLinked)
	}
	next, err := NextOrderState(o.State, OrderUnlink)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE invoices SET matched_order_id = NULL, updated_at = NOW() WHERE id = $1 AND matched_order_id = $2`,
		*o.MatchedInvoiceID, orderID,
	); err != nil {
		return fmt.Errorf("failed to unlink invoice %s: %w", *o.MatchedInvoiceID, err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE orders SET matched_invoice_id = NULL, state = $1, updated_at = NOW() WHERE id = $2`,
		string(next), orderID,
	); err != nil {
		return fmt.Errorf("failed to unlink order %s: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unlink: %w", err)
	}
	return nil
}

func (s *reconciliationStore) TransitionOrder(ctx context.Context, orderID string, action OrderAction) (*Order, error) {
	if action == OrderLink || action == OrderUnlink {
		return nil, fmt.Errorf("use LinkMatch/UnlinkMatch to %s an order: %w", action, ErrInvalidInput)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	o, err := getOrder(ctx, tx, orderID, true)
	if err != nil {
		return nil, err
	}
	next, err := NextOrderState(o.State, action)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET state = $1, updated_at = NOW() WHERE id = $2`, string(next), orderID); err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	o.State = next
	return o, nil
}

func (s *reconciliationStore) TransitionInvoice(ctx context.Context, invoiceID string, action InvoiceAction) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	i, err := getInvoice(ctx, tx, invoiceID, true)
	if err != nil {
		return nil, err
	}
	next, err := NextInvoiceStatus(i.Status, action)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2`, string(next), invoiceID); err != nil {
		return nil, fmt.Errorf("failed to update invoice %s: %w", invoiceID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	i.Status = next
	return i, nil
}
