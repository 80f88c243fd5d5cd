package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"pnl-engine/internal/money"

	"github.com/shopspring/decimal"
)

// Snapshot is a JSON export of everything the engine reads. It seeds the in-memory
// store and the database restore tool.
type Snapshot struct {
	Orders   []Order       `json:"orders"`
	Invoices []Invoice     `json:"invoices"`
	Accounts []CashAccount `json:"accounts"`
	Events   []CashEvent   `json:"events"`
	History  []CashHistory `json:"history"`
}

// LoadSnapshot decodes a snapshot from r.
func LoadSnapshot(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// LoadSnapshotFile reads a snapshot from path.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return LoadSnapshot(f)
}

// MemoryStore is a mutex-guarded ReconciliationStore and CashStore over a Snapshot.
// Link operations hold the lock for the whole check-and-set.
type MemoryStore struct {
	mu       sync.Mutex
	orders   map[string]*Order
	invoices map[string]*Invoice
	snap     Snapshot
}

var (
	_ ReconciliationStore = (*MemoryStore)(nil)
	_ CashStore           = (*MemoryStore)(nil)
)

// NewMemoryStore copies snap into a new store, normalizing orders and invoices.
// Order and invoice ids must be unique after trimming.
func NewMemoryStore(snap *Snapshot) (*MemoryStore, error) {
	m := &MemoryStore{
		orders:   make(map[string]*Order, len(snap.Orders)),
		invoices: make(map[string]*Invoice, len(snap.Invoices)),
	}
	for i := range snap.Orders {
		o := snap.Orders[i]
		o.Normalize()
		if _, dup := m.orders[o.ID]; dup {
			return nil, fmt.Errorf("duplicate order id %s: %w", o.ID, ErrInvalidInput)
		}
		m.orders[o.ID] = &o
	}
	for i := range snap.Invoices {
		inv := snap.Invoices[i]
		inv.Normalize()
		if _, dup := m.invoices[inv.ID]; dup {
			return nil, fmt.Errorf("duplicate invoice id %s: %w", inv.ID, ErrInvalidInput)
		}
		m.invoices[inv.ID] = &inv
	}
	m.snap.Accounts = append([]CashAccount(nil), snap.Accounts...)
	m.snap.Events = append([]CashEvent(nil), snap.Events...)
	m.snap.History = append([]CashHistory(nil), snap.History...)
	return m, nil
}

func (m *MemoryStore) ListOrders(_ context.Context, brand string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Order, 0, len(m.orders))
	for _, o := range m.orders {
		if brand == "" || o.Brand == brand {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) ListInvoices(_ context.Context, brand string) ([]Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invoice, 0, len(m.invoices))
	for _, i := range m.invoices {
		if brand == "" || i.Brand == brand {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].InvoiceDate.Equal(out[b].InvoiceDate) {
			return out[a].InvoiceDate.Before(out[b].InvoiceDate)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (m *MemoryStore) GetOrder(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	c := *o
	return &c, nil
}

func (m *MemoryStore) GetInvoice(_ context.Context, id string) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	c := *i
	return &c, nil
}

func (m *MemoryStore) LinkMatch(ctx context.Context, orderID, invoiceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	i, ok := m.invoices[invoiceID]
	if !ok {
		return fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	if err := checkLink(o, i); err != nil {
		return err
	}

	oid, iid := orderID, invoiceID
	o.MatchedInvoiceID = &iid
	o.State = OrderMatched
	i.MatchedOrderID = &oid
	return nil
}

func (m *MemoryStore) UnlinkMatch(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if !o.IsLinked() {
		return fmt.Errorf("order %s: %w", orderID, ErrNotLinked)
	}
	next, err := NextOrderState(o.State, OrderUnlink)
	if err != nil {
		return err
	}
	if i, ok := m.invoices[*o.MatchedInvoiceID]; ok && i.MatchedOrderID != nil && *i.MatchedOrderID == orderID {
		i.MatchedOrderID = nil
	}
	o.MatchedInvoiceID = nil
	o.State = next
	return nil
}

func (m *MemoryStore) TransitionOrder(_ context.Context, orderID string, action OrderAction) (*Order, error) {
	if action == OrderLink || action == OrderUnlink {
		return nil, fmt.Errorf("use LinkMatch/UnlinkMatch to %s an order: %w", action, ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	next, err := NextOrderState(o.State, action)
	if err != nil {
		return nil, err
	}
	o.State = next
	c := *o
	return &c, nil
}

func (m *MemoryStore) TransitionInvoice(_ context.Context, invoiceID string, action InvoiceAction) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	next, err := NextInvoiceStatus(i.Status, action)
	if err != nil {
		return nil, err
	}
	i.Status = next
	c := *i
	return &c, nil
}

func (m *MemoryStore) ListAccounts(_ context.Context, brand string) ([]CashAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CashAccount
	for _, a := range m.snap.Accounts {
		if brand == "" || a.Brand == brand {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListEvents(_ context.Context, brand string, from, to time.Time) ([]CashEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []CashEvent
	for _, e := range m.snap.Events {
		day := money.Date(e.Date)
		if (brand == "" || e.Brand == brand) && !day.Before(money.Date(from)) && !day.After(money.Date(to)) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// GetHistory sums the net position of matching brands per calendar day.
func (m *MemoryStore) GetHistory(_ context.Context, brand string, from, to time.Time) (CashHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byDay := map[time.Time]decimal.Decimal{}
	for _, h := range m.snap.History {
		if brand != "" && h.Brand != brand {
			continue
		}
		for _, p := range h.Points {
			day := money.Date(p.Date)
			if day.Before(money.Date(from)) || day.After(money.Date(to)) {
				continue
			}
			byDay[day] = byDay[day].Add(p.NetPosition)
		}
	}

	out := CashHistory{Brand: brand, Points: make([]BalancePoint, 0, len(byDay))}
	for day, net := range byDay {
		out.Points = append(out.Points, BalancePoint{Date: day, NetPosition: net})
	}
	sort.Slice(out.Points, func(i, j int) bool { return out.Points[i].Date.Before(out.Points[j].Date) })
	return out, nil
}
