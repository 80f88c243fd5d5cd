package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pnl-engine/internal/config"
	"pnl-engine/internal/core"
	"pnl-engine/internal/lock"
	"pnl-engine/internal/logging"
	"pnl-engine/internal/money"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type appService struct {
	store  core.ReconciliationStore
	cash   core.CashStore
	locker lock.Locker
	cfg    *config.Config
	logger logrus.FieldLogger
	now    func() time.Time
}

// Option customises an appService.
type Option func(*appService)

// WithClock fixes "today" for forecasts.
func WithClock(now func() time.Time) Option {
	return func(s *appService) { s.now = now }
}

// WithLogger replaces the package logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *appService) { s.logger = l }
}

// NewAppService constructs an appService that satisfies ApplicationService.
// A nil locker disables pass locking.
func NewAppService(
	store core.ReconciliationStore,
	cash core.CashStore,
	locker lock.Locker,
	cfg *config.Config,
	opts ...Option,
) ApplicationService {
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	if cfg == nil {
		cfg = config.Default()
	}
	s := &appService{
		store:  store,
		cash:   cash,
		locker: locker,
		cfg:    cfg,
		logger: logging.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── Reconciliation ──────────────────────────────────────────────────────────

// SuggestMatches runs one suggestion pass under the brand's pass lock.
func (s *appService) SuggestMatches(ctx context.Context, req SuggestRequest) (*SuggestionResult, error) {
	mc := s.matchingConfig()
	if req.MinConfidence != nil {
		mc.MinConfidence = *req.MinConfidence
	}
	if err := mc.Validate(); err != nil {
		return nil, err
	}

	release, err := s.obtainPassLock(ctx, req.Brand)
	if err != nil {
		return nil, err
	}
	defer release()

	var orders []core.Order
	var invoices []core.Invoice
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrders(gctx, req.Brand)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.store.ListInvoices(gctx, req.Brand)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load reconciliation backlog: %w", err)
	}

	res, err := core.SuggestMatches(ctx, orders, invoices, mc, core.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}

	byOrder := make(map[string]core.Order, len(orders))
	for _, o := range orders {
		byOrder[o.ID] = o
	}
	byInvoice := make(map[string]core.Invoice, len(invoices))
	for _, i := range invoices {
		byInvoice[i.ID] = i
	}

	out := &SuggestionResult{
		Brand:             req.Brand,
		MinConfidence:     mc.MinConfidence,
		Suggestions:       make([]SuggestionDetail, 0, len(res.Suggestions)),
		UnmatchedOrders:   res.UnmatchedOrders,
		UnmatchedInvoices: res.UnmatchedInvoices,
		Skipped:           res.Skipped,
	}
	for _, sg := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, SuggestionDetail{
			MatchSuggestion: sg,
			Order:           byOrder[sg.OrderID],
			Invoice:         byInvoice[sg.InvoiceID],
		})
	}

	s.logger.WithFields(logrus.Fields{
		"brand":       brandLabel(req.Brand),
		"orders":      len(orders),
		"invoices":    len(invoices),
		"suggestions": len(out.Suggestions),
		"skipped":     len(out.Skipped),
	}).Info("suggestion pass complete")
	return out, nil
}

// obtainPassLock takes the brand's pass lock. Lock infrastructure failures are logged
// and the pass proceeds unlocked; only a lock held elsewhere stops it.
func (s *appService) obtainPassLock(ctx context.Context, brand string) (func(), error) {
	key := lock.ReconcileKey(brand)
	l, err := s.locker.Obtain(ctx, key, lock.DefaultTTL)
	if errors.Is(err, lock.ErrBusy) {
		return nil, fmt.Errorf("%s: %w", brandLabel(brand), ErrReconciliationBusy)
	}
	if err != nil {
		logging.LogError(s.logger, "app", "SuggestMatches", "obtaining pass lock; proceeding without lock", key, err)
		return func() {}, nil
	}
	return func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			logging.LogError(s.logger, "app", "SuggestMatches", "releasing pass lock", key, err)
		}
	}, nil
}

// LinkMatch confirms a pairing.
func (s *appService) LinkMatch(ctx context.Context, orderID, invoiceID string) (*LinkResult, error) {
	orderID, invoiceID = strings.TrimSpace(orderID), strings.TrimSpace(invoiceID)
	if orderID == "" || invoiceID == "" {
		return nil, fmt.Errorf("order id and invoice id are required: %w", core.ErrInvalidInput)
	}
	if err := s.store.LinkMatch(ctx, orderID, invoiceID); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"order_id": orderID, "invoice_id": invoiceID}).Info("match linked")
	return &LinkResult{Order: order, Invoice: invoice}, nil
}

// UnlinkMatch removes a confirmed link.
func (s *appService) UnlinkMatch(ctx context.Context, orderID string) (*OrderResult, error) {
	if err := s.store.UnlinkMatch(ctx, orderID); err != nil {
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("order_id", orderID).Info("match unlinked")
	return &OrderResult{Order: order}, nil
}

// ExcludeOrder takes an order out of matching.
func (s *appService) ExcludeOrder(ctx context.Context, orderID string) (*OrderResult, error) {
	return s.transitionOrder(ctx, orderID, core.OrderExclude)
}

// IncludeOrder returns an excluded order to matching.
func (s *appService) IncludeOrder(ctx context.Context, orderID string) (*OrderResult, error) {
	return s.transitionOrder(ctx, orderID, core.OrderInclude)
}

func (s *appService) transitionOrder(ctx context.Context, orderID string, action core.OrderAction) (*OrderResult, error) {
	order, err := s.store.TransitionOrder(ctx, orderID, action)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"order_id": orderID, "action": action, "state": order.State}).Info("order transitioned")
	return &OrderResult{Order: order}, nil
}

// TransitionInvoice applies a reviewer action to an invoice.
func (s *appService) TransitionInvoice(ctx context.Context, invoiceID, action string) (*InvoiceResult, error) {
	a, err := core.ParseInvoiceAction(action)
	if err != nil {
		return nil, err
	}
	invoice, err := s.store.TransitionInvoice(ctx, invoiceID, a)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"invoice_id": invoiceID, "action": a, "status": invoice.Status}).Info("invoice transitioned")
	return &InvoiceResult{Invoice: invoice}, nil
}

// ── Cash ────────────────────────────────────────────────────────────────────

// GetCashPosition totals the brand's accounts.
func (s *appService) GetCashPosition(ctx context.Context, brand string) (*PositionResult, error) {
	accounts, err := s.cash.ListAccounts(ctx, brand)
	if err != nil {
		return nil, err
	}
	return &PositionResult{Brand: brand, Position: core.ComputePosition(accounts)}, nil
}

// GetForecast loads accounts, history and scheduled events concurrently, then derives
// burn, runway, the scenario projection and alerts.
func (s *appService) GetForecast(ctx context.Context, req ForecastRequest) (*ForecastResult, error) {
	horizon := req.HorizonDays
	if horizon == 0 {
		horizon = s.cfg.HorizonDays
	}
	if horizon < 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d: %w", horizon, core.ErrInvalidInput)
	}
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = money.Date(asOf)

	var (
		accounts []core.CashAccount
		history  core.CashHistory
		events   []core.CashEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.cash.ListAccounts(gctx, req.Brand)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.cash.GetHistory(gctx, req.Brand, asOf.AddDate(0, 0, -s.cfg.BurnWindowDays), asOf)
		return err
	})
	g.Go(func() error {
		var err error
		events, err = s.cash.ListEvents(gctx, req.Brand, asOf.AddDate(0, 0, 1), asOf.AddDate(0, 0, horizon))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load cash data: %w", err)
	}

	position := core.ComputePosition(accounts)
	burn := core.ComputeBurn(history, s.cfg.BurnWindowDays)
	runway := core.ComputeRunway(position, burn, asOf)

	pc := s.projectionConfig()
	pc.HorizonDays = horizon
	projection, err := core.Project(position, burn, events, pc, asOf)
	if err != nil {
		return nil, err
	}
	if projection.IgnoredEvents > 0 {
		s.logger.WithFields(logrus.Fields{"brand": brandLabel(req.Brand), "ignored": projection.IgnoredEvents}).
			Warn("cash events outside the horizon or invalid were ignored")
	}

	return &ForecastResult{
		Brand:      req.Brand,
		AsOf:       asOf,
		Position:   position,
		Burn:       burn,
		Runway:     runway,
		Projection: projection,
		Alerts: core.ComputeAlerts(position, runway, projection, core.AlertConfig{
			CriticalRunwayDays: s.cfg.CriticalRunwayDays,
			WarningRunwayDays:  s.cfg.WarningRunwayDays,
		}),
	}, nil
}

// ── Config mapping ──────────────────────────────────────────────────────────

func (s *appService) matchingConfig() core.MatchingConfig {
	mc := core.DefaultMatchingConfig()
	mc.MinConfidence = s.cfg.MinConfidence
	mc.MatchWindowDays = s.cfg.MatchWindowDays
	mc.AmountTolerancePct = s.cfg.AmountTolerancePct
	mc.CrossBrand = s.cfg.CrossBrand
	return mc
}

func (s *appService) projectionConfig() core.ProjectionConfig {
	pc := core.ProjectionConfig{
		HorizonDays:      s.cfg.HorizonDays,
		EarlyWarningDays: s.cfg.EarlyWarningDays,
	}
	for _, sc := range s.cfg.Scenarios {
		pc.Scenarios = append(pc.Scenarios, core.Scenario{
			Name:              sc.Name,
			BurnMultiplier:    sc.BurnMultiplier,
			InflowMultiplier:  sc.InflowMultiplier,
			OutflowMultiplier: sc.OutflowMultiplier,
			InflowDelayDays:   sc.InflowDelayDays,
		})
	}
	return pc
}

func brandLabel(brand string) string {
	if brand == "" {
		return "all brands"
	}
	return brand
}
