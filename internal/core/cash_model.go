package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes cash accounts from credit facilities.
type AccountKind string

const (
	AccountBank   AccountKind = "bank"
	AccountCredit AccountKind = "credit"
)

// CashAccount is a bank or credit account snapshot.
type CashAccount struct {
	ID         string          `json:"id" validate:"required"`
	Brand      string          `json:"brand"`
	Name       string          `json:"name"`
	Type       AccountKind     `json:"type" validate:"required,oneof=bank credit"`
	Balance    decimal.Decimal `json:"balance"`
	Currency   string          `json:"currency" validate:"required,len=3,alpha"`
	SnapshotAt time.Time       `json:"snapshot_at"`
}

// EventDirection is whether a cash event adds or removes cash.
type EventDirection string

const (
	Inflow  EventDirection = "inflow"
	Outflow EventDirection = "outflow"
)

// CashEvent is a dated expected or actual movement of cash.
type CashEvent struct {
	ID        string          `json:"id"`
	Brand     string          `json:"brand"`
	Direction EventDirection  `json:"direction" validate:"required,oneof=inflow outflow"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date" validate:"required"`
	Forecast  bool            `json:"forecast"`
	SourceRef string          `json:"source_ref,omitempty"`
}

// BalancePoint is the net cash position on one day.
type BalancePoint struct {
	Date        time.Time       `json:"date"`
	NetPosition decimal.Decimal `json:"net_position"`
}

// CashHistory is a series of daily net positions.
type CashHistory struct {
	Brand  string         `json:"brand"`
	Points []BalancePoint `json:"points"`
}

// CashPosition aggregates account balances at a point in time.
type CashPosition struct {
	TotalCash     decimal.Decimal `json:"total_cash"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
	NetPosition   decimal.Decimal `json:"net_position"`
	Currency      string          `json:"currency,omitempty"`
	MixedCurrency bool            `json:"mixed_currency"`
	AccountCount  int             `json:"account_count"`
	Accounts      []CashAccount   `json:"accounts"`
}

// BurnMetrics describes the trend of net cash position. A positive DailyBurnRate means cash
// is being consumed; a negative one means it is accumulating.
type BurnMetrics struct {
	DailyBurnRate   decimal.Decimal `json:"daily_burn_rate"`
	WeeklyBurnRate  decimal.Decimal `json:"weekly_burn_rate"`
	MonthlyBurnRate decimal.Decimal `json:"monthly_burn_rate"`
	IsAccumulating  bool            `json:"is_accumulating"`
	Method          string          `json:"method"`
	SampleSize      int             `json:"sample_size"`
	WindowDays      int             `json:"window_days"`
}

// Checkpoint is a projected balance at a fixed offset.
type Checkpoint struct {
	Week    int             `json:"week"`
	Date    time.Time       `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// RunwayMetrics are nil-valued when cash is not being consumed.
type RunwayMetrics struct {
	DaysRemaining    *float64     `json:"days_remaining"`
	WeeksRemaining   *float64     `json:"weeks_remaining"`
	MonthsRemaining  *float64     `json:"months_remaining"`
	RunwayDate       *time.Time   `json:"runway_date"`
	ProjectedBalance []Checkpoint `json:"projected_balance"`
}

// Scenario is a named set of multipliers for a projection.
type Scenario struct {
	Name              string  `json:"name"`
	BurnMultiplier    float64 `json:"burn_multiplier"`
	InflowMultiplier  float64 `json:"inflow_multiplier"`
	OutflowMultiplier float64 `json:"outflow_multiplier"`
	InflowDelayDays   int     `json:"inflow_delay_days"`
}

// ChartPoint is one day of the projection with a balance per scenario.
type ChartPoint struct {
	Day      int                        `json:"day"`
	Date     time.Time                  `json:"date"`
	Balances map[string]decimal.Decimal `json:"balances"`
}

// ScenarioOutcome summarises one scenario over the horizon.
type ScenarioOutcome struct {
	Name              string          `json:"name"`
	EndBalance        decimal.Decimal `json:"end_balance"`
	MinBalance        decimal.Decimal `json:"min_balance"`
	GoesNegative      bool            `json:"goes_negative"`
	FirstNegativeDate *time.Time      `json:"first_negative_date,omitempty"`
	DaysUntilNegative *int            `json:"days_until_negative,omitempty"`
}

// RiskLevel is the overall projection risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Comparison contrasts scenario outcomes.
type Comparison struct {
	Scenarios      []ScenarioOutcome `json:"scenarios"`
	RiskAssessment RiskLevel         `json:"risk_assessment"`
	Recommendation string            `json:"recommendation"`
}

// EventBucket totals scheduled events for one period.
type EventBucket struct {
	Period   string          `json:"period"`
	Start    time.Time       `json:"start"`
	Inflows  decimal.Decimal `json:"inflows"`
	Outflows decimal.Decimal `json:"outflows"`
	Net      decimal.Decimal `json:"net"`
}

// Projection is the full output of a scenario run.
type Projection struct {
	AsOf          time.Time     `json:"as_of"`
	HorizonDays   int           `json:"horizon_days"`
	Scenarios     []Scenario    `json:"scenarios"`
	ChartData     []ChartPoint  `json:"chart_data"`
	Comparison    Comparison    `json:"comparison"`
	EventSummary  []EventBucket `json:"event_summary"`
	IgnoredEvents int           `json:"ignored_events"`
}

// Severity of a cash alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// CashAlert is a derived warning about the cash outlook.
type CashAlert struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}
