package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SizingMode selects how risk percent is determined for each trade.
type SizingMode string

// Sizing modes
const (
	SizingFixed    SizingMode = "fixed"
	SizingStrategy SizingMode = "strategy"
)

// Sizing is the position sizing configuration of the latest trade operation.
type Sizing struct {
	Mode        SizingMode         `json:"mode"`
	RiskPercent float64            `json:"risk_percent,omitempty"` // fixed mode only
	StrategyKey string             `json:"strategy_key,omitempty"` // strategy mode only
	Params      map[string]float64 `json:"params,omitempty"`       // resolved, defaults merged
}

// RunningState holds aggregates maintained trade by trade.
// It is the strategy-local state of a session: strategies read it, only the
// executor writes it.
type RunningState struct {
	PeakCapital       decimal.Decimal `json:"peak_capital"`
	DrawdownPct       float64         `json:"drawdown_pct"`     // <= 0
	MaxDrawdownPct    float64         `json:"max_drawdown_pct"` // most negative drawdown seen
	MaxPerformancePct float64         `json:"max_performance_pct"`

	ConsecutiveWins      int `json:"consecutive_wins"`
	ConsecutiveLosses    int `json:"consecutive_losses"`
	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	// NegativeRun counts trailing trades with a negative profit. Unlike
	// ConsecutiveLosses it is ended by a scratch trade.
	NegativeRun int `json:"negative_run"`

	OutcomeCounts map[int]int `json:"outcome_counts"`

	// Sums over per-trade returns, used for volatility without rescanning history.
	ReturnSum   float64 `json:"return_sum"`
	ReturnSqSum float64 `json:"return_sq_sum"`

	// Sums over per-trade sizing, used for strategy averages.
	RiskPercentSum float64         `json:"risk_percent_sum"`
	RiskAmountSum  decimal.Decimal `json:"risk_amount_sum"`
}

// Session is the aggregate root of one simulated account.
// Invariant: CurrentCapital == InitialCapital + sum(Trades[i].ProfitLoss).
type Session struct {
	ID      string `json:"id"`
	Started bool   `json:"started"`

	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentCapital decimal.Decimal `json:"current_capital"`

	PresetKey string          `json:"preset_key,omitempty"`
	Outcomes  map[int]float64 `json:"outcomes"` // normalized weights

	Sizing  Sizing       `json:"sizing"`
	Trades  []Trade      `json:"trades"`
	Running RunningState `json:"running"`
	Crashed bool         `json:"crashed"`

	// Random stream. RNGState is the marshalled PCG source after the last draw.
	Seed     uint64 `json:"seed"`
	RNGState []byte `json:"rng_state"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Outcomes != nil {
		c.Outcomes = make(map[int]float64, len(s.Outcomes))
		for r, w := range s.Outcomes {
			c.Outcomes[r] = w
		}
	}
	if s.Sizing.Params != nil {
		c.Sizing.Params = make(map[string]float64, len(s.Sizing.Params))
		for k, v := range s.Sizing.Params {
			c.Sizing.Params[k] = v
		}
	}
	if s.Trades != nil {
		c.Trades = make([]Trade, len(s.Trades))
		copy(c.Trades, s.Trades)
	}
	if s.Running.OutcomeCounts != nil {
		c.Running.OutcomeCounts = make(map[int]int, len(s.Running.OutcomeCounts))
		for r, n := range s.Running.OutcomeCounts {
			c.Running.OutcomeCounts[r] = n
		}
	}
	if s.RNGState != nil {
		c.RNGState = append([]byte(nil), s.RNGState...)
	}
	return &c
}
