package domain

import "github.com/shopspring/decimal"

// Stats is a snapshot derived from a session on demand. It is never stored.
type Stats struct {
	TotalTrades int     `json:"total_trades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	SuccessRate float64 `json:"success_rate"` // percent of winning trades

	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentCapital decimal.Decimal `json:"current_capital"`
	PeakCapital    decimal.Decimal `json:"peak_capital"`

	PerformancePct    float64 `json:"performance_pct"` // (current/initial - 1) * 100
	MaxPerformancePct float64 `json:"max_performance_pct"`
	DrawdownPct       float64 `json:"drawdown_pct"`     // relative to running peak, <= 0
	MaxDrawdownPct    float64 `json:"max_drawdown_pct"` // min drawdown over history

	ConsecutiveWins      int `json:"consecutive_wins"`
	ConsecutiveLosses    int `json:"consecutive_losses"`
	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	OutcomeCounts map[int]int `json:"outcome_distribution"`

	// Averages is set only when sizing is strategy driven.
	Averages *StrategyAverages `json:"averages,omitempty"`

	AccountCrashed bool `json:"account_crashed"`
}

// StrategyAverages are per-trade averages over a strategy driven session.
type StrategyAverages struct {
	RiskPercent float64         `json:"avg_risk_percent"`
	RiskAmount  decimal.Decimal `json:"avg_risk_amount"`
	ProfitLoss  decimal.Decimal `json:"avg_profit_loss"`
}

// HistoryPoint is one point of a session's equity curve.
type HistoryPoint struct {
	TradeNumber  int             `json:"trade_number"`
	CapitalAfter decimal.Decimal `json:"capital_after"`
}
