package domain

import "github.com/shopspring/decimal"

// Trade is one simulated trade. Created only by the engine executor and
// never mutated after it is appended to a session.
type Trade struct {
	TradeNumber   int             `json:"trade_number"` // 1-based, monotonic
	RiskPercent   float64         `json:"risk_percent"`
	RiskAmount    decimal.Decimal `json:"risk_amount"` // capital_before * risk_percent / 100
	OutcomeR      int             `json:"outcome_r"`   // sampled R-multiple
	ProfitLoss    decimal.Decimal `json:"profit_loss"` // risk_amount * outcome_r
	CapitalBefore decimal.Decimal `json:"capital_before"`
	CapitalAfter  decimal.Decimal `json:"capital_after"`
	IsWin         bool            `json:"is_win"` // outcome_r > 0
}

// Return is the trade profit relative to capital before the trade.
func (t Trade) Return() float64 {
	if t.CapitalBefore.IsZero() {
		return 0
	}
	return t.ProfitLoss.Div(t.CapitalBefore).InexactFloat64()
}
