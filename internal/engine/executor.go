package engine

import (
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/strategy"
)

// ExecuteOne runs a single trade sized by sizer.
// On error the session is unchanged and no random draw is consumed.
func (s *Session) ExecuteOne(sizer strategy.Sizer) (domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTradable(); err != nil {
		return domain.Trade{}, err
	}
	t := s.executeLocked(sizer)
	s.state.Sizing = sizer.Sizing()
	s.state.UpdatedAt = s.now()
	return t, nil
}

// executeLocked performs one trade. The caller holds mu and has checked
// that the session is tradable.
func (s *Session) executeLocked(sizer strategy.Sizer) domain.Trade {
	st := s.state
	capital := st.CurrentCapital

	// 1. Size
	pct := sizer.RiskPercent(&strategy.Input{
		InitialCapital: st.InitialCapital.InexactFloat64(),
		Capital:        capital.InexactFloat64(),
		History:        st.Trades,
		State:          st.Running,
	})
	risk := capital.Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(AmountScale)

	// 2. Draw and settle
	r := s.dist.Sample(s.rng)
	pl := risk.Mul(decimal.NewFromInt(int64(r)))
	if pl.Add(capital).IsNegative() {
		// The account cannot lose more than it holds.
		pl = capital.Neg()
	}
	after := capital.Add(pl)

	t := domain.Trade{
		TradeNumber:   len(st.Trades) + 1,
		RiskPercent:   pct,
		RiskAmount:    risk,
		OutcomeR:      r,
		ProfitLoss:    pl,
		CapitalBefore: capital,
		CapitalAfter:  after,
		IsWin:         r > 0,
	}

	// 3. Record
	st.Trades = append(st.Trades, t)
	st.CurrentCapital = after
	applyTrade(&st.Running, t, st.InitialCapital)
	if after.LessThan(s.cfg.CrashThreshold) {
		st.Crashed = true
	}
	return t
}
