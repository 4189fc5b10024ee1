package metrics

import (
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeStats derives a stats snapshot from a session's trade history.
// It is pure: the session is not modified and the running state is not
// consulted, so the result can be checked against it.
func ComputeStats(s *domain.Session) *domain.Stats {
	st := &domain.Stats{
		InitialCapital: s.InitialCapital,
		CurrentCapital: s.CurrentCapital,
		PeakCapital:    s.InitialCapital,
		OutcomeCounts:  make(map[int]int),
		AccountCrashed: s.Crashed,
	}

	var (
		curWins, curLosses int
		riskPctSum         float64
		riskSum, plSum     decimal.Decimal
	)
	for _, t := range s.Trades {
		st.TotalTrades++
		st.OutcomeCounts[t.OutcomeR]++
		riskPctSum += t.RiskPercent
		riskSum = riskSum.Add(t.RiskAmount)
		plSum = plSum.Add(t.ProfitLoss)

		if t.IsWin {
			st.Wins++
			curWins++
			curLosses = 0
			st.MaxConsecutiveWins = max(st.MaxConsecutiveWins, curWins)
		} else {
			st.Losses++
			curLosses++
			curWins = 0
			st.MaxConsecutiveLosses = max(st.MaxConsecutiveLosses, curLosses)
		}

		if t.CapitalAfter.GreaterThan(st.PeakCapital) {
			st.PeakCapital = t.CapitalAfter
		}
		dd := pctChange(t.CapitalAfter, st.PeakCapital)
		if dd > 0 {
			dd = 0
		}
		st.DrawdownPct = dd
		st.MaxDrawdownPct = min(st.MaxDrawdownPct, dd)
		st.MaxPerformancePct = max(st.MaxPerformancePct, pctChange(t.CapitalAfter, s.InitialCapital))
	}

	st.ConsecutiveWins = curWins
	st.ConsecutiveLosses = curLosses
	st.SuccessRate = computeWinRate(st.Wins, st.TotalTrades)
	st.PerformancePct = pctChange(s.CurrentCapital, s.InitialCapital)

	if s.Sizing.Mode == domain.SizingStrategy && st.TotalTrades > 0 {
		n := decimal.NewFromInt(int64(st.TotalTrades))
		st.Averages = &domain.StrategyAverages{
			RiskPercent: riskPctSum / float64(st.TotalTrades),
			RiskAmount:  riskSum.Div(n),
			ProfitLoss:  plSum.Div(n),
		}
	}
	return st
}

// RunningStats derives the same snapshot as ComputeStats from the running
// state the engine keeps, without scanning the trade history.
func RunningStats(s *domain.Session) *domain.Stats {
	rs := s.Running
	n := len(s.Trades)
	st := &domain.Stats{
		TotalTrades:          n,
		InitialCapital:       s.InitialCapital,
		CurrentCapital:       s.CurrentCapital,
		PeakCapital:          rs.PeakCapital,
		PerformancePct:       pctChange(s.CurrentCapital, s.InitialCapital),
		MaxPerformancePct:    rs.MaxPerformancePct,
		DrawdownPct:          rs.DrawdownPct,
		MaxDrawdownPct:       rs.MaxDrawdownPct,
		ConsecutiveWins:      rs.ConsecutiveWins,
		ConsecutiveLosses:    rs.ConsecutiveLosses,
		MaxConsecutiveWins:   rs.MaxConsecutiveWins,
		MaxConsecutiveLosses: rs.MaxConsecutiveLosses,
		OutcomeCounts:        make(map[int]int, len(rs.OutcomeCounts)),
		AccountCrashed:       s.Crashed,
	}
	if n == 0 {
		st.PeakCapital = s.InitialCapital
	}
	for r, c := range rs.OutcomeCounts {
		st.OutcomeCounts[r] = c
		if r > 0 {
			st.Wins += c
		}
	}
	st.Losses = n - st.Wins
	st.SuccessRate = computeWinRate(st.Wins, n)

	if s.Sizing.Mode == domain.SizingStrategy && n > 0 {
		count := decimal.NewFromInt(int64(n))
		st.Averages = &domain.StrategyAverages{
			RiskPercent: rs.RiskPercentSum / float64(n),
			RiskAmount:  rs.RiskAmountSum.Div(count),
			ProfitLoss:  s.CurrentCapital.Sub(s.InitialCapital).Div(count),
		}
	}
	return st
}

// History returns the equity curve of a session in trade order.
func History(s *domain.Session) []domain.HistoryPoint {
	out := make([]domain.HistoryPoint, len(s.Trades))
	for i, t := range s.Trades {
		out[i] = domain.HistoryPoint{TradeNumber: t.TradeNumber, CapitalAfter: t.CapitalAfter}
	}
	return out
}

// pctChange returns (v / base - 1) * 100, or zero for a non-positive base.
func pctChange(v, base decimal.Decimal) float64 {
	if !base.IsPositive() {
		return 0
	}
	return v.Sub(base).Div(base).Mul(hundred).InexactFloat64()
}
