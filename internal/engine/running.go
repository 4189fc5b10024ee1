package engine

import (
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// newRunningState returns the state of a session that has not traded yet.
func newRunningState(initial decimal.Decimal) domain.RunningState {
	return domain.RunningState{
		PeakCapital:   initial,
		OutcomeCounts: make(map[int]int),
	}
}

// applyTrade folds one trade into the running state.
func applyTrade(st *domain.RunningState, t domain.Trade, initial decimal.Decimal) {
	r := t.Return()
	st.ReturnSum += r
	st.ReturnSqSum += r * r
	st.RiskPercentSum += t.RiskPercent
	st.RiskAmountSum = st.RiskAmountSum.Add(t.RiskAmount)

	if st.OutcomeCounts == nil {
		st.OutcomeCounts = make(map[int]int)
	}
	st.OutcomeCounts[t.OutcomeR]++

	if t.IsWin {
		st.ConsecutiveWins++
		st.ConsecutiveLosses = 0
		if st.ConsecutiveWins > st.MaxConsecutiveWins {
			st.MaxConsecutiveWins = st.ConsecutiveWins
		}
	} else {
		st.ConsecutiveLosses++
		st.ConsecutiveWins = 0
		if st.ConsecutiveLosses > st.MaxConsecutiveLosses {
			st.MaxConsecutiveLosses = st.ConsecutiveLosses
		}
	}

	if t.ProfitLoss.IsNegative() {
		st.NegativeRun++
	} else {
		st.NegativeRun = 0
	}

	if t.CapitalAfter.GreaterThan(st.PeakCapital) {
		st.PeakCapital = t.CapitalAfter
	}
	st.DrawdownPct = drawdownPct(t.CapitalAfter, st.PeakCapital)
	if st.DrawdownPct < st.MaxDrawdownPct {
		st.MaxDrawdownPct = st.DrawdownPct
	}

	if perf := performancePct(t.CapitalAfter, initial); perf > st.MaxPerformancePct {
		st.MaxPerformancePct = perf
	}
}

// drawdownPct returns (capital - peak) / peak * 100, zero at the peak.
func drawdownPct(capital, peak decimal.Decimal) float64 {
	if !peak.IsPositive() || capital.GreaterThanOrEqual(peak) {
		return 0
	}
	return capital.Sub(peak).Div(peak).Mul(hundred).InexactFloat64()
}

// performancePct returns (capital - initial) / initial * 100.
func performancePct(capital, initial decimal.Decimal) float64 {
	if !initial.IsPositive() {
		return 0
	}
	return capital.Sub(initial).Div(initial).Mul(hundred).InexactFloat64()
}
