package metrics

import "rmultiple-lab/internal/domain"

// Summarize builds the per-simulation result of a finished session.
// Identity fields (batch, keys, index, seed) are left to the caller.
func Summarize(s *domain.Session, keepEquityCurve bool) *domain.SimulationResult {
	st := ComputeStats(s)

	r := &domain.SimulationResult{
		TradesExecuted:       st.TotalTrades,
		Crashed:              s.Crashed,
		InitialCapital:       s.InitialCapital.InexactFloat64(),
		FinalCapital:         s.CurrentCapital.InexactFloat64(),
		PerformancePct:       st.PerformancePct,
		MaxCapital:           st.PeakCapital.InexactFloat64(),
		MaxDrawdownPct:       st.MaxDrawdownPct,
		MaxPerformancePct:    st.MaxPerformancePct,
		MaxConsecutiveWins:   st.MaxConsecutiveWins,
		MaxConsecutiveLosses: st.MaxConsecutiveLosses,
		SuccessRate:          st.SuccessRate,
		Wins:                 st.Wins,
		Losses:               st.Losses,
	}

	n := len(s.Trades)
	if n == 0 {
		return r
	}

	riskPct := make([]float64, n)
	riskAmt := make([]float64, n)
	pl := make([]float64, n)
	for i, t := range s.Trades {
		riskPct[i] = t.RiskPercent
		riskAmt[i] = t.RiskAmount.InexactFloat64()
		pl[i] = t.ProfitLoss.InexactFloat64()
	}
	r.AvgRiskPercent = computeMean(riskPct)
	r.AvgRiskAmount = computeMean(riskAmt)
	r.AvgProfitLoss = computeMean(pl)
	r.ProfitLossStd = computeStddev(pl, r.AvgProfitLoss)

	if keepEquityCurve {
		r.EquityCurve = make([]float64, n)
		for i, t := range s.Trades {
			r.EquityCurve[i] = t.CapitalAfter.InexactFloat64()
		}
	}
	return r
}
