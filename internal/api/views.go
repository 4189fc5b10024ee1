package api

import (
	"math"

	"rmultiple-lab/internal/domain"
)

// statsView rounds strategy averages to 2 decimals for display.
func statsView(st *domain.Stats) *domain.Stats {
	if st == nil || st.Averages == nil {
		return st
	}
	out := *st
	out.Averages = &domain.StrategyAverages{
		RiskPercent: math.Round(st.Averages.RiskPercent*100) / 100,
		RiskAmount:  st.Averages.RiskAmount.Round(2),
		ProfitLoss:  st.Averages.ProfitLoss.Round(2),
	}
	return &out
}
