package strategy

import (
	"math"

	"rmultiple-lab/internal/domain"
)

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// gainPct returns the performance of capital relative to the initial capital.
func gainPct(in *Input) float64 {
	if in.InitialCapital <= 0 {
		return 0
	}
	return (in.Capital - in.InitialCapital) / in.InitialCapital * 100
}

// lastTrade returns the most recent trade.
func lastTrade(history []domain.Trade) (domain.Trade, bool) {
	if len(history) == 0 {
		return domain.Trade{}, false
	}
	return history[len(history)-1], true
}

// windowReturns returns per-trade returns of the last n trades.
func windowReturns(history []domain.Trade, n int) []float64 {
	if n > len(history) {
		n = len(history)
	}
	recent := history[len(history)-n:]
	out := make([]float64, len(recent))
	for i, t := range recent {
		out[i] = t.Return()
	}
	return out
}

// variance calculates population variance (n denominator).
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	sumSq := 0.0
	for _, x := range xs {
		d := x - mean
		sumSq += d * d
	}
	return sumSq / float64(len(xs))
}

// volatility is the population standard deviation of returns.
func volatility(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// globalVariance derives the population variance of all returns from the
// running sums kept in state.
func globalVariance(state domain.RunningState, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := state.ReturnSum / float64(n)
	v := state.ReturnSqSum/float64(n) - mean*mean
	if v < 0 {
		return 0
	}
	return v
}

// meanOutcome returns the average R-multiple over all recorded outcomes.
func meanOutcome(state domain.RunningState) float64 {
	total, n := 0, 0
	for r, c := range state.OutcomeCounts {
		total += r * c
		n += c
	}
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}

// tradesSincePeak counts trailing trades that closed below the running peak.
func tradesSincePeak(in *Input) int {
	count := 0
	for i := len(in.History) - 1; i >= 0; i-- {
		if !in.History[i].CapitalAfter.LessThan(in.State.PeakCapital) {
			break
		}
		count++
	}
	return count
}
