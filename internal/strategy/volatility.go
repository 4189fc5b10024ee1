package strategy

import "math"

// Volatility thresholds shared by the volatility driven strategies.
const (
	volatilityThreshold = 0.05 // returns std dev above which risk is reduced
	stressThreshold     = 1.5  // recent/global variance ratio above which risk is reduced
	reducedRiskFloor    = 0.25
)

// InternalVolatility reduces risk when recent returns are volatile.
type InternalVolatility struct {
	BaseRisk  float64
	Window    int
	VolFactor float64
}

// Key returns the catalog key.
func (s *InternalVolatility) Key() string { return KeyInternalVolatility }

// NextRiskPercent lowers base risk in proportion to volatility above 5%.
func (s *InternalVolatility) NextRiskPercent(in *Input) float64 {
	if len(in.History) < s.Window {
		return s.BaseRisk
	}
	vol := volatility(windowReturns(in.History, s.Window))
	if vol > volatilityThreshold {
		return math.Max(reducedRiskFloor, s.BaseRisk-s.VolFactor*(vol-volatilityThreshold)*10)
	}
	return s.BaseRisk
}

// StressIndex compares recent variance of returns with the variance of the
// whole history.
type StressIndex struct {
	BaseRisk     float64
	Window       int
	StressFactor float64
}

// Key returns the catalog key.
func (s *StressIndex) Key() string { return KeyStressIndex }

// NextRiskPercent lowers base risk when the stress ratio exceeds 1.5.
func (s *StressIndex) NextRiskPercent(in *Input) float64 {
	if len(in.History) < 2*s.Window {
		return s.BaseRisk
	}
	global := globalVariance(in.State, len(in.History))
	if global == 0 {
		return s.BaseRisk
	}
	stress := variance(windowReturns(in.History, s.Window)) / global
	if stress > stressThreshold {
		return math.Max(reducedRiskFloor, s.BaseRisk-s.StressFactor*(stress-stressThreshold))
	}
	return s.BaseRisk
}

// SurpriseTrade reacts to exceptional last trades.
type SurpriseTrade struct {
	BaseRisk      float64
	GainThreshold float64
	LossThreshold float64
	BoostFactor   float64
	ReduceFactor  float64
}

// Key returns the catalog key.
func (s *SurpriseTrade) Key() string { return KeySurpriseTrade }

// NextRiskPercent boosts after a large win and reduces after a large loss.
func (s *SurpriseTrade) NextRiskPercent(in *Input) float64 {
	last, ok := lastTrade(in.History)
	if !ok {
		return s.BaseRisk
	}
	r := math.Abs(float64(last.OutcomeR))
	switch {
	case last.ProfitLoss.IsPositive() && r >= s.GainThreshold:
		return s.BaseRisk * s.BoostFactor
	case last.ProfitLoss.IsNegative() && r >= s.LossThreshold:
		return s.BaseRisk * s.ReduceFactor
	}
	return s.BaseRisk
}

// ExpectationDeviation boosts risk when recent outcomes beat the long run
// average outcome.
type ExpectationDeviation struct {
	BaseRisk float64
	Window   int
	UpFactor float64
}

// outperformanceRatio is how much the window average must exceed the long run average.
const outperformanceRatio = 1.2

// Key returns the catalog key.
func (s *ExpectationDeviation) Key() string { return KeyExpectationDeviation }

// NextRiskPercent returns base*UpFactor when the window mean R exceeds the
// overall mean R by the outperformance ratio.
func (s *ExpectationDeviation) NextRiskPercent(in *Input) float64 {
	if len(in.History) < s.Window {
		return s.BaseRisk
	}
	recent := in.History[len(in.History)-s.Window:]
	sum := 0
	for _, t := range recent {
		sum += t.OutcomeR
	}
	windowMean := float64(sum) / float64(len(recent))
	if windowMean > meanOutcome(in.State)*outperformanceRatio {
		return s.BaseRisk * s.UpFactor
	}
	return s.BaseRisk
}
