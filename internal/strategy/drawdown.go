package strategy

import "math"

// DrawdownLinear scales risk down linearly between two drawdown levels.
type DrawdownLinear struct {
	DD1      float64 // drawdown % where reduction starts
	DD2      float64 // drawdown % where reduction reaches its floor
	BaseRisk float64
}

// Key returns the catalog key.
func (s *DrawdownLinear) Key() string { return KeyDrawdownLinear }

// NextRiskPercent returns base risk down to 20% of it at DD2.
func (s *DrawdownLinear) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	dd := in.State.DrawdownPct
	switch {
	case dd >= -s.DD1:
		return s.BaseRisk
	case dd <= -s.DD2:
		return s.BaseRisk * 0.2
	}
	progress := (math.Abs(dd) - s.DD1) / (s.DD2 - s.DD1)
	return s.BaseRisk * (1 - 0.8*progress)
}

// DrawdownGeometric multiplies risk by Decay for every DDStep of drawdown.
type DrawdownGeometric struct {
	BaseRisk float64
	DDStep   float64
	Decay    float64
	MinRisk  float64
}

// Key returns the catalog key.
func (s *DrawdownGeometric) Key() string { return KeyDrawdownGeometric }

// NextRiskPercent returns base * decay^steps, not below MinRisk.
func (s *DrawdownGeometric) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	steps := math.Floor(math.Abs(in.State.DrawdownPct) / s.DDStep)
	return math.Max(s.MinRisk, s.BaseRisk*math.Pow(s.Decay, steps))
}

// SafetyMode switches to a fixed safe risk beyond a drawdown threshold.
type SafetyMode struct {
	BaseRisk    float64
	DDThreshold float64
	SafeRisk    float64
}

// Key returns the catalog key.
func (s *SafetyMode) Key() string { return KeySafetyMode }

// NextRiskPercent returns SafeRisk while drawdown exceeds the threshold.
func (s *SafetyMode) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	if in.State.DrawdownPct < -s.DDThreshold {
		return s.SafeRisk
	}
	return s.BaseRisk
}

// HistoricalMaxDD lowers risk when the current drawdown approaches the
// worst drawdown seen so far.
type HistoricalMaxDD struct {
	BaseRisk       float64
	RatioThreshold float64
	LowRisk        float64
}

// minHistoricalTrades is the history needed before the historical max drawdown is trusted.
const minHistoricalTrades = 10

// Key returns the catalog key.
func (s *HistoricalMaxDD) Key() string { return KeyHistoricalMaxDD }

// NextRiskPercent returns LowRisk when current/max drawdown exceeds the threshold.
func (s *HistoricalMaxDD) NextRiskPercent(in *Input) float64 {
	if len(in.History) < minHistoricalTrades {
		return s.BaseRisk
	}
	maxDD := in.State.MaxDrawdownPct
	if maxDD == 0 {
		return s.BaseRisk
	}
	if in.State.DrawdownPct/maxDD > s.RatioThreshold {
		return s.LowRisk
	}
	return s.BaseRisk
}
