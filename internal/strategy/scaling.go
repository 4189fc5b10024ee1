package strategy

import "math"

// LinearScaling adds Increment to risk for every GainStep % of performance.
type LinearScaling struct {
	BaseRisk  float64
	GainStep  float64
	Increment float64
	MaxRisk   float64
}

// Key returns the catalog key.
func (s *LinearScaling) Key() string { return KeyLinearScaling }

// NextRiskPercent returns base + steps*increment, capped at MaxRisk.
func (s *LinearScaling) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	gain := gainPct(in)
	if gain <= 0 {
		return s.BaseRisk
	}
	steps := math.Floor(gain / s.GainStep)
	return math.Min(s.BaseRisk+steps*s.Increment, s.MaxRisk)
}

// GeometricScaling multiplies risk by GrowthRate for every Step % of performance.
type GeometricScaling struct {
	BaseRisk   float64
	GrowthRate float64
	Step       float64
	MaxRisk    float64
}

// Key returns the catalog key.
func (s *GeometricScaling) Key() string { return KeyGeometricScaling }

// NextRiskPercent returns base * growth^steps, capped at MaxRisk.
func (s *GeometricScaling) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	gain := gainPct(in)
	if gain <= 0 {
		return s.BaseRisk
	}
	steps := math.Floor(gain / s.Step)
	return math.Min(s.BaseRisk*math.Pow(s.GrowthRate, steps), s.MaxRisk)
}

// RiskReset raises risk after a plateau of trades without a new high.
type RiskReset struct {
	BaseRisk    float64
	PlateauStep int
	ResetRisk   float64
}

// Key returns the catalog key.
func (s *RiskReset) Key() string { return KeyRiskReset }

// NextRiskPercent returns ResetRisk once PlateauStep trades passed since the peak.
func (s *RiskReset) NextRiskPercent(in *Input) float64 {
	if len(in.History) < s.PlateauStep {
		return s.BaseRisk
	}
	if tradesSincePeak(in) >= s.PlateauStep {
		return s.ResetRisk
	}
	return s.BaseRisk
}

// ATHDistance boosts risk while capital stays close to its all-time high.
type ATHDistance struct {
	BaseRisk    float64
	ATHDistance float64 // % below the peak
	BoostRisk   float64
}

// Key returns the catalog key.
func (s *ATHDistance) Key() string { return KeyATHDistance }

// NextRiskPercent returns BoostRisk when capital is within ATHDistance % of the peak.
func (s *ATHDistance) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	if -in.State.DrawdownPct < s.ATHDistance {
		return s.BoostRisk
	}
	return s.BaseRisk
}
