package strategy

import "math"

// AntiMartingale multiplies risk after wins and divides it after losses.
// With Inverse set the factors are swapped: risk grows after a loss.
type AntiMartingale struct {
	BaseRisk   float64
	UpFactor   float64
	DownFactor float64
	MinRisk    float64
	MaxRisk    float64
	Inverse    bool
}

// Key returns the catalog key.
func (s *AntiMartingale) Key() string {
	if s.Inverse {
		return KeyInverseAntiMartingale
	}
	return KeyAntiMartingale
}

// NextRiskPercent applies the up or down factor according to the last trade.
func (s *AntiMartingale) NextRiskPercent(in *Input) float64 {
	last, ok := lastTrade(in.History)
	if !ok {
		return s.BaseRisk
	}
	up := last.IsWin != s.Inverse
	factor := s.DownFactor
	if up {
		factor = s.UpFactor
	}
	return clamp(s.BaseRisk*factor, s.MinRisk, s.MaxRisk)
}

// LossStreak reduces risk after LossStreak consecutive losing trades.
// A scratch trade ends the streak.
type LossStreak struct {
	BaseRisk    float64
	LossStreak  int
	ReducedRisk float64
}

// Key returns the catalog key.
func (s *LossStreak) Key() string { return KeyThreeLosses }

// NextRiskPercent returns ReducedRisk when the trailing losses reach the limit.
func (s *LossStreak) NextRiskPercent(in *Input) float64 {
	if len(in.History) < s.LossStreak {
		return s.BaseRisk
	}
	if in.State.NegativeRun >= s.LossStreak {
		return s.ReducedRisk
	}
	return s.BaseRisk
}

// BigLossGuard drops to an emergency risk after a large loss.
type BigLossGuard struct {
	BaseRisk      float64
	ThresholdR    float64
	EmergencyRisk float64
}

// Key returns the catalog key.
func (s *BigLossGuard) Key() string { return KeyBigLossGuard }

// NextRiskPercent returns EmergencyRisk if the last loss was at least ThresholdR.
func (s *BigLossGuard) NextRiskPercent(in *Input) float64 {
	last, ok := lastTrade(in.History)
	if !ok {
		return s.BaseRisk
	}
	if last.ProfitLoss.IsNegative() && math.Abs(float64(last.OutcomeR)) >= s.ThresholdR {
		return s.EmergencyRisk
	}
	return s.BaseRisk
}

// WinStreak boosts risk after GainStreak consecutive wins.
type WinStreak struct {
	BaseRisk    float64
	GainStreak  int
	BoostedRisk float64
}

// Key returns the catalog key.
func (s *WinStreak) Key() string { return KeyWinStreak }

// NextRiskPercent returns BoostedRisk when the trailing wins reach the limit.
func (s *WinStreak) NextRiskPercent(in *Input) float64 {
	if len(in.History) < s.GainStreak {
		return s.BaseRisk
	}
	if in.State.ConsecutiveWins >= s.GainStreak {
		return s.BoostedRisk
	}
	return s.BaseRisk
}

// HeatRamp adds RampFactor per consecutive win, up to StreakLimit wins.
type HeatRamp struct {
	BaseRisk    float64
	RampFactor  float64
	StreakLimit int
}

// Key returns the catalog key.
func (s *HeatRamp) Key() string { return KeyHeatRamp }

// NextRiskPercent returns base + min(wins, limit) * ramp.
func (s *HeatRamp) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	wins := in.State.ConsecutiveWins
	if wins > s.StreakLimit {
		wins = s.StreakLimit
	}
	return s.BaseRisk + float64(wins)*s.RampFactor
}
