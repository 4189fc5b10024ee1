package strategy

import "math"

// RiskCorridor combines a drawdown signal with a loss streak signal.
type RiskCorridor struct {
	BaseRisk        float64
	DDThreshold     float64
	StreakThreshold int
	DrasticFactor   float64
	ModerateFactor  float64
}

// Key returns the catalog key.
func (s *RiskCorridor) Key() string { return KeyRiskCorridor }

// NextRiskPercent applies the drastic factor when both signals fire and the
// moderate factor when only one does.
func (s *RiskCorridor) NextRiskPercent(in *Input) float64 {
	if len(in.History) == 0 {
		return s.BaseRisk
	}
	ddSignal := in.State.DrawdownPct < -s.DDThreshold
	streakSignal := in.State.NegativeRun >= s.StreakThreshold

	switch {
	case ddSignal && streakSignal:
		return s.BaseRisk * s.DrasticFactor
	case ddSignal || streakSignal:
		return s.BaseRisk * s.ModerateFactor
	}
	return s.BaseRisk
}

// ThreeSignalModel weights drawdown, loss streak and volatility signals
// into a linear risk reduction.
type ThreeSignalModel struct {
	BaseRisk float64
	A        float64 // drawdown weight
	B        float64 // loss streak weight
	C        float64 // volatility weight
}

// Signal normalization of the three signal model.
const (
	signalTrades      = 10
	signalMaxDrawdown = 20.0 // %
	signalMaxLosses   = 5.0
	signalMaxVol      = 0.1
)

// Key returns the catalog key.
func (s *ThreeSignalModel) Key() string { return KeyThreeSignalModel }

// NextRiskPercent returns base*(1 - 0.75*reduction), at least a quarter of base.
func (s *ThreeSignalModel) NextRiskPercent(in *Input) float64 {
	if len(in.History) < signalTrades {
		return s.BaseRisk
	}
	ddSignal := math.Min(1, math.Abs(in.State.DrawdownPct)/signalMaxDrawdown)
	streakSignal := math.Min(1, float64(in.State.NegativeRun)/signalMaxLosses)
	volSignal := math.Min(1, volatility(windowReturns(in.History, signalTrades))/signalMaxVol)

	reduction := s.A*ddSignal + s.B*streakSignal + s.C*volSignal
	return math.Max(0.25*s.BaseRisk, s.BaseRisk*(1-0.75*reduction))
}
