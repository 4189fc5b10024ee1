package strategy

import (
	"fmt"
	"math"

	"rmultiple-lab/internal/domain"
)

// Sizer resolves the risk percent of the next trade.
type Sizer interface {
	// RiskPercent returns a percent in (0, 100].
	RiskPercent(in *Input) float64

	// Sizing describes the sizer for session records.
	Sizing() domain.Sizing
}

// FixedSizer risks the same percent of capital on every trade.
type FixedSizer struct {
	percent float64
}

// NewFixedSizer creates a fixed percent sizer.
// Returns ErrInvalidParameter unless 0 < percent <= 100.
func NewFixedSizer(percent float64) (*FixedSizer, error) {
	if math.IsNaN(percent) || math.IsInf(percent, 0) || percent <= 0 || percent > 100 {
		return nil, fmt.Errorf("%w: risk percent %v outside (0, 100]", domain.ErrInvalidParameter, percent)
	}
	return &FixedSizer{percent: percent}, nil
}

// RiskPercent returns the fixed percent.
func (s *FixedSizer) RiskPercent(_ *Input) float64 {
	return s.percent
}

// Sizing describes the sizer.
func (s *FixedSizer) Sizing() domain.Sizing {
	return domain.Sizing{Mode: domain.SizingFixed, RiskPercent: s.percent}
}

// StrategySizer delegates to a catalog strategy and clamps its output.
type StrategySizer struct {
	strategy Strategy
	params   Params
}

// NewStrategySizer builds the strategy for key with params merged over defaults.
func NewStrategySizer(key string, params map[string]float64) (*StrategySizer, error) {
	resolved, err := ResolveParams(key, params)
	if err != nil {
		return nil, err
	}
	s, err := FromConfig(key, resolved)
	if err != nil {
		return nil, err
	}
	return &StrategySizer{strategy: s, params: resolved}, nil
}

// RiskPercent returns the clamped strategy output.
func (s *StrategySizer) RiskPercent(in *Input) float64 {
	return ClampRisk(s.strategy.NextRiskPercent(in))
}

// Sizing describes the sizer.
func (s *StrategySizer) Sizing() domain.Sizing {
	params := make(map[string]float64, len(s.params))
	for k, v := range s.params {
		params[k] = v
	}
	return domain.Sizing{Mode: domain.SizingStrategy, StrategyKey: s.strategy.Key(), Params: params}
}

// ClampRisk bounds a strategy output to [MinRiskPercent, MaxRiskPercent].
// The upper bound keeps a single loss of 1R from exceeding capital.
func ClampRisk(v float64) float64 {
	if math.IsNaN(v) {
		return MinRiskPercent
	}
	return clamp(v, MinRiskPercent, MaxRiskPercent)
}

var (
	_ Sizer = (*FixedSizer)(nil)
	_ Sizer = (*StrategySizer)(nil)
)
