package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/distribution"
	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/idhash"
	"rmultiple-lab/internal/strategy"
)

// Spec defaults
const (
	DefaultNumSimulations = 1
	DefaultNumTrades      = 1000
)

// DefaultInitialCapital is the starting capital of a spec without one.
var DefaultInitialCapital = decimal.NewFromInt(10000)

// plan is a validated spec ready to run.
type plan struct {
	spec      domain.SimulationSpec
	index     int
	uniqueKey string
	dist      *distribution.Distribution
	sizer     strategy.Sizer
}

// buildPlans applies defaults and validates every spec before anything runs.
func buildPlans(specs []domain.SimulationSpec) ([]plan, int, error) {
	if len(specs) == 0 {
		return nil, 0, fmt.Errorf("%w: no simulations configured", domain.ErrInvalidParameter)
	}

	plans := make([]plan, 0, len(specs))
	seen := make(map[string]int, len(specs))
	total := 0

	for i, spec := range specs {
		if spec.NumSimulations == 0 {
			spec.NumSimulations = DefaultNumSimulations
		}
		if spec.NumTrades == 0 {
			spec.NumTrades = DefaultNumTrades
		}
		if spec.InitialCapital.IsZero() {
			spec.InitialCapital = DefaultInitialCapital
		}
		if spec.NumSimulations < 0 {
			return nil, 0, fmt.Errorf("%w: spec %d: num_simulations %d", domain.ErrInvalidParameter, i, spec.NumSimulations)
		}
		if spec.NumTrades < 0 {
			return nil, 0, fmt.Errorf("%w: spec %d: num_trades %d", domain.ErrInvalidParameter, i, spec.NumTrades)
		}

		sizer, err := strategy.NewStrategySizer(spec.StrategyKey, spec.Params)
		if err != nil {
			return nil, 0, fmt.Errorf("spec %d: %w", i, err)
		}
		// Params resolved with defaults, so equal configurations share a key.
		resolved := sizer.Sizing().Params
		spec.Params = resolved

		dist, err := specDistribution(spec)
		if err != nil {
			return nil, 0, fmt.Errorf("spec %d: %w", i, err)
		}

		key := idhash.UniqueStrategyKey(spec.StrategyKey, resolved)
		if prev, dup := seen[key]; dup {
			return nil, 0, fmt.Errorf("%w: spec %d repeats the configuration of spec %d", domain.ErrInvalidParameter, i, prev)
		}
		seen[key] = i

		plans = append(plans, plan{spec: spec, index: i, uniqueKey: key, dist: dist, sizer: sizer})
		total += spec.NumSimulations
	}
	return plans, total, nil
}

// specDistribution resolves explicit outcomes first, then the preset.
// A spec with neither uses the balanced preset.
func specDistribution(spec domain.SimulationSpec) (*distribution.Distribution, error) {
	if len(spec.Outcomes) > 0 {
		return distribution.Normalize(spec.Outcomes)
	}
	key := spec.Preset
	if key == "" {
		key = distribution.PresetBalanced
	}
	p, err := distribution.PresetByKey(key)
	if err != nil {
		return nil, err
	}
	return p.Distribution(), nil
}
