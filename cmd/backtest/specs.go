package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"rmultiple-lab/internal/domain"
)

// specFile is the on-disk batch description.
type specFile struct {
	Name        string      `json:"name" yaml:"name"`
	Simulations []specEntry `json:"simulations" yaml:"simulations"`
}

type specEntry struct {
	StrategyKey     string             `json:"strategy_key" yaml:"strategy_key"`
	Params          map[string]float64 `json:"params" yaml:"params"`
	NumSimulations  int                `json:"num_simulations" yaml:"num_simulations"`
	NumTrades       int                `json:"num_trades" yaml:"num_trades"`
	InitialCapital  float64            `json:"initial_capital" yaml:"initial_capital"`
	Preset          string             `json:"preset" yaml:"preset"`
	Outcomes        map[int]float64    `json:"outcomes" yaml:"outcomes"`
	KeepEquityCurve bool               `json:"keep_equity_curve" yaml:"keep_equity_curve"`
}

func (e specEntry) spec() domain.SimulationSpec {
	s := domain.SimulationSpec{
		StrategyKey:     e.StrategyKey,
		Params:          e.Params,
		NumSimulations:  e.NumSimulations,
		NumTrades:       e.NumTrades,
		Preset:          e.Preset,
		Outcomes:        e.Outcomes,
		KeepEquityCurve: e.KeepEquityCurve,
	}
	if e.InitialCapital != 0 {
		s.InitialCapital = decimal.NewFromFloat(e.InitialCapital)
	}
	return s
}

// loadSpecFile reads a batch description. YAML is tried first, JSON second.
func loadSpecFile(path string) (string, []domain.SimulationSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read spec file: %w", err)
	}

	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		f = specFile{}
		if err := json.Unmarshal(data, &f); err != nil {
			return "", nil, fmt.Errorf("parse spec file (tried YAML and JSON): %w", err)
		}
	}
	if len(f.Simulations) == 0 {
		return "", nil, fmt.Errorf("spec file %s has no simulations", path)
	}

	specs := make([]domain.SimulationSpec, len(f.Simulations))
	for i, e := range f.Simulations {
		specs[i] = e.spec()
	}
	return f.Name, specs, nil
}
