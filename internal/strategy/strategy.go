// Package strategy provides position sizing: a fixed risk percent or one of
// the adaptive money-management strategies of the catalog.
package strategy

import (
	"rmultiple-lab/internal/domain"
)

// Risk percent bounds applied to every strategy output.
const (
	MinRiskPercent = 0.1
	MaxRiskPercent = 20.0
)

// Strategy computes the risk percent of the next trade.
// Implementations are stateless: parameters are bound at construction and
// all account state arrives through Input.
type Strategy interface {
	// Key returns the catalog key.
	Key() string

	// NextRiskPercent returns the unclamped risk percent for the next trade.
	NextRiskPercent(in *Input) float64
}

// Input holds the account state a strategy may read.
type Input struct {
	InitialCapital float64
	Capital        float64
	History        []domain.Trade
	State          domain.RunningState
}

// ParamSpec declares one strategy parameter and its valid domain.
type ParamSpec struct {
	Name    string  `json:"name"`
	Default float64 `json:"default"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Integer bool    `json:"integer,omitempty"`
}

// Descriptor describes a catalog entry.
type Descriptor struct {
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params"`
}

// Defaults returns the default value of every declared parameter.
func (d Descriptor) Defaults() map[string]float64 {
	out := make(map[string]float64, len(d.Params))
	for _, p := range d.Params {
		out[p.Name] = p.Default
	}
	return out
}

// Params is a resolved parameter set: every declared name is present.
type Params map[string]float64
