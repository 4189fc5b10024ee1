// Package distribution models outcome distributions over R-multiples.
package distribution

import (
	"fmt"
	"math"
	"sort"

	"rmultiple-lab/internal/domain"
)

// Tolerance is the allowed deviation of the normalized weight sum from 1.
const Tolerance = 1e-9

// Rand is a source of uniform draws in [0, 1).
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Outcome is one R-multiple with its normalized probability.
type Outcome struct {
	R           int     `json:"r"`
	Probability float64 `json:"probability"`
}

// Distribution is an immutable, normalized outcome distribution.
// Outcomes are kept in ascending R order so cumulative boundaries are
// deterministic for a given random stream.
type Distribution struct {
	outcomes   []Outcome
	cumulative []float64
}

// Normalize builds a distribution from raw weights.
// Returns ErrInvalidDistribution if any weight is negative or not finite,
// or if the total weight is zero.
func Normalize(weights map[int]float64) (*Distribution, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no outcomes", domain.ErrInvalidDistribution)
	}

	rs, err := sortedKeys(weights)
	if err != nil {
		return nil, err
	}
	// Sum in R order so the result does not depend on map iteration.
	total := 0.0
	for _, r := range rs {
		total += weights[r]
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: total weight is zero", domain.ErrInvalidDistribution)
	}
	scale := 1.0
	if math.IsInf(total, 1) {
		// Finite weights whose sum overflows are rescaled by the largest one.
		for _, r := range rs {
			scale = math.Max(scale, weights[r])
		}
		total = 0
		for _, r := range rs {
			total += weights[r] / scale
		}
	}
	d := build(rs, func(r int) float64 { return weights[r] / scale / total })
	if len(d.outcomes) == 0 {
		return nil, fmt.Errorf("%w: no outcome with a positive weight", domain.ErrInvalidDistribution)
	}
	return d, nil
}

// FromNormalized rebuilds a distribution from weights previously returned
// by Weights, without renormalizing them. The rebuilt distribution samples
// exactly like the original one.
func FromNormalized(weights map[int]float64) (*Distribution, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no outcomes", domain.ErrInvalidDistribution)
	}
	rs, err := sortedKeys(weights)
	if err != nil {
		return nil, err
	}
	d := build(rs, func(r int) float64 { return weights[r] })
	if len(d.cumulative) == 0 || math.Abs(d.cumulative[len(d.cumulative)-1]-1) > Tolerance {
		return nil, fmt.Errorf("%w: weights do not sum to 1", domain.ErrInvalidDistribution)
	}
	return d, nil
}

func sortedKeys(weights map[int]float64) ([]int, error) {
	rs := make([]int, 0, len(weights))
	for r, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight %v for %dR", domain.ErrInvalidDistribution, w, r)
		}
		rs = append(rs, r)
	}
	sort.Ints(rs)
	return rs, nil
}

func build(rs []int, prob func(r int) float64) *Distribution {
	d := &Distribution{
		outcomes:   make([]Outcome, 0, len(rs)),
		cumulative: make([]float64, 0, len(rs)),
	}
	acc := 0.0
	for _, r := range rs {
		p := prob(r)
		if p == 0 {
			continue
		}
		acc += p
		d.outcomes = append(d.outcomes, Outcome{R: r, Probability: p})
		d.cumulative = append(d.cumulative, acc)
	}
	return d
}

// FromCounts builds a distribution from integer occurrence counts,
// e.g. {-1: 12, 2: 3} means twelve -1R outcomes and three +2R outcomes.
func FromCounts(counts map[int]int) (*Distribution, error) {
	weights := make(map[int]float64, len(counts))
	for r, n := range counts {
		weights[r] = float64(n)
	}
	return Normalize(weights)
}

// Sample draws one R-multiple using a single uniform draw against the
// cumulative distribution.
func (d *Distribution) Sample(rng Rand) int {
	u := rng.Float64()
	for i, c := range d.cumulative {
		if u < c {
			return d.outcomes[i].R
		}
	}
	// Floating residue can leave the last boundary just below 1.
	return d.outcomes[len(d.outcomes)-1].R
}

// Expectation returns sum(R * p). Used for display only.
func (d *Distribution) Expectation() float64 {
	e := 0.0
	for _, o := range d.outcomes {
		e += float64(o.R) * o.Probability
	}
	return e
}

// Outcomes returns the outcomes in ascending R order.
func (d *Distribution) Outcomes() []Outcome {
	out := make([]Outcome, len(d.outcomes))
	copy(out, d.outcomes)
	return out
}

// Weights returns the normalized weights keyed by R.
func (d *Distribution) Weights() map[int]float64 {
	w := make(map[int]float64, len(d.outcomes))
	for _, o := range d.outcomes {
		w[o.R] = o.Probability
	}
	return w
}
