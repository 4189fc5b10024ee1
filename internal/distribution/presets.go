package distribution

import (
	"fmt"
	"sort"
	"strings"

	"rmultiple-lab/internal/domain"
)

// Preset keys
const (
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"
	PresetConservative = "conservative"
)

// Preset is a named outcome configuration over 22 equally likely draws.
type Preset struct {
	Key    string
	Name   string
	Counts map[int]int
}

var presets = []Preset{
	{
		Key:    PresetBalanced,
		Name:   "Balanced (positive expectancy)",
		Counts: map[int]int{-1: 12, -5: 2, 2: 3, 3: 2, 4: 1, 5: 1, 9: 1},
	},
	{
		Key:    PresetAggressive,
		Name:   "Aggressive (negative expectancy)",
		Counts: map[int]int{-2: 12, -5: 2, 2: 3, 3: 2, 4: 1, 5: 1, 9: 1},
	},
	{
		Key:    PresetConservative,
		Name:   "Conservative (strong positive expectancy)",
		Counts: map[int]int{-1: 12, -2: 2, 2: 3, 3: 2, 4: 1, 5: 1, 9: 1},
	},
}

// Presets returns the preset catalog in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByKey returns the preset with the given key.
// Returns ErrInvalidDistribution for an unknown key.
func PresetByKey(key string) (Preset, error) {
	for _, p := range presets {
		if p.Key == key {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: unknown preset %q", domain.ErrInvalidDistribution, key)
}

// Distribution returns the normalized distribution of the preset.
func (p Preset) Distribution() *Distribution {
	d, err := FromCounts(p.Counts)
	if err != nil {
		panic(fmt.Sprintf("preset %s: %v", p.Key, err))
	}
	return d
}

// Expectation returns the expectation of the preset in R.
func (p Preset) Expectation() float64 {
	return p.Distribution().Expectation()
}

// Description lists the outcome counts, losses first, e.g. "12x(-1R), 2x(-5R), 3x(+2R)".
func (p Preset) Description() string {
	rs := make([]int, 0, len(p.Counts))
	for r := range p.Counts {
		rs = append(rs, r)
	}
	// Losses by decreasing frequency, then gains ascending.
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if (a < 0) != (b < 0) {
			return a < 0
		}
		if a < 0 && p.Counts[a] != p.Counts[b] {
			return p.Counts[a] > p.Counts[b]
		}
		return a < b
	})

	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = fmt.Sprintf("%dx(%+dR)", p.Counts[r], r)
	}
	return strings.Join(parts, ", ")
}
