package strategy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"rmultiple-lab/internal/domain"
)

// List returns the strategy catalog in display order.
func List() []Descriptor {
	out := make([]Descriptor, len(catalog))
	for i, e := range catalog {
		out[i] = e.Descriptor
		out[i].Params = append([]ParamSpec(nil), e.Params...)
	}
	return out
}

// Describe returns the descriptor of a strategy.
// Returns ErrUnknownStrategy if the key is not in the catalog.
func Describe(key string) (Descriptor, error) {
	e, err := lookup(key)
	if err != nil {
		return Descriptor{}, err
	}
	d := e.Descriptor
	d.Params = append([]ParamSpec(nil), e.Params...)
	return d, nil
}

// ResolveParams merges params over the strategy defaults and checks every
// value against its declared domain.
// Returns ErrUnknownStrategy for an unknown key and ErrInvalidParameter for
// undeclared names or out of range values.
func ResolveParams(key string, params map[string]float64) (Params, error) {
	e, err := lookup(key)
	if err != nil {
		return nil, err
	}

	declared := make(map[string]ParamSpec, len(e.Params))
	resolved := make(Params, len(e.Params))
	for _, spec := range e.Params {
		declared[spec.Name] = spec
		resolved[spec.Name] = spec.Default
	}

	// Sorted for deterministic error messages.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := params[name]
		spec, ok := declared[name]
		if !ok {
			return nil, paramError(fmt.Sprintf("%s does not accept parameter %q", key, name))
		}
		if err := spec.check(v); err != nil {
			return nil, err
		}
		resolved[name] = v
	}
	return resolved, nil
}

// FromConfig creates a Strategy from a catalog key and params.
// Missing params take their declared defaults.
func FromConfig(key string, params map[string]float64) (Strategy, error) {
	resolved, err := ResolveParams(key, params)
	if err != nil {
		return nil, err
	}
	e, _ := lookup(key)
	return e.build(resolved)
}

func lookup(key string) (*entry, error) {
	for i := range catalog {
		if catalog[i].Key == key {
			return &catalog[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, key)
}

// check validates v against the parameter domain.
func (p ParamSpec) check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return paramError(fmt.Sprintf("%s must be finite", p.Name))
	}
	if v < p.Min || v > p.Max {
		return paramError(fmt.Sprintf("%s=%v outside [%v, %v]", p.Name, v, p.Min, p.Max))
	}
	if p.Integer && v != math.Trunc(v) {
		return paramError(fmt.Sprintf("%s must be an integer", p.Name))
	}
	return nil
}

func paramError(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidParameter, strings.TrimSpace(msg))
}
