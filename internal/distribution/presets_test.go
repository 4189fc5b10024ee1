package distribution

import (
	"errors"
	"math"
	"testing"

	"rmultiple-lab/internal/domain"
)

func TestPresets_Order(t *testing.T) {
	want := []string{PresetBalanced, PresetAggressive, PresetConservative}
	got := Presets()
	if len(got) != len(want) {
		t.Fatalf("expected %d presets, got %d", len(want), len(got))
	}
	for i, p := range got {
		if p.Key != want[i] {
			t.Errorf("preset %d: expected %s, got %s", i, want[i], p.Key)
		}
	}
}

func TestPresets_Expectation(t *testing.T) {
	tests := []struct {
		key  string
		want float64
	}{
		{PresetBalanced, 8.0 / 22.0},
		{PresetAggressive, -4.0 / 22.0},
		{PresetConservative, 14.0 / 22.0},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, err := PresetByKey(tt.key)
			if err != nil {
				t.Fatalf("PresetByKey failed: %v", err)
			}
			if got := p.Expectation(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPresets_TwentyTwoDraws(t *testing.T) {
	for _, p := range Presets() {
		total := 0
		for _, n := range p.Counts {
			total += n
		}
		if total != 22 {
			t.Errorf("%s: expected 22 draws, got %d", p.Key, total)
		}
	}
}

func TestPresetByKey_Unknown(t *testing.T) {
	_, err := PresetByKey("yolo")
	if !errors.Is(err, domain.ErrInvalidDistribution) {
		t.Errorf("expected ErrInvalidDistribution, got %v", err)
	}
}

func TestPreset_Description(t *testing.T) {
	p, _ := PresetByKey(PresetBalanced)
	want := "12x(-1R), 2x(-5R), 3x(+2R), 2x(+3R), 1x(+4R), 1x(+5R), 1x(+9R)"
	if got := p.Description(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPresets_ReturnsCopy(t *testing.T) {
	ps := Presets()
	ps[0].Key = "mutated"
	if Presets()[0].Key != PresetBalanced {
		t.Errorf("catalog mutated through Presets()")
	}
}
