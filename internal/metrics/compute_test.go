package metrics

import (
	"math"
	"testing"
)

func TestComputeMean(t *testing.T) {
	if got := computeMean(nil); got != 0 {
		t.Errorf("mean of empty = %v, want 0", got)
	}
	if got := computeMean([]float64{1, 2, 3, 6}); got != 3 {
		t.Errorf("mean = %v, want 3", got)
	}
}

func TestComputeStddev_Population(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := computeMean(values)

	// Classic population example: sigma = 2 (sample formula would give 2.138)
	if got := computeStddev(values, mean); math.Abs(got-2) > 1e-12 {
		t.Errorf("stddev = %v, want 2", got)
	}
	if got := computeStddev([]float64{5}, 5); got != 0 {
		t.Errorf("stddev of single value = %v, want 0", got)
	}
}

func TestComputePercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty", nil, 0.5, 0},
		{"single", []float64{7}, 0.9, 7},
		{"median odd", []float64{1, 2, 3}, 0.5, 2},
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10 interpolated", []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, 0.1, 10},
		{"max", []float64{1, 5, 9}, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computePercentile(tt.sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeWinRate(t *testing.T) {
	if got := computeWinRate(0, 0); got != 0 {
		t.Errorf("win rate of no trades = %v", got)
	}
	if got := computeWinRate(1, 4); got != 25 {
		t.Errorf("win rate = %v, want 25", got)
	}
}
