package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name    string
		x       []float64
		weights []float64
		p       float64
		want    float64
	}{
		{"empty slice", []float64{}, nil, 0.5, 0},
		{"single element", []float64{5.0}, nil, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, nil, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, nil, 1.0, 5.0},
		{"p50 unweighted", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, nil, 0.5, 5.0},
		{"p50 weighted", []float64{1, 2, 3}, []float64{1, 1, 2}, 0.5, 2.0},
		{"p75 weighted", []float64{1, 2, 3}, []float64{1, 1, 2}, 0.75, 3.0},
		{"unsorted input", []float64{3, 1, 2}, []float64{2, 1, 1}, 0.5, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.x, tt.weights, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v, %v) = %v, want %v", tt.x, tt.weights, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeLengthStats(t *testing.T) {
	lengths := []float64{10, 20, 30}
	weights := []float64{1, 0, 3}
	mean, p10, p50, p90 := ComputeLengthStats(lengths, weights)

	// (10 + 90) / 4
	if math.Abs(mean-25) > 1e-12 {
		t.Errorf("mean = %v, want 25", mean)
	}
	if p10 != 10 {
		t.Errorf("p10 = %v, want 10", p10)
	}
	if p50 != 30 || p90 != 30 {
		t.Errorf("p50 = %v, p90 = %v, want 30", p50, p90)
	}
}

func TestComputeLengthStatsEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeLengthStats(nil, nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty input should return all zeros")
	}
	mean, _, _, _ = ComputeLengthStats([]float64{4}, []float64{0})
	if mean != 0 {
		t.Error("zero total weight should return zeros")
	}
}

func TestComputeTraitStats(t *testing.T) {
	mean, std := ComputeTraitStats([]float64{-1, 1}, []float64{1, 1})
	if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
		t.Errorf("mean, std = %v, %v; want 0, 1", mean, std)
	}
}
