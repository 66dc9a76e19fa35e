package floatutils

import (
	"math"
	"testing"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{0.5, -1.0, 1.0, 0.5},
		{1.5, -1.0, 1.0, 1.0},
		{-1.5, -1.0, 1.0, -1.0},
		{1.0, -1.0, 1.0, 1.0},
		{-1.0, -1.0, 1.0, -1.0},
		{0.07, -0.07, 0.07, 0.07},
		{-3.2, -2.0, 2.0, -2.0},
	}

	for _, test := range tests {
		clipped := Clip(test.value, test.min, test.max)
		if clipped != test.expected {
			t.Errorf("expected Clip(%v, %v, %v) = %v, got %v", test.value,
				test.min, test.max, test.expected, clipped)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		value, min, max, expected float64
	}{
		{-1.2, -1.2, 0.6, -1.0},
		{0.6, -1.2, 0.6, 1.0},
		{-0.3, -1.2, 0.6, 0.0},
		{0.0, -0.07, 0.07, 0.0},
		{0.07, -0.07, 0.07, 1.0},
		{1.5, -1.0, 1.0, 1.5}, // out-of-range inputs extrapolate
	}

	for _, test := range tests {
		normalized := Normalize(test.value, test.min, test.max)
		if math.Abs(normalized-test.expected) > 1e-10 {
			t.Errorf("expected Normalize(%v, %v, %v) = %v, got %v",
				test.value, test.min, test.max, test.expected, normalized)
		}
	}
}

func TestMaxSlice(t *testing.T) {
	values := []float64{-1.0, 3.0, 2.0, 3.0, 0.0}

	max, indices := MaxSlice(values)
	if max != 3.0 {
		t.Errorf("expected max 3.0, got %v", max)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 3 {
		t.Errorf("expected indices [1 3], got %v", indices)
	}
}
