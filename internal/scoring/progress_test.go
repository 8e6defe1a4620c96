package scoring

import (
	"math"
	"testing"
)

func TestPercentComplete(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    int
	}{
		{name: "zero progress", current: 0, target: 100, want: 0},
		{name: "half way", current: 50, target: 100, want: 50},
		{name: "rounds half up", current: 1, target: 8, want: 13},
		{name: "rounds down", current: 1, target: 3, want: 33},
		{name: "exactly done", current: 100, target: 100, want: 100},
		{name: "overshoot capped", current: 250, target: 100, want: 100},
		{name: "negative current clamps", current: -40, target: 100, want: 0},
		{name: "zero target", current: 10, target: 0, want: 0},
		{name: "negative target", current: 10, target: -5, want: 0},
		{name: "nan current", current: math.NaN(), target: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentComplete(tt.current, tt.target)
			if got != tt.want {
				t.Errorf("PercentComplete(%v, %v) = %d, want %d", tt.current, tt.target, got, tt.want)
			}
		})
	}
}

func TestPercentCompleteBounds(t *testing.T) {
	targets := []float64{0.5, 1, 3, 7, 100, 1000, 1e9}
	for _, target := range targets {
		for current := -2 * target; current <= 3*target; current += target / 7 {
			got := PercentComplete(current, target)
			if got < 0 || got > 100 {
				t.Fatalf("PercentComplete(%v, %v) = %d out of bounds", current, target, got)
			}
			if current >= target && got != 100 {
				t.Fatalf("PercentComplete(%v, %v) = %d, want 100 once target reached", current, target, got)
			}
		}
	}
}

func TestIsLargeSwing(t *testing.T) {
	tests := []struct {
		name   string
		change float64
		target float64
		want   bool
	}{
		{name: "regression beyond half", change: -700, target: 1000, want: true},
		{name: "jump beyond half", change: 501, target: 1000, want: true},
		{name: "exactly half is not large", change: 500, target: 1000, want: false},
		{name: "small change", change: 10, target: 1000, want: false},
		{name: "no target", change: 10, target: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLargeSwing(tt.change, tt.target); got != tt.want {
				t.Errorf("IsLargeSwing(%v, %v) = %v, want %v", tt.change, tt.target, got, tt.want)
			}
		})
	}
}
