package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		peak     float64
		expected float64
	}{
		{"at peak", 1.0, 1.0, 0},
		{"above peak", 1.1, 1.0, 0},
		{"16 percent below", 0.84, 1.0, 0.16},
		{"half of peak", 0.5, 1.0, 0.5},
		{"degenerate peak", 0.5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Drawdown(tt.current, tt.peak), 1e-12)
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Peak at 1.2, trough at 0.9 -> 25% max drawdown despite later recovery.
	equity := []float64{1.0, 1.2, 1.0, 0.9, 1.3}
	assert.InDelta(t, 0.25, MaxDrawdown(equity), 1e-12)

	assert.Equal(t, 0.0, MaxDrawdown(nil))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1.0, 1.1, 1.2}), "monotonic rise has no drawdown")
}

func TestEquityCurve(t *testing.T) {
	curve := EquityCurve([]float64{0.1, -0.5})
	assert.InDelta(t, 1.1, curve[0], 1e-12)
	assert.InDelta(t, 0.55, curve[1], 1e-12)
	assert.Empty(t, EquityCurve(nil))
}

func TestCurrentDrawdown(t *testing.T) {
	// Up 10%, then down 20%: current equity 0.88 against peak 1.1.
	assert.InDelta(t, 0.2, CurrentDrawdown([]float64{0.1, -0.2}), 1e-12)
	assert.InDelta(t, 0.1, CurrentDrawdown([]float64{-0.1}), 1e-12, "first-day loss counts against the 1.0 start")
	assert.Equal(t, 0.0, CurrentDrawdown(nil))
	assert.Equal(t, 0.0, CurrentDrawdown([]float64{0.05, 0.05}), "monotonic rise has no drawdown")
}
