package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil), "empty input should be 0")
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil), "empty input should be 0")
	assert.Equal(t, 0.0, StdDev([]float64{0.01}), "single observation should be 0")
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12, "sample stddev of 1,2,3")
}

func TestAnnualizedVolatility(t *testing.T) {
	daily := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(daily) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(daily), 1e-12)
	assert.Equal(t, 0.0, AnnualizedVolatility([]float64{0.01}), "needs at least 2 observations")
}

func TestCorrelation(t *testing.T) {
	x := []float64{0.01, 0.02, 0.03, 0.04}
	y := []float64{0.02, 0.04, 0.06, 0.08}
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-9, "perfectly correlated series")

	inv := []float64{0.04, 0.03, 0.02, 0.01}
	assert.InDelta(t, -1.0, Correlation(x, inv), 1e-9, "perfectly anti-correlated series")

	flat := []float64{0.01, 0.01, 0.01, 0.01}
	assert.True(t, math.IsNaN(Correlation(x, flat)), "zero variance side should be NaN")
	assert.True(t, math.IsNaN(Correlation(x, []float64{1, 2})), "length mismatch should be NaN")
}

func TestPairedCorrelation(t *testing.T) {
	nan := math.NaN()
	x := []float64{0.01, nan, 0.02, 0.03, nan}
	y := []float64{0.02, 0.05, 0.04, 0.06, nan}

	// Only indices 0, 2, 3 are mutually observed; those are perfectly correlated.
	assert.InDelta(t, 1.0, PairedCorrelation(x, y), 1e-9)

	allNaN := []float64{nan, nan, nan, nan, nan}
	assert.True(t, math.IsNaN(PairedCorrelation(x, allNaN)), "no overlap should be NaN")
}

func TestObserved(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, []float64{0.01, 0.03}, Observed([]float64{0.01, nan, 0.03}))
	assert.Empty(t, Observed([]float64{nan, nan}))
}
