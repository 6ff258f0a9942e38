// Package formulas provides the shared statistical building blocks of the
// allocation engine: dispersion, correlation and drawdown math over daily
// return series.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear is the annualization base for daily volatility.
const TradingDaysPerYear = 252

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// AnnualizedVolatility calculates annualized volatility from daily returns.
// Formula: std dev of daily returns x sqrt(252 trading days).
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// Correlation calculates the Pearson correlation coefficient between two
// equally sized datasets. Returns NaN when either side is degenerate
// (fewer than two observations or zero variance).
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if StdDev(x) == 0 || StdDev(y) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// PairedCorrelation calculates the Pearson correlation over the observations
// where both series hold a value (neither side is NaN). Series with gaps are
// common here: strategies report returns on different subsets of dates.
func PairedCorrelation(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return Correlation(xs, ys)
}

// Observed strips NaN gaps from a series, preserving order.
func Observed(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
