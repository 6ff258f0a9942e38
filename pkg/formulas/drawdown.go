package formulas

// Drawdown returns the decline of the current value from the peak as a
// positive fraction (0.25 = 25% below peak). A value at or above its peak
// has a drawdown of exactly zero.
func Drawdown(current, peak float64) float64 {
	if peak <= 0 || current >= peak {
		return 0
	}
	return (peak - current) / peak
}

// MaxDrawdown calculates the maximum peak-to-trough decline over an equity
// curve, as a positive fraction.
func MaxDrawdown(equity []float64) float64 {
	maxDD := 0.0
	if len(equity) == 0 {
		return maxDD
	}
	peak := equity[0]
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := Drawdown(v, peak); dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// EquityCurve compounds a daily return series into an equity curve starting
// at 1.0. The returned slice has one entry per return.
func EquityCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	equity := 1.0
	for i, r := range returns {
		equity *= 1 + r
		curve[i] = equity
	}
	return curve
}

// CurrentDrawdown compounds a return series and reports the present decline
// from the historical peak as a positive fraction. The 1.0 starting equity
// counts as the initial peak, so a first-day loss already registers.
func CurrentDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	curve := EquityCurve(returns)
	peak := 1.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
	}
	return Drawdown(curve[len(curve)-1], peak)
}
