// Package risk classifies portfolio-level metrics into the governance risk
// state. Classification is a pure function of its inputs: no state, no side
// effects, safe to call concurrently from multiple runs.
package risk

import (
	"fmt"

	"github.com/aristath/helmsman/internal/domain"
)

// Metrics is the portfolio snapshot the classifier evaluates.
type Metrics struct {
	Drawdown   float64 // negative fraction below peak (-0.16 = 16% below)
	Volatility float64 // annualized fraction
}

// Assessment is the classifier verdict. RecommendedAction is descriptive
// text for the audit trail, never executed by the engine.
type Assessment struct {
	State             domain.RiskState
	Reason            string
	RecommendedAction string
}

// Classify maps portfolio metrics to a risk state using first-match-wins
// evaluation: defensive drawdown, defensive volatility, cautious drawdown,
// cautious volatility, normal. The reason always embeds the offending metric
// and the threshold it crossed.
func Classify(m Metrics, th domain.RiskThresholds) Assessment {
	switch {
	case m.Drawdown < th.DDDefensive:
		return Assessment{
			State:             domain.RiskDefensive,
			Reason:            fmt.Sprintf("drawdown %.2f%% breached defensive threshold %.2f%%", m.Drawdown*100, th.DDDefensive*100),
			RecommendedAction: fmt.Sprintf("cut equity exposure per defensive action; hold until drawdown recovers above %.2f%%", th.DDCautious*100),
		}
	case m.Volatility > th.VolDefensive:
		return Assessment{
			State:             domain.RiskDefensive,
			Reason:            fmt.Sprintf("annualized volatility %.2f%% exceeded defensive threshold %.2f%%", m.Volatility*100, th.VolDefensive*100),
			RecommendedAction: fmt.Sprintf("cut equity exposure per defensive action; hold until volatility falls below %.2f%%", th.VolCautious*100),
		}
	case m.Drawdown < th.DDCautious:
		return Assessment{
			State:             domain.RiskCautious,
			Reason:            fmt.Sprintf("drawdown %.2f%% breached cautious threshold %.2f%%", m.Drawdown*100, th.DDCautious*100),
			RecommendedAction: "scale back exposure and watch for a new equity peak",
		}
	case m.Volatility > th.VolCautious:
		return Assessment{
			State:             domain.RiskCautious,
			Reason:            fmt.Sprintf("annualized volatility %.2f%% exceeded cautious threshold %.2f%%", m.Volatility*100, th.VolCautious*100),
			RecommendedAction: "scale back exposure until volatility normalizes",
		}
	default:
		return Assessment{
			State:             domain.RiskNormal,
			Reason:            fmt.Sprintf("drawdown %.2f%% and volatility %.2f%% within normal bounds", m.Drawdown*100, m.Volatility*100),
			RecommendedAction: "maintain full policy exposure",
		}
	}
}

// VolRegime labels the volatility environment independent of drawdown.
type VolRegime string

const (
	VolRegimeLow      VolRegime = "LOW"
	VolRegimeModerate VolRegime = "MODERATE"
	VolRegimeHigh     VolRegime = "HIGH"
)

// VolatilityRegime buckets an annualized volatility into LOW (<0.12),
// MODERATE (<0.20) or HIGH.
func VolatilityRegime(vol float64) VolRegime {
	switch {
	case vol < 0.12:
		return VolRegimeLow
	case vol < 0.20:
		return VolRegimeModerate
	default:
		return VolRegimeHigh
	}
}
