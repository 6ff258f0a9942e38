package governor

import (
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/pkg/formulas"
)

// Verdict is the outcome of a drawdown evaluation: the risk state the
// portfolio belongs in and the exposure multiplier that state carries.
type Verdict struct {
	State      domain.RiskState
	Multiplier float64
}

// DrawdownPolicy maps an equity/peak pair to a governance verdict. It is
// injectable so backtests can swap the scaling rule without touching the
// engine loop.
type DrawdownPolicy interface {
	Evaluate(equity, peak float64) Verdict
}

// ExposureMultiplier is the canonical state-to-exposure table:
// NORMAL keeps full policy exposure, CAUTIOUS scales it to 0.8, DEFENSIVE
// applies the policy's defensive action and HALTED zeroes it out.
//
// This fixed-threshold table is the single scaling rule of the engine. An
// alternate rule deriving the thresholds from stop-loss multiples was
// considered and rejected; see DESIGN.md.
func ExposureMultiplier(state domain.RiskState, action domain.DefensiveAction) float64 {
	switch state {
	case domain.RiskCautious:
		return 0.8
	case domain.RiskDefensive:
		return action.Multiplier()
	case domain.RiskHalted:
		return 0.0
	default:
		return 1.0
	}
}

// FixedThresholdPolicy implements DrawdownPolicy using the locked absolute
// drawdown thresholds carried on the portfolio policy.
type FixedThresholdPolicy struct {
	Thresholds domain.RiskThresholds
	Action     domain.DefensiveAction
}

// NewFixedThresholdPolicy builds the default drawdown policy for a run.
func NewFixedThresholdPolicy(p domain.PortfolioPolicy) *FixedThresholdPolicy {
	return &FixedThresholdPolicy{Thresholds: p.Thresholds, Action: p.DefensiveAction}
}

// Evaluate classifies the current drawdown. The halt threshold is checked
// first: beyond it the run is over regardless of everything else.
func (p *FixedThresholdPolicy) Evaluate(equity, peak float64) Verdict {
	dd := formulas.Drawdown(equity, peak)

	var state domain.RiskState
	switch {
	case dd*100 >= p.Thresholds.HaltDrawdownPct:
		state = domain.RiskHalted
	case -dd < p.Thresholds.DDDefensive:
		state = domain.RiskDefensive
	case -dd < p.Thresholds.DDCautious:
		state = domain.RiskCautious
	default:
		state = domain.RiskNormal
	}

	return Verdict{State: state, Multiplier: ExposureMultiplier(state, p.Action)}
}
