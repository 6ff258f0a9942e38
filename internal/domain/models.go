// Package domain contains the shared value types of the allocation engine.
// The domain layer is pure: no infrastructure dependencies, no mutable
// package-level state.
package domain

import "fmt"

// RiskState is the categorical governance mode that bounds maximum allowed
// exposure for a trading day. Severity is strictly increasing in declaration
// order. HALTED is terminal for a run: only instantiating a fresh
// PortfolioState (a new run) leaves it.
type RiskState int

const (
	RiskNormal RiskState = iota
	RiskCautious
	RiskDefensive
	RiskHalted
)

// String returns the canonical upper-case name used in results and reports.
func (s RiskState) String() string {
	switch s {
	case RiskNormal:
		return "NORMAL"
	case RiskCautious:
		return "CAUTIOUS"
	case RiskDefensive:
		return "DEFENSIVE"
	case RiskHalted:
		return "HALTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// Severity returns the ordering rank of the state (higher is worse).
func (s RiskState) Severity() int { return int(s) }

// MarshalJSON encodes the state by name so downstream consumers never see
// bare integers.
func (s RiskState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// MaxState returns the severer of two risk states.
func MaxState(a, b RiskState) RiskState {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// PenaltyStrength controls how aggressively correlated strategies are
// de-weighted by the CORRELATION_PENALIZED allocation method.
type PenaltyStrength string

const (
	PenaltyLow    PenaltyStrength = "low"
	PenaltyMedium PenaltyStrength = "medium"
	PenaltyHigh   PenaltyStrength = "high"
)

// Multiplier maps the strength to the penalty factor applied to a strategy's
// average pairwise correlation.
func (p PenaltyStrength) Multiplier() float64 {
	switch p {
	case PenaltyLow:
		return 0.5
	case PenaltyHigh:
		return 2.0
	default:
		return 1.0
	}
}

// AllocationSensitivity selects how quickly target weights react to recent
// data by fixing the trailing lookback window length.
type AllocationSensitivity string

const (
	SensitivityLow    AllocationSensitivity = "LOW"
	SensitivityMedium AllocationSensitivity = "MEDIUM"
	SensitivityHigh   AllocationSensitivity = "HIGH"
)

// LookbackDays returns the trailing window length in trading days.
// Higher sensitivity means a shorter window.
func (s AllocationSensitivity) LookbackDays() int {
	switch s {
	case SensitivityLow:
		return 60
	case SensitivityHigh:
		return 15
	default:
		return 30
	}
}

// DefensiveAction selects the exposure multiplier applied while the portfolio
// is in the DEFENSIVE state.
type DefensiveAction string

const (
	ActionScale60 DefensiveAction = "scale_60"
	ActionScale40 DefensiveAction = "scale_40"
	ActionFreeze  DefensiveAction = "freeze"
	ActionExitAll DefensiveAction = "exit_all"
)

// Multiplier returns the DEFENSIVE exposure factor for the action.
func (a DefensiveAction) Multiplier() float64 {
	switch a {
	case ActionScale40:
		return 0.4
	case ActionFreeze:
		return 0.1
	case ActionExitAll:
		return 0.0
	default:
		return 0.6
	}
}

// RiskThresholds holds the locked business-rule thresholds used by the risk
// classifier and the drawdown policy. They live on the policy, not as code
// literals, so that every threshold cited in an explanation is traceable to a
// configuration value. Version identifies the threshold set in audit output.
type RiskThresholds struct {
	Version string `yaml:"version" json:"version"`

	// Drawdowns are expressed as negative fractions (-0.15 = 15% below peak).
	DDCautious  float64 `yaml:"dd_cautious" json:"dd_cautious"`
	DDDefensive float64 `yaml:"dd_defensive" json:"dd_defensive"`

	// Volatilities are annualized fractions.
	VolCautious  float64 `yaml:"vol_cautious" json:"vol_cautious"`
	VolDefensive float64 `yaml:"vol_defensive" json:"vol_defensive"`

	// HaltDrawdownPct is the positive drawdown percentage (e.g. 25 = 25%)
	// beyond which the run is halted for good.
	HaltDrawdownPct float64 `yaml:"halt_drawdown_pct" json:"halt_drawdown_pct"`
}

// DefaultRiskThresholds returns the locked v1 threshold set.
func DefaultRiskThresholds() RiskThresholds {
	return RiskThresholds{
		Version:         "v1",
		DDCautious:      -0.08,
		DDDefensive:     -0.15,
		VolCautious:     0.18,
		VolDefensive:    0.25,
		HaltDrawdownPct: 25,
	}
}

// PortfolioPolicy is the immutable per-run governance policy.
// Percentage fields are expressed on a 0-100 scale.
type PortfolioPolicy struct {
	CashReservePct             float64               `yaml:"cash_reserve_pct" json:"cash_reserve_pct"`
	MaxEquityExposurePct       float64               `yaml:"max_equity_exposure_pct" json:"max_equity_exposure_pct"`
	MaxStrategyAllocationPct   float64               `yaml:"max_strategy_allocation_pct" json:"max_strategy_allocation_pct"`
	DailyStopLossPct           float64               `yaml:"daily_stop_loss_pct" json:"daily_stop_loss_pct"`
	CorrelationPenaltyStrength PenaltyStrength       `yaml:"correlation_penalty_strength" json:"correlation_penalty_strength"`
	AllocationSensitivity      AllocationSensitivity `yaml:"allocation_sensitivity" json:"allocation_sensitivity"`
	DefensiveAction            DefensiveAction       `yaml:"defensive_action" json:"defensive_action"`
	Thresholds                 RiskThresholds        `yaml:"thresholds" json:"thresholds"`
}

// DefaultPolicy returns the one documented built-in fallback policy. It is
// the only silent default substitution the engine performs.
func DefaultPolicy() PortfolioPolicy {
	return PortfolioPolicy{
		CashReservePct:             10,
		MaxEquityExposurePct:       80,
		MaxStrategyAllocationPct:   40,
		DailyStopLossPct:           2,
		CorrelationPenaltyStrength: PenaltyMedium,
		AllocationSensitivity:      SensitivityMedium,
		DefensiveAction:            ActionScale60,
		Thresholds:                 DefaultRiskThresholds(),
	}
}

// Validate fails fast on malformed policies before a simulation starts.
// All validation failures are ConfigurationErrors.
func (p PortfolioPolicy) Validate() error {
	if p.CashReservePct < 0 || p.CashReservePct >= 100 {
		return &ConfigurationError{Field: "cash_reserve_pct", Reason: fmt.Sprintf("must be in [0, 100), got %v", p.CashReservePct)}
	}
	if p.MaxEquityExposurePct <= 0 || p.MaxEquityExposurePct > 100 {
		return &ConfigurationError{Field: "max_equity_exposure_pct", Reason: fmt.Sprintf("must be in (0, 100], got %v", p.MaxEquityExposurePct)}
	}
	if p.MaxStrategyAllocationPct <= 0 || p.MaxStrategyAllocationPct > 100 {
		return &ConfigurationError{Field: "max_strategy_allocation_pct", Reason: fmt.Sprintf("must be in (0, 100], got %v", p.MaxStrategyAllocationPct)}
	}
	if p.DailyStopLossPct <= 0 || p.DailyStopLossPct > 100 {
		return &ConfigurationError{Field: "daily_stop_loss_pct", Reason: fmt.Sprintf("must be in (0, 100], got %v", p.DailyStopLossPct)}
	}
	switch p.CorrelationPenaltyStrength {
	case PenaltyLow, PenaltyMedium, PenaltyHigh:
	default:
		return &ConfigurationError{Field: "correlation_penalty_strength", Reason: fmt.Sprintf("unknown strength %q", p.CorrelationPenaltyStrength)}
	}
	switch p.AllocationSensitivity {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
	default:
		return &ConfigurationError{Field: "allocation_sensitivity", Reason: fmt.Sprintf("unknown sensitivity %q", p.AllocationSensitivity)}
	}
	switch p.DefensiveAction {
	case ActionScale60, ActionScale40, ActionFreeze, ActionExitAll:
	default:
		return &ConfigurationError{Field: "defensive_action", Reason: fmt.Sprintf("unknown action %q", p.DefensiveAction)}
	}
	t := p.Thresholds
	if t.DDCautious >= 0 {
		return &ConfigurationError{Field: "thresholds.dd_cautious", Reason: fmt.Sprintf("must be negative, got %v", t.DDCautious)}
	}
	if t.DDDefensive >= t.DDCautious {
		return &ConfigurationError{Field: "thresholds.dd_defensive", Reason: fmt.Sprintf("must be below dd_cautious (%v), got %v", t.DDCautious, t.DDDefensive)}
	}
	if t.VolCautious <= 0 {
		return &ConfigurationError{Field: "thresholds.vol_cautious", Reason: fmt.Sprintf("must be positive, got %v", t.VolCautious)}
	}
	if t.VolDefensive <= t.VolCautious {
		return &ConfigurationError{Field: "thresholds.vol_defensive", Reason: fmt.Sprintf("must be above vol_cautious (%v), got %v", t.VolCautious, t.VolDefensive)}
	}
	if t.HaltDrawdownPct <= 0 || t.HaltDrawdownPct > 100 {
		return &ConfigurationError{Field: "thresholds.halt_drawdown_pct", Reason: fmt.Sprintf("must be in (0, 100], got %v", t.HaltDrawdownPct)}
	}
	return nil
}

// ReturnPoint is one daily observation of a strategy return series.
// Dates use the ISO 2006-01-02 format throughout the engine.
type ReturnPoint struct {
	Date   string  `yaml:"date" json:"date"`
	Return float64 `yaml:"return" json:"return"`
}

// StrategyReturnSeries is the ordered daily return stream of one strategy.
// It is produced by the external backtest/execution layer and read-only here.
type StrategyReturnSeries struct {
	StrategyID string        `yaml:"strategy_id" json:"strategy_id"`
	Points     []ReturnPoint `yaml:"points" json:"points"`
}

// ReturnsByDate indexes the series for O(1) per-day lookups.
func (s StrategyReturnSeries) ReturnsByDate() map[string]float64 {
	out := make(map[string]float64, len(s.Points))
	for _, p := range s.Points {
		out[p.Date] = p.Return
	}
	return out
}

// CompositionEntry names one strategy participating in a run together with
// its target allocation from the external portfolio-definition store.
type CompositionEntry struct {
	StrategyID              string  `yaml:"strategy_id" json:"strategy_id"`
	TargetAllocationPercent float64 `yaml:"target_allocation_percent" json:"target_allocation_percent"`
}

// PortfolioState is the mutable per-run simulation state. A fresh instance is
// created at run start, mutated only by the governor, and discarded at run
// end. It must never be shared across runs.
type PortfolioState struct {
	CumulativeEquity float64
	PeakEquity       float64
	DrawdownPct      float64 // positive fraction of peak, 0 at a fresh peak
	CurrentRiskState RiskState
	DailyPnL         float64
}

// NewPortfolioState returns the state of a run that has not traded yet.
func NewPortfolioState() *PortfolioState {
	return &PortfolioState{
		CumulativeEquity: 1.0,
		PeakEquity:       1.0,
		CurrentRiskState: RiskNormal,
	}
}

// DailyAllocationResult is one append-only row of the governed equity curve.
// Weights are the final post-exposure fractions of total capital per strategy.
type DailyAllocationResult struct {
	Date             string             `json:"date"`
	Weights          map[string]float64 `json:"weights"`
	PortfolioReturn  float64            `json:"portfolio_return"`
	CumulativeEquity float64            `json:"cumulative_equity"`
	DrawdownPct      float64            `json:"drawdown_pct"`
	RiskState        RiskState          `json:"risk_state"`
}

// WeightChangeExplanation narrates one material weight change between two
// consecutive allocation days. Reason always cites the numeric threshold and
// the observed value that triggered it.
type WeightChangeExplanation struct {
	StrategyID        string    `json:"strategy_id"`
	OldWeight         float64   `json:"old_weight"`
	NewWeight         float64   `json:"new_weight"`
	Delta             float64   `json:"delta"`
	Reason            string    `json:"reason"`
	RecoveryCondition string    `json:"recovery_condition"`
	Severity          RiskState `json:"severity"`
}

// RunReport is the complete batch output of one simulation run.
type RunReport struct {
	RunID        string                    `json:"run_id"`
	Results      []DailyAllocationResult   `json:"results"`
	Explanations []WeightChangeExplanation `json:"explanations"`
	Summary      string                    `json:"summary"`
}
