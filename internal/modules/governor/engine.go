// Package governor orchestrates the daily simulation loop: it applies the
// risk state, exposure caps and stop-loss to the allocator's weights and
// maintains the governed equity curve.
//
// A run is a strictly sequential, deterministic batch over a closed
// business-day range. Each run owns a fresh PortfolioState; runs never share
// mutable state, so independent runs may execute in parallel.
package governor

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/allocation"
	"github.com/aristath/helmsman/internal/modules/explain"
	"github.com/aristath/helmsman/internal/modules/risk"
	"github.com/aristath/helmsman/pkg/formulas"
)

// RunInput bundles everything a simulation consumes. All inputs are
// read-only to the engine.
type RunInput struct {
	Series      []domain.StrategyReturnSeries
	Policy      domain.PortfolioPolicy
	Composition []domain.CompositionEntry
	StartDate   string
	EndDate     string
	Method      allocation.Method
}

// Engine runs governed portfolio simulations.
type Engine struct {
	allocator *allocation.Allocator
	ddPolicy  DrawdownPolicy // optional override; per-run fixed policy when nil
	log       zerolog.Logger
}

// NewEngine creates a new simulation engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		allocator: allocation.New(log),
		log:       log.With().Str("component", "governor").Logger(),
	}
}

// SetDrawdownPolicy overrides the drawdown scaling rule for subsequent runs.
// When unset, every run builds a FixedThresholdPolicy from its own policy.
func (e *Engine) SetDrawdownPolicy(p DrawdownPolicy) {
	e.ddPolicy = p
}

// Run executes one full simulation and returns the complete ordered result
// log plus the narrated weight changes. It either produces full results or
// returns an error; there is no partial output.
func (e *Engine) Run(input RunInput) (*domain.RunReport, error) {
	if err := input.Policy.Validate(); err != nil {
		return nil, err
	}
	if len(input.Composition) == 0 {
		return nil, &domain.ConfigurationError{Field: "composition", Reason: "at least one strategy is required"}
	}

	days, err := BusinessDays(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, &domain.ConfigurationError{Field: "start_date", Reason: fmt.Sprintf("no business days between %s and %s", input.StartDate, input.EndDate)}
	}

	ids, err := compositionIDs(input.Composition)
	if err != nil {
		return nil, err
	}

	seriesByID := make(map[string]map[string]float64, len(input.Series))
	for _, s := range input.Series {
		seriesByID[s.StrategyID] = s.ReturnsByDate()
	}

	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()

	// Strategies without any data in the window contribute zero weight and
	// zero return; the run only aborts when no strategy has data at all.
	window := input.StartDate + ".." + input.EndDate
	valid := 0
	for _, id := range ids {
		if hasDataInWindow(seriesByID[id], days) {
			valid++
			continue
		}
		dataErr := &domain.InsufficientDataError{StrategyID: id, Window: window}
		log.Warn().Str("strategy_id", id).Msg(dataErr.Error())
	}
	if valid == 0 {
		return nil, fmt.Errorf("cannot start run: %w", &domain.InsufficientDataError{StrategyID: "every composition strategy", Window: window})
	}

	ddp := e.ddPolicy
	if ddp == nil {
		ddp = NewFixedThresholdPolicy(input.Policy)
	}

	policy := input.Policy
	lookback := policy.AllocationSensitivity.LookbackDays()
	activeCapitalPct := 100 - policy.CashReservePct
	stopLimit := -policy.DailyStopLossPct / 100

	state := domain.NewPortfolioState()
	results := make([]domain.DailyAllocationResult, 0, len(days))
	portfolioReturns := make([]float64, 0, len(days))

	log.Info().
		Int("strategies", len(ids)).
		Int("days", len(days)).
		Int("lookback_days", lookback).
		Str("method", string(input.Method)).
		Str("thresholds_version", policy.Thresholds.Version).
		Msg("Starting simulation run")

	for i, date := range days {
		entering := state.CurrentRiskState

		// Step 1: effective exposure for the day, bounded by the cash
		// reserve's active-capital ratio.
		stateMult := ExposureMultiplier(entering, policy.DefensiveAction)
		effectiveExposurePct := math.Min(stateMult*policy.MaxEquityExposurePct, activeCapitalPct)

		// Step 2: target weights from the trailing lookback window, scaled
		// down to the day's exposure.
		matrix := buildWindow(ids, seriesByID, days, i, lookback)
		base := e.allocator.Allocate(matrix, input.Method, policy.MaxStrategyAllocationPct, policy.CorrelationPenaltyStrength.Multiplier())

		// Step 3: gross return. A strategy missing data for the date
		// contributes zero, it is not excluded and renormalized.
		scale := effectiveExposurePct / 100
		final := make(map[string]float64, len(ids))
		gross := 0.0
		for _, id := range ids {
			w := base[id] * scale
			final[id] = w
			if r, ok := seriesByID[id][date]; ok {
				gross += w * r
			}
		}

		// Step 4: daily stop-loss, a simulated intraday cut.
		actual := gross
		stopHit := false
		if gross < stopLimit {
			actual = stopLimit
			stopHit = true
			log.Warn().
				Str("date", date).
				Float64("gross_return", gross).
				Float64("clamped_return", actual).
				Msg("Daily stop-loss triggered")
		}

		// Step 5: equity, peak and drawdown update. Drawdown resets to
		// zero the instant a new peak is set.
		state.DailyPnL = actual
		state.CumulativeEquity *= 1 + actual
		newPeak := state.CumulativeEquity > state.PeakEquity
		if newPeak {
			state.PeakEquity = state.CumulativeEquity
		}
		state.DrawdownPct = formulas.Drawdown(state.CumulativeEquity, state.PeakEquity)

		portfolioReturns = append(portfolioReturns, actual)

		// Step 6: next state. HALTED is terminal for the run; a new peak
		// recovers to NORMAL; otherwise the drawdown policy and the
		// volatility side of the classifier decide, and a stop-loss day
		// forces at least CAUTIOUS.
		next := domain.RiskHalted
		if entering != domain.RiskHalted {
			verdict := ddp.Evaluate(state.CumulativeEquity, state.PeakEquity)
			switch {
			case verdict.State == domain.RiskHalted:
				next = domain.RiskHalted
				log.Warn().
					Str("date", date).
					Float64("drawdown_pct", state.DrawdownPct*100).
					Float64("halt_threshold_pct", policy.Thresholds.HaltDrawdownPct).
					Msg("Drawdown breached halt threshold, run is halted")
			case newPeak:
				next = domain.RiskNormal
			default:
				vol := trailingVolatility(portfolioReturns, lookback)
				volState := risk.Classify(risk.Metrics{Drawdown: 0, Volatility: vol}, policy.Thresholds).State
				next = domain.MaxState(verdict.State, volState)
			}
			if stopHit {
				next = domain.MaxState(next, domain.RiskCautious)
			}
		}
		state.CurrentRiskState = next

		// Step 7: append the day's row.
		results = append(results, domain.DailyAllocationResult{
			Date:             date,
			Weights:          final,
			PortfolioReturn:  actual,
			CumulativeEquity: state.CumulativeEquity,
			DrawdownPct:      state.DrawdownPct,
			RiskState:        next,
		})

		log.Debug().
			Str("date", date).
			Float64("exposure_pct", effectiveExposurePct).
			Float64("portfolio_return", actual).
			Float64("equity", state.CumulativeEquity).
			Float64("drawdown_pct", state.DrawdownPct*100).
			Str("risk_state", next.String()).
			Msg("Simulated day")
	}

	explanations := e.explainRun(ids, seriesByID, days, results, portfolioReturns, policy)
	summary := explain.GenerateSummary(explanations)

	log.Info().
		Float64("final_equity", state.CumulativeEquity).
		Float64("max_drawdown_pct", formulas.MaxDrawdown(equitySeries(results))*100).
		Str("final_state", state.CurrentRiskState.String()).
		Int("explanations", len(explanations)).
		Msg("Simulation run complete")

	return &domain.RunReport{
		RunID:        runID,
		Results:      results,
		Explanations: explanations,
		Summary:      summary,
	}, nil
}

// explainRun narrates the weight deltas between every pair of consecutive
// allocation days.
func (e *Engine) explainRun(
	ids []string,
	seriesByID map[string]map[string]float64,
	days []string,
	results []domain.DailyAllocationResult,
	portfolioReturns []float64,
	policy domain.PortfolioPolicy,
) []domain.WeightChangeExplanation {
	var out []domain.WeightChangeExplanation
	for i := 1; i < len(results); i++ {
		metrics := make(map[string]explain.StrategyMetrics, len(ids))
		for _, id := range ids {
			aligned := alignedReturns(seriesByID[id], days[:i+1])
			metrics[id] = explain.MetricsFromReturns(aligned, portfolioReturns[:i+1])
		}
		out = append(out, explain.Explain(results[i-1].Weights, results[i].Weights, metrics, results[i].Date, policy.Thresholds)...)
	}
	return out
}

// buildWindow assembles the trailing return matrix for day index i: the last
// `lookback` run days strictly before the current one, NaN where a strategy
// has no observation.
func buildWindow(ids []string, seriesByID map[string]map[string]float64, days []string, i, lookback int) allocation.ReturnMatrix {
	start := i - lookback
	if start < 0 {
		start = 0
	}
	windowDays := days[start:i]

	data := make(map[string][]float64, len(ids))
	for _, id := range ids {
		row := make([]float64, len(windowDays))
		for k, d := range windowDays {
			if r, ok := seriesByID[id][d]; ok {
				row[k] = r
			} else {
				row[k] = math.NaN()
			}
		}
		data[id] = row
	}
	return allocation.ReturnMatrix{Dates: windowDays, Data: data}
}

// alignedReturns maps a strategy's returns onto the run calendar, NaN for
// dates without data.
func alignedReturns(series map[string]float64, days []string) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		if r, ok := series[d]; ok {
			out[i] = r
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// trailingVolatility annualizes the stddev of the most recent portfolio
// returns, at most `lookback` observations.
func trailingVolatility(returns []float64, lookback int) float64 {
	start := len(returns) - lookback
	if start < 0 {
		start = 0
	}
	return formulas.AnnualizedVolatility(returns[start:])
}

func hasDataInWindow(series map[string]float64, days []string) bool {
	for _, d := range days {
		if _, ok := series[d]; ok {
			return true
		}
	}
	return false
}

func compositionIDs(composition []domain.CompositionEntry) ([]string, error) {
	seen := make(map[string]struct{}, len(composition))
	ids := make([]string, 0, len(composition))
	for _, c := range composition {
		if c.StrategyID == "" {
			return nil, &domain.ConfigurationError{Field: "composition", Reason: "strategy_id must not be empty"}
		}
		if _, dup := seen[c.StrategyID]; dup {
			return nil, &domain.ConfigurationError{Field: "composition", Reason: fmt.Sprintf("duplicate strategy_id %q", c.StrategyID)}
		}
		seen[c.StrategyID] = struct{}{}
		ids = append(ids, c.StrategyID)
	}
	sort.Strings(ids)
	return ids, nil
}

func equitySeries(results []domain.DailyAllocationResult) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.CumulativeEquity
	}
	return out
}
