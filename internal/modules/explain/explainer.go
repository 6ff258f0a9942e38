// Package explain converts weight deltas and per-strategy metrics into the
// audited, human-readable narratives attached to every run report.
//
// Reason selection follows a fixed, documented priority: drawdown, then
// trading activity, then portfolio correlation, then the default
// rebalancing narrative. The first matching rule wins; when several causes
// apply on the same day only the highest-priority one is surfaced.
package explain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/pkg/formulas"
)

// Locked narration thresholds. They are named here (not inlined at the call
// sites) so every number cited in a reason traces back to one declaration.
const (
	// MaterialDelta is the minimum absolute weight change worth narrating.
	MaterialDelta = 0.05

	// ActivityWindow is the trailing session count used for trade activity.
	ActivityWindow = 10
	// MinActiveTrades is the activity floor below which a strategy is
	// flagged as low-activity.
	MinActiveTrades = 3

	// HardCorrelationThreshold suspends further concentration in a
	// strategy; SoftCorrelationThreshold only applies a weight penalty.
	HardCorrelationThreshold = 0.9
	SoftCorrelationThreshold = 0.7
)

// StrategyMetrics is the per-strategy snapshot the explainer reasons about.
type StrategyMetrics struct {
	Drawdown               float64 // negative fraction below the strategy's own peak
	TradesLast10d          int
	CorrelationToPortfolio float64 // NaN when not computable
}

// MetricsFromReturns derives StrategyMetrics from aligned daily return
// slices (NaN marks dates without data). Days with a non-zero observed
// return are counted as trading activity; the external execution layer owns
// true trade counts, this is the engine's documented proxy.
func MetricsFromReturns(strategyReturns, portfolioReturns []float64) StrategyMetrics {
	trades := 0
	start := len(strategyReturns) - ActivityWindow
	if start < 0 {
		start = 0
	}
	for _, r := range strategyReturns[start:] {
		if !math.IsNaN(r) && r != 0 {
			trades++
		}
	}

	return StrategyMetrics{
		Drawdown:               -formulas.CurrentDrawdown(formulas.Observed(strategyReturns)),
		TradesLast10d:          trades,
		CorrelationToPortfolio: formulas.PairedCorrelation(strategyReturns, portfolioReturns),
	}
}

// Explain narrates every material weight change between two consecutive
// allocations. Strategies with |delta| <= MaterialDelta are skipped.
func Explain(
	oldWeights, newWeights map[string]float64,
	metrics map[string]StrategyMetrics,
	date string,
	th domain.RiskThresholds,
) []domain.WeightChangeExplanation {
	ids := unionIDs(oldWeights, newWeights)

	var out []domain.WeightChangeExplanation
	for _, id := range ids {
		oldW := oldWeights[id]
		newW := newWeights[id]
		delta := newW - oldW
		if math.Abs(delta) <= MaterialDelta {
			continue
		}

		reason, recovery, severity := classifyChange(delta, metrics[id], th)
		out = append(out, domain.WeightChangeExplanation{
			StrategyID:        id,
			OldWeight:         oldW,
			NewWeight:         newW,
			Delta:             delta,
			Reason:            reason,
			RecoveryCondition: recovery,
			Severity:          severity,
		})
	}
	return out
}

// classifyChange applies the fixed priority order: drawdown, activity,
// correlation, default.
func classifyChange(delta float64, m StrategyMetrics, th domain.RiskThresholds) (reason, recovery string, severity domain.RiskState) {
	// 1. Drawdown.
	if m.Drawdown < th.DDDefensive {
		reason = fmt.Sprintf("strategy drawdown %.2f%% breached defensive threshold %.2f%%", m.Drawdown*100, th.DDDefensive*100)
		recovery = fmt.Sprintf("drawdown recovers above the cautious threshold of %.2f%%", th.DDCautious*100)
		return reason, recovery, domain.RiskDefensive
	}
	if m.Drawdown < th.DDCautious {
		reason = fmt.Sprintf("strategy drawdown %.2f%% breached cautious threshold %.2f%%", m.Drawdown*100, th.DDCautious*100)
		recovery = "strategy sets a new equity peak, resetting drawdown to zero"
		return reason, recovery, domain.RiskCautious
	}

	// 2. Activity.
	if m.TradesLast10d == 0 {
		reason = fmt.Sprintf("Zero trades in last 10 sessions: auto-suspend (minimum %d trades)", MinActiveTrades)
		recovery = fmt.Sprintf("strategy records at least %d trades over %d sessions", MinActiveTrades, ActivityWindow)
		return reason, recovery, domain.RiskCautious
	}
	if m.TradesLast10d < MinActiveTrades {
		reason = fmt.Sprintf("low activity: %d trades in last %d sessions, below minimum %d", m.TradesLast10d, ActivityWindow, MinActiveTrades)
		recovery = fmt.Sprintf("strategy records at least %d trades over %d sessions", MinActiveTrades, ActivityWindow)
		return reason, recovery, domain.RiskCautious
	}

	// 3. Correlation.
	if !math.IsNaN(m.CorrelationToPortfolio) {
		if m.CorrelationToPortfolio > HardCorrelationThreshold {
			reason = fmt.Sprintf("correlation to portfolio %.2f exceeded hard threshold of %.1f", m.CorrelationToPortfolio, HardCorrelationThreshold)
			recovery = fmt.Sprintf("correlation falls back below %.1f", HardCorrelationThreshold)
			return reason, recovery, domain.RiskCautious
		}
		if m.CorrelationToPortfolio > SoftCorrelationThreshold {
			reason = fmt.Sprintf("soft penalty applied: correlation to portfolio %.2f above soft threshold of %.1f", m.CorrelationToPortfolio, SoftCorrelationThreshold)
			recovery = fmt.Sprintf("correlation falls back below %.1f", SoftCorrelationThreshold)
			return reason, recovery, domain.RiskNormal
		}
	}

	// 4. Default.
	if delta > 0 {
		reason = fmt.Sprintf("performance improved: weight raised by %.4f (materiality threshold %.2f)", delta, MaterialDelta)
	} else {
		reason = fmt.Sprintf("normal risk-adjusted rebalancing: weight reduced by %.4f (materiality threshold %.2f)", -delta, MaterialDelta)
	}
	return reason, "no action required", domain.RiskNormal
}

// GenerateSummary renders the explanations as a single text report. It never
// returns a blank report: with no material changes it states that capital
// protection held steady.
func GenerateSummary(explanations []domain.WeightChangeExplanation) string {
	if len(explanations) == 0 {
		return "No material allocation changes. Capital protection held steady and all strategies stayed within policy bounds."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d material allocation change(s):\n", len(explanations))

	defensive := false
	for _, e := range explanations {
		if e.Severity == domain.RiskDefensive {
			defensive = true
		}
		fmt.Fprintf(&b, "- [%s] %s: %.4f -> %.4f (%+.4f). %s. Recovery: %s.\n",
			e.Severity, e.StrategyID, e.OldWeight, e.NewWeight, e.Delta, e.Reason, e.RecoveryCondition)
	}

	if defensive {
		b.WriteString("\n*** DEFENSIVE MODE: exposure has been cut to protect capital. Review before overriding. ***\n")
	}
	return b.String()
}

func unionIDs(a, b map[string]float64) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for id := range a {
		set[id] = struct{}{}
	}
	for id := range b {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
