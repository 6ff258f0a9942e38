// Package allocation computes per-strategy target weights from a trailing
// return window.
//
// Weights are capped at the per-strategy maximum WITHOUT renormalizing
// afterwards. This is deliberate and deviates from naive portfolio-weight
// conventions: renormalizing after the cap would redistribute capital to the
// uncapped strategies and erase the relative-scale signal the method
// produced, at the cost of totals that can sum below 1.0. The uninvested
// remainder is treated as cash.
package allocation

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/pkg/formulas"
)

// Method selects the weighting scheme.
type Method string

const (
	MethodEqualWeight          Method = "EQUAL_WEIGHT"
	MethodInverseVolatility    Method = "INVERSE_VOLATILITY"
	MethodCorrelationPenalized Method = "CORRELATION_PENALIZED"
)

// stdFloor guards the inverse-volatility division against near-zero
// dispersion blowing up a single strategy's weight.
const stdFloor = 1e-4

// rawFloor is the minimum raw correlation-penalized weight. Heavily
// penalized strategies keep a token weight rather than going negative.
const rawFloor = 0.01

// ReturnMatrix is the trailing lookback window: an ordered date axis and one
// return row per strategy in the run composition. Missing observations are
// NaN, never zero.
type ReturnMatrix struct {
	Dates []string
	Data  map[string][]float64
}

// StrategyIDs returns every strategy in the matrix in sorted order, so that
// iteration (and therefore floating-point accumulation) is deterministic.
func (m ReturnMatrix) StrategyIDs() []string {
	ids := make([]string, 0, len(m.Data))
	for id := range m.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Allocator computes target weights under a chosen method.
type Allocator struct {
	log zerolog.Logger
}

// New creates a new weight allocator.
func New(log zerolog.Logger) *Allocator {
	return &Allocator{log: log.With().Str("component", "allocator").Logger()}
}

// Allocate computes per-strategy weights from the trailing window, caps each
// at maxAllocPct (0-100 scale) and returns the result. Pre-cap weights sum
// to 1.0 across the strategies with data; post-cap totals may be below 1.0.
//
// An empty window (the first day of a run) yields equal weight across every
// strategy in the composition regardless of method. An unknown method falls
// back to equal weight. Degenerate correlation input falls back to
// inverse-volatility; both fallbacks are logged and non-fatal.
func (a *Allocator) Allocate(history ReturnMatrix, method Method, maxAllocPct float64, penaltyMult float64) map[string]float64 {
	ids := history.StrategyIDs()
	if len(ids) == 0 {
		return map[string]float64{}
	}

	// Day one: no lookback yet, method is irrelevant.
	if len(history.Dates) == 0 {
		return capWeights(equalWeights(ids), maxAllocPct)
	}

	// Only strategies with at least one observation in the window
	// participate; the rest carry zero weight for the day.
	withData := make([]string, 0, len(ids))
	for _, id := range ids {
		if len(formulas.Observed(history.Data[id])) > 0 {
			withData = append(withData, id)
		}
	}
	if len(withData) == 0 {
		a.log.Warn().Int("strategies", len(ids)).Msg("No strategy has data in lookback window, using equal weight")
		return capWeights(equalWeights(ids), maxAllocPct)
	}

	var weights map[string]float64
	switch method {
	case MethodInverseVolatility:
		weights = a.inverseVolatility(history, withData)
	case MethodCorrelationPenalized:
		weights = a.correlationPenalized(history, withData, penaltyMult)
	case MethodEqualWeight:
		weights = equalWeights(withData)
	default:
		a.log.Warn().Str("method", string(method)).Msg("Unknown allocation method, falling back to equal weight")
		weights = equalWeights(withData)
	}

	// Strategies without data still appear in the result, at zero.
	for _, id := range ids {
		if _, ok := weights[id]; !ok {
			weights[id] = 0
		}
	}

	return capWeights(weights, maxAllocPct)
}

// inverseVolatility weights each strategy proportionally to 1/std of its
// observed returns, with the stddev floored to avoid division blow-up.
func (a *Allocator) inverseVolatility(history ReturnMatrix, ids []string) map[string]float64 {
	raw := make(map[string]float64, len(ids))
	for _, id := range ids {
		std := formulas.StdDev(formulas.Observed(history.Data[id]))
		if std < stdFloor {
			std = stdFloor
		}
		raw[id] = 1 / std
	}
	return normalize(raw, ids)
}

// correlationPenalized weights each strategy by inverse volatility scaled
// down by its average pairwise correlation with the rest of the portfolio:
// raw_i = (1/std_i) * (1 - avgCorr_i * penaltyMult), floored at rawFloor.
func (a *Allocator) correlationPenalized(history ReturnMatrix, ids []string, penaltyMult float64) map[string]float64 {
	avgCorr, ok := averageCorrelations(history, ids)
	if !ok {
		compErr := &domain.ComputationError{Op: "average_correlations", Reason: "every pairwise correlation is degenerate"}
		a.log.Warn().Err(compErr).Msg("Falling back to inverse volatility")
		return a.inverseVolatility(history, ids)
	}

	raw := make(map[string]float64, len(ids))
	sum := 0.0
	for _, id := range ids {
		std := formulas.StdDev(formulas.Observed(history.Data[id]))
		if std < stdFloor {
			std = stdFloor
		}
		w := (1 / std) * (1 - avgCorr[id]*penaltyMult)
		if w < rawFloor {
			w = rawFloor
		}
		raw[id] = w
		sum += w
	}
	if sum <= 0 {
		a.log.Warn().Msg("All penalized weights are zero, falling back to equal weight")
		return equalWeights(ids)
	}
	return normalize(raw, ids)
}

// averageCorrelations returns each strategy's mean pairwise correlation with
// the others, computed over mutually observed dates. Pairs with no overlap
// are skipped. The second return is false when every pair is degenerate.
func averageCorrelations(history ReturnMatrix, ids []string) (map[string]float64, bool) {
	sums := make(map[string]float64, len(ids))
	counts := make(map[string]int, len(ids))
	anyValid := false

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			c := formulas.PairedCorrelation(history.Data[ids[i]], history.Data[ids[j]])
			if math.IsNaN(c) {
				continue
			}
			anyValid = true
			sums[ids[i]] += c
			counts[ids[i]]++
			sums[ids[j]] += c
			counts[ids[j]]++
		}
	}

	// A single strategy has no pairs; treat it as uncorrelated.
	if len(ids) == 1 {
		return map[string]float64{ids[0]: 0}, true
	}
	if !anyValid {
		return nil, false
	}

	avg := make(map[string]float64, len(ids))
	for _, id := range ids {
		if counts[id] > 0 {
			avg[id] = sums[id] / float64(counts[id])
		}
	}
	return avg, true
}

func equalWeights(ids []string) map[string]float64 {
	weights := make(map[string]float64, len(ids))
	if len(ids) == 0 {
		return weights
	}
	w := 1.0 / float64(len(ids))
	for _, id := range ids {
		weights[id] = w
	}
	return weights
}

func normalize(raw map[string]float64, ids []string) map[string]float64 {
	sum := 0.0
	for _, id := range ids {
		sum += raw[id]
	}
	if sum <= 0 {
		return equalWeights(ids)
	}
	out := make(map[string]float64, len(raw))
	for _, id := range ids {
		out[id] = raw[id] / sum
	}
	return out
}

// capWeights clamps each weight at maxAllocPct/100 without renormalizing.
// See the package comment for why the post-cap total may stay below 1.0.
func capWeights(weights map[string]float64, maxAllocPct float64) map[string]float64 {
	limit := maxAllocPct / 100
	out := make(map[string]float64, len(weights))
	for id, w := range weights {
		if w > limit {
			w = limit
		}
		if w < 0 {
			w = 0
		}
		out[id] = w
	}
	return out
}
