package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/helmsman/internal/domain"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalScenario = `
name: smoke
start_date: "2024-01-02"
end_date: "2024-01-31"
method: EQUAL_WEIGHT
composition:
  - strategy_id: alpha
    target_allocation_percent: 100
series:
  - strategy_id: alpha
    points:
      - date: "2024-01-02"
        return: 0.012
      - date: "2024-01-03"
        return: -0.004
`

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "")
		t.Setenv("LOG_PRETTY", "")
		t.Setenv("HELMSMAN_SCENARIO", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.Pretty)
		assert.Equal(t, "scenario.yaml", cfg.ScenarioPath)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("LOG_PRETTY", "false")
		t.Setenv("HELMSMAN_SCENARIO", "/data/run.yaml")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.False(t, cfg.Pretty)
		assert.Equal(t, "/data/run.yaml", cfg.ScenarioPath)
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")

		_, err := Load()
		require.Error(t, err)
		var confErr *domain.ConfigurationError
		assert.ErrorAs(t, err, &confErr)
		assert.Equal(t, "LOG_LEVEL", confErr.Field)
	})
}

func TestLoadScenario(t *testing.T) {
	t.Run("minimal file keeps policy defaults", func(t *testing.T) {
		scn, err := LoadScenario(writeScenario(t, minimalScenario))
		require.NoError(t, err)

		assert.Equal(t, "smoke", scn.Name)
		assert.Equal(t, "EQUAL_WEIGHT", scn.Method)
		require.Len(t, scn.Series, 1)
		assert.Len(t, scn.Series[0].Points, 2)

		// Omitted policy block means built-in defaults across the board.
		assert.Equal(t, domain.DefaultPolicy(), scn.Policy)
	})

	t.Run("partial policy merges over defaults", func(t *testing.T) {
		scn, err := LoadScenario(writeScenario(t, minimalScenario+`
policy:
  max_equity_exposure_pct: 60
  defensive_action: scale_40
`))
		require.NoError(t, err)

		assert.InDelta(t, 60.0, scn.Policy.MaxEquityExposurePct, 1e-9)
		assert.Equal(t, domain.ActionScale40, scn.Policy.DefensiveAction)
		// Untouched fields stay at their defaults.
		assert.InDelta(t, 10.0, scn.Policy.CashReservePct, 1e-9)
		assert.Equal(t, domain.SensitivityMedium, scn.Policy.AllocationSensitivity)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read scenario file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadScenario(writeScenario(t, "start_date: [unterminated"))
		require.Error(t, err)
		var confErr *domain.ConfigurationError
		assert.ErrorAs(t, err, &confErr)
	})

	t.Run("invalid policy value", func(t *testing.T) {
		_, err := LoadScenario(writeScenario(t, minimalScenario+`
policy:
  cash_reserve_pct: 140
`))
		require.Error(t, err)
		var confErr *domain.ConfigurationError
		require.ErrorAs(t, err, &confErr)
		assert.Equal(t, "cash_reserve_pct", confErr.Field)
	})
}

func TestScenarioValidate(t *testing.T) {
	base := func() Scenario {
		return Scenario{
			StartDate: "2024-01-02",
			EndDate:   "2024-01-31",
			Policy:    domain.DefaultPolicy(),
			Composition: []domain.CompositionEntry{
				{StrategyID: "alpha", TargetAllocationPercent: 100},
			},
			Series: []domain.StrategyReturnSeries{
				{StrategyID: "alpha", Points: []domain.ReturnPoint{{Date: "2024-01-02", Return: 0.01}}},
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		field  string
	}{
		{"missing start date", func(s *Scenario) { s.StartDate = "" }, "start_date"},
		{"missing end date", func(s *Scenario) { s.EndDate = "" }, "end_date"},
		{"empty composition", func(s *Scenario) { s.Composition = nil }, "composition"},
		{"empty series", func(s *Scenario) { s.Series = nil }, "series"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scn := base()
			tt.mutate(&scn)

			err := scn.Validate()
			require.Error(t, err)
			var confErr *domain.ConfigurationError
			require.ErrorAs(t, err, &confErr)
			assert.Equal(t, tt.field, confErr.Field)
		})
	}

	t.Run("valid scenario passes", func(t *testing.T) {
		scn := base()
		assert.NoError(t, scn.Validate())
	})
}
