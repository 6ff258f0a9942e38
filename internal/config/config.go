// Package config provides configuration management: process-level settings
// from the environment and simulation scenarios from YAML files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aristath/helmsman/internal/domain"
)

// Config holds process-level configuration.
type Config struct {
	LogLevel     string
	Pretty       bool
	ScenarioPath string // default scenario file, overridable per command
}

// Load reads process configuration from the environment. A .env file in the
// working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Pretty:       getEnv("LOG_PRETTY", "true") != "false",
		ScenarioPath: getEnv("HELMSMAN_SCENARIO", "scenario.yaml"),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, &domain.ConfigurationError{Field: "LOG_LEVEL", Reason: fmt.Sprintf("unknown level %q", cfg.LogLevel)}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// Scenario is a complete simulation description: the run window, the
// allocation method, the governance policy and the strategy inputs.
type Scenario struct {
	Name        string                        `yaml:"name"`
	StartDate   string                        `yaml:"start_date"`
	EndDate     string                        `yaml:"end_date"`
	Method      string                        `yaml:"method"`
	Policy      domain.PortfolioPolicy        `yaml:"policy"`
	Composition []domain.CompositionEntry     `yaml:"composition"`
	Series      []domain.StrategyReturnSeries `yaml:"series"`
}

// LoadScenario parses a scenario file. Policy fields omitted from the file
// keep the documented built-in defaults; everything else is validated and
// fails fast with a ConfigurationError.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scn := Scenario{Policy: domain.DefaultPolicy()}
	if err := yaml.Unmarshal(data, &scn); err != nil {
		return nil, &domain.ConfigurationError{Field: "scenario", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}

	if err := scn.Validate(); err != nil {
		return nil, err
	}
	return &scn, nil
}

// Validate checks the scenario before a run starts.
func (s *Scenario) Validate() error {
	if s.StartDate == "" {
		return &domain.ConfigurationError{Field: "start_date", Reason: "required"}
	}
	if s.EndDate == "" {
		return &domain.ConfigurationError{Field: "end_date", Reason: "required"}
	}
	if len(s.Composition) == 0 {
		return &domain.ConfigurationError{Field: "composition", Reason: "at least one strategy is required"}
	}
	if len(s.Series) == 0 {
		return &domain.ConfigurationError{Field: "series", Reason: "at least one return series is required"}
	}
	return s.Policy.Validate()
}
