// Package main is the entry point for the Helmsman risk-governed portfolio
// allocation engine. It loads a simulation scenario (policy, composition,
// strategy return series), runs the deterministic batch simulation and
// renders the governed equity curve plus the allocation audit trail.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aristath/helmsman/internal/config"
	"github.com/aristath/helmsman/internal/domain"
	"github.com/aristath/helmsman/internal/modules/allocation"
	"github.com/aristath/helmsman/internal/modules/governor"
	"github.com/aristath/helmsman/pkg/logger"
)

var (
	scenarioPath string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "helmsman",
	Short: "Helmsman risk-governed portfolio allocation engine",
	Long: `Helmsman turns multiple independent strategy return streams into one
governed portfolio equity curve. It continuously classifies portfolio risk,
caps exposure and produces a plain-language audit trail of every material
allocation change.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a scenario file",
	Long: `Run a deterministic batch simulation over the scenario's date range.

Example usage:
  helmsman run --scenario scenario.yaml
  helmsman run --scenario scenario.yaml --format json
  helmsman run --scenario scenario.yaml --log-level debug`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to the scenario YAML file (defaults to HELMSMAN_SCENARIO)")
	runCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format: table, json")
	runCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (defaults to LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if scenarioPath == "" {
		scenarioPath = cfg.ScenarioPath
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.Pretty})
	logger.SetGlobalLogger(log)

	scn, err := config.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}

	engine := governor.NewEngine(log)
	report, err := engine.Run(governor.RunInput{
		Series:      scn.Series,
		Policy:      scn.Policy,
		Composition: scn.Composition,
		StartDate:   scn.StartDate,
		EndDate:     scn.EndDate,
		Method:      allocation.Method(scn.Method),
	})
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	switch outputFormat {
	case "json":
		return outputJSON(report)
	default:
		return outputTable(report)
	}
}

func outputJSON(report *domain.RunReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func outputTable(report *domain.RunReport) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "DATE\tRETURN\tEQUITY\tDRAWDOWN\tSTATE\n")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%s\t%+.4f%%\t%.4f\t%.2f%%\t%s\n",
			r.Date, r.PortfolioReturn*100, r.CumulativeEquity, r.DrawdownPct*100, r.RiskState)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nRun %s\n\n%s\n", report.RunID, report.Summary)
	return nil
}
