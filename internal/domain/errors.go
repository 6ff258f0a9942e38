package domain

import "fmt"

// ConfigurationError reports a missing or invalid policy/run configuration
// field. It is always fatal and raised before a simulation loop starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// InsufficientDataError reports a strategy with no usable return data for a
// run window. It is a warning condition: the strategy contributes zero weight
// and zero return, and the run continues.
type InsufficientDataError struct {
	StrategyID string
	Window     string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: strategy %s has no returns in window %s", e.StrategyID, e.Window)
}

// ComputationError reports degenerate numeric input (all-NaN correlations,
// zero variance). Components recover from it locally by falling back to a
// simpler method; it never aborts a run.
type ComputationError struct {
	Op     string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation failed: %s: %s", e.Op, e.Reason)
}
