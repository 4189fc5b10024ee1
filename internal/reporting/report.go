// Package reporting renders simulation batch reports.
package reporting

import "time"

// Report represents the comparison report of one simulation batch.
type Report struct {
	// Metadata
	GeneratedAt time.Time    `json:"generated_at"`
	Batch       BatchSummary `json:"batch"`

	// Strategy rows ranked by mean performance
	Strategies []StrategyRow `json:"strategies"`

	// Highlights, empty when there are no rows
	BestPerformance string `json:"best_performance,omitempty"` // unique key with the highest mean performance
	SafestDrawdown  string `json:"safest_drawdown,omitempty"`  // unique key with the shallowest mean max drawdown
	FewestCrashes   string `json:"fewest_crashes,omitempty"`   // unique key with the lowest crash rate
}

// BatchSummary describes the batch.
type BatchSummary struct {
	BatchID          string     `json:"batch_id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	TotalSimulations int        `json:"total_simulations"`
	TotalCrashes     int        `json:"total_crashes"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// StrategyRow represents one row in the strategy table.
type StrategyRow struct {
	Rank        int    `json:"rank"`
	UniqueKey   string `json:"unique_key"`
	StrategyKey string `json:"strategy_key"`
	Name        string `json:"name"`

	Simulations int     `json:"simulations"`
	Crashes     int     `json:"crashes"`
	CrashRate   float64 `json:"crash_rate"` // percent of simulations that crashed

	PerformanceMean   float64 `json:"performance_mean"`
	PerformanceMedian float64 `json:"performance_median"`
	PerformanceStddev float64 `json:"performance_stddev"`
	PerformanceMin    float64 `json:"performance_min"`
	PerformanceMax    float64 `json:"performance_max"`

	MaxDrawdownMean float64 `json:"max_drawdown_mean"`
	MaxDrawdownMin  float64 `json:"max_drawdown_min"`

	AvgSuccessRate          float64 `json:"avg_success_rate"`
	AvgMaxConsecutiveLosses float64 `json:"avg_max_consecutive_losses"`
	AvgFinalCapital         float64 `json:"avg_final_capital"`
}
