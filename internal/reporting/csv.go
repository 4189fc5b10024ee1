package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders strategy rows as CSV string.
func RenderCSV(rows []StrategyRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("rank,unique_key,strategy_key,simulations,crashes,crash_rate,")
	sb.WriteString("performance_mean,performance_median,performance_stddev,performance_min,performance_max,")
	sb.WriteString("max_drawdown_mean,max_drawdown_min,avg_success_rate,avg_max_consecutive_losses,avg_final_capital\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%d,%d,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%.2f\n",
			r.Rank,
			r.UniqueKey,
			r.StrategyKey,
			r.Simulations,
			r.Crashes,
			r.CrashRate,
			r.PerformanceMean,
			r.PerformanceMedian,
			r.PerformanceStddev,
			r.PerformanceMin,
			r.PerformanceMax,
			r.MaxDrawdownMean,
			r.MaxDrawdownMin,
			r.AvgSuccessRate,
			r.AvgMaxConsecutiveLosses,
			r.AvgFinalCapital,
		))
	}

	return sb.String()
}
