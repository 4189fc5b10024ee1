package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Simulation Report: %s\n\n", r.Batch.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Batch Summary
	sb.WriteString("## Batch\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Batch ID | %s |\n", r.Batch.BatchID))
	sb.WriteString(fmt.Sprintf("| Status | %s |\n", r.Batch.Status))
	sb.WriteString(fmt.Sprintf("| Simulations | %d |\n", r.Batch.TotalSimulations))
	sb.WriteString(fmt.Sprintf("| Crashed Accounts | %d |\n", r.Batch.TotalCrashes))
	sb.WriteString(fmt.Sprintf("| Created | %s |\n", r.Batch.CreatedAt.Format(time.RFC3339)))
	if r.Batch.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("| Completed | %s |\n", r.Batch.CompletedAt.Format(time.RFC3339)))
	}
	sb.WriteString("\n")

	// Strategy Table
	sb.WriteString("## Strategies\n\n")
	if len(r.Strategies) > 0 {
		sb.WriteString("| # | Strategy | Key | Sims | Crash% | Perf Mean | Perf Median | Perf Std | Perf Min | Perf Max | DD Mean | DD Worst | Success% |\n")
		sb.WriteString("|---|----------|-----|------|--------|-----------|-------------|----------|----------|----------|---------|----------|----------|\n")
		for _, s := range r.Strategies {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %.1f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
				s.Rank, s.Name, s.UniqueKey, s.Simulations, s.CrashRate,
				s.PerformanceMean, s.PerformanceMedian, s.PerformanceStddev, s.PerformanceMin, s.PerformanceMax,
				s.MaxDrawdownMean, s.MaxDrawdownMin, s.AvgSuccessRate))
		}
	} else {
		sb.WriteString("No strategy aggregates available.\n")
	}
	sb.WriteString("\n")

	// Highlights
	if len(r.Strategies) > 0 {
		sb.WriteString("## Highlights\n\n")
		sb.WriteString(fmt.Sprintf("- Best mean performance: %s\n", r.BestPerformance))
		sb.WriteString(fmt.Sprintf("- Shallowest mean drawdown: %s\n", r.SafestDrawdown))
		sb.WriteString(fmt.Sprintf("- Lowest crash rate: %s\n", r.FewestCrashes))
		sb.WriteString("\n")
	}

	return sb.String()
}
