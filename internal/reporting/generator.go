package reporting

import (
	"context"
	"sort"
	"time"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
	"rmultiple-lab/internal/strategy"
)

// Generator produces reports from stored data.
type Generator struct {
	batchStore     storage.SimulationBatchStore
	aggregateStore storage.StrategyAggregateStore
	now            func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(batchStore storage.SimulationBatchStore, aggStore storage.StrategyAggregateStore) *Generator {
	return &Generator{
		batchStore:     batchStore,
		aggregateStore: aggStore,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces the report of a batch.
// Returns storage.ErrNotFound if the batch does not exist.
func (g *Generator) Generate(ctx context.Context, batchID string) (*Report, error) {
	batch, err := g.batchStore.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	aggs, err := g.aggregateStore.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	rows := buildRows(aggs)

	summary := BatchSummary{
		BatchID:          batch.BatchID,
		Name:             batch.Name,
		Status:           string(batch.Status),
		TotalSimulations: batch.TotalSimulations,
		CreatedAt:        batch.CreatedAt,
		CompletedAt:      batch.CompletedAt,
	}
	for _, r := range rows {
		summary.TotalCrashes += r.Crashes
	}

	report := &Report{
		GeneratedAt: g.now(),
		Batch:       summary,
		Strategies:  rows,
	}
	fillHighlights(report)
	return report, nil
}

// buildRows converts aggregates to ranked rows.
func buildRows(aggs []*domain.StrategyAggregate) []StrategyRow {
	rows := make([]StrategyRow, len(aggs))
	for i, agg := range aggs {
		name := agg.StrategyKey
		if d, err := strategy.Describe(agg.StrategyKey); err == nil {
			name = d.Name
		}
		crashRate := 0.0
		if agg.Simulations > 0 {
			crashRate = float64(agg.Crashes) / float64(agg.Simulations) * 100
		}

		rows[i] = StrategyRow{
			UniqueKey:               agg.UniqueKey,
			StrategyKey:             agg.StrategyKey,
			Name:                    name,
			Simulations:             agg.Simulations,
			Crashes:                 agg.Crashes,
			CrashRate:               crashRate,
			PerformanceMean:         agg.PerformanceMean,
			PerformanceMedian:       agg.PerformanceMedian,
			PerformanceStddev:       agg.PerformanceStddev,
			PerformanceMin:          agg.PerformanceMin,
			PerformanceMax:          agg.PerformanceMax,
			MaxDrawdownMean:         agg.MaxDrawdownMean,
			MaxDrawdownMin:          agg.MaxDrawdownMin,
			AvgSuccessRate:          agg.AvgSuccessRate,
			AvgMaxConsecutiveLosses: agg.AvgMaxConsecutiveLosses,
			AvgFinalCapital:         agg.AvgFinalCapital,
		}
	}

	// Sort by mean performance DESC, unique_key ASC on ties
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].PerformanceMean != rows[j].PerformanceMean {
			return rows[i].PerformanceMean > rows[j].PerformanceMean
		}
		return rows[i].UniqueKey < rows[j].UniqueKey
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// fillHighlights picks the leading row per criterion. Rows are already
// ranked, so ties go to the better ranked row.
func fillHighlights(r *Report) {
	if len(r.Strategies) == 0 {
		return
	}
	r.BestPerformance = r.Strategies[0].UniqueKey

	safest, fewest := r.Strategies[0], r.Strategies[0]
	for _, row := range r.Strategies[1:] {
		if row.MaxDrawdownMean > safest.MaxDrawdownMean {
			safest = row
		}
		if row.CrashRate < fewest.CrashRate {
			fewest = row
		}
	}
	r.SafestDrawdown = safest.UniqueKey
	r.FewestCrashes = fewest.UniqueKey
}
