package metrics

import (
	"context"
	"errors"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// ErrNoResults is returned when no simulation results are available for aggregation.
var ErrNoResults = errors.New("no simulation results available for aggregation")

// Aggregator computes strategy aggregates from simulation results.
type Aggregator struct {
	resultStore storage.SimulationResultStore
	aggStore    storage.StrategyAggregateStore
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(resultStore storage.SimulationResultStore, aggStore storage.StrategyAggregateStore) *Aggregator {
	return &Aggregator{
		resultStore: resultStore,
		aggStore:    aggStore,
	}
}

// ComputeAggregate computes the aggregate of one strategy configuration in a batch.
// Returns ErrNoResults if the batch has no results for uniqueKey.
func (a *Aggregator) ComputeAggregate(ctx context.Context, batchID, uniqueKey string) (*domain.StrategyAggregate, error) {
	results, err := a.resultStore.GetByBatchKey(ctx, batchID, uniqueKey)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	agg := computeFromResults(results)
	agg.BatchID = batchID
	agg.UniqueKey = uniqueKey
	return agg, nil
}

// ComputeAndStore computes and persists an aggregate.
// Returns storage.ErrDuplicateKey if the aggregate already exists (append-only).
func (a *Aggregator) ComputeAndStore(ctx context.Context, batchID, uniqueKey string) (*domain.StrategyAggregate, error) {
	agg, err := a.ComputeAggregate(ctx, batchID, uniqueKey)
	if err != nil {
		return nil, err
	}
	if err := a.aggStore.Insert(ctx, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// ComputeBatch computes and stores the aggregates of every strategy
// configuration in a batch, ordered by unique key.
func (a *Aggregator) ComputeBatch(ctx context.Context, batchID string) ([]*domain.StrategyAggregate, error) {
	results, err := a.resultStore.GetByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	// Results arrive ordered by unique_key, so groups are contiguous.
	var aggregates []*domain.StrategyAggregate
	for start := 0; start < len(results); {
		end := start
		for end < len(results) && results[end].UniqueKey == results[start].UniqueKey {
			end++
		}
		agg := computeFromResults(results[start:end])
		agg.BatchID = batchID
		agg.UniqueKey = results[start].UniqueKey
		aggregates = append(aggregates, agg)
		start = end
	}

	if err := a.aggStore.InsertBulk(ctx, aggregates); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// computeFromResults aggregates results of a single strategy configuration.
func computeFromResults(results []*domain.SimulationResult) *domain.StrategyAggregate {
	n := len(results)
	perf := make([]float64, n)
	dd := make([]float64, n)
	success := make([]float64, n)
	maxWins := make([]float64, n)
	maxLosses := make([]float64, n)
	final := make([]float64, n)

	agg := &domain.StrategyAggregate{
		StrategyKey: results[0].StrategyKey,
		Simulations: n,
	}
	for i, r := range results {
		if r.Crashed {
			agg.Crashes++
		}
		perf[i] = r.PerformancePct
		dd[i] = r.MaxDrawdownPct
		success[i] = r.SuccessRate
		maxWins[i] = float64(r.MaxConsecutiveWins)
		maxLosses[i] = float64(r.MaxConsecutiveLosses)
		final[i] = r.FinalCapital
	}

	sortedPerf := sortedCopy(perf)
	sortedDD := sortedCopy(dd)

	agg.PerformanceMean = computeMean(perf)
	agg.PerformanceMin = sortedPerf[0]
	agg.PerformanceMax = sortedPerf[n-1]
	agg.PerformanceStddev = computeStddev(perf, agg.PerformanceMean)
	agg.PerformanceMedian = computePercentile(sortedPerf, 0.50)

	agg.MaxDrawdownMean = computeMean(dd)
	agg.MaxDrawdownMin = sortedDD[0]
	agg.MaxDrawdownMax = sortedDD[n-1]

	agg.AvgSuccessRate = computeMean(success)
	agg.AvgMaxConsecutiveWins = computeMean(maxWins)
	agg.AvgMaxConsecutiveLosses = computeMean(maxLosses)
	agg.AvgFinalCapital = computeMean(final)
	return agg
}
