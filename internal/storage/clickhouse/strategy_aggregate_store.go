package clickhouse

import (
	"context"
	"fmt"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// StrategyAggregateStore implements storage.StrategyAggregateStore using ClickHouse.
type StrategyAggregateStore struct {
	conn *Conn
}

// NewStrategyAggregateStore creates a new StrategyAggregateStore.
func NewStrategyAggregateStore(conn *Conn) *StrategyAggregateStore {
	return &StrategyAggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)

const aggregateColumns = `
	batch_id, unique_key, strategy_key,
	simulations, crashes,
	performance_mean, performance_min, performance_max, performance_stddev, performance_median,
	max_drawdown_mean, max_drawdown_min, max_drawdown_max,
	avg_success_rate, avg_max_consecutive_wins, avg_max_consecutive_losses, avg_final_capital
`

func aggregateValues(a *domain.StrategyAggregate) []any {
	return []any{
		a.BatchID, a.UniqueKey, a.StrategyKey,
		uint32(a.Simulations), uint32(a.Crashes),
		a.PerformanceMean, a.PerformanceMin, a.PerformanceMax, a.PerformanceStddev, a.PerformanceMedian,
		a.MaxDrawdownMean, a.MaxDrawdownMin, a.MaxDrawdownMax,
		a.AvgSuccessRate, a.AvgMaxConsecutiveWins, a.AvgMaxConsecutiveLosses, a.AvgFinalCapital,
	}
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *StrategyAggregateStore) Insert(ctx context.Context, a *domain.StrategyAggregate) error {
	return s.InsertBulk(ctx, []*domain.StrategyAggregate{a})
}

// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
func (s *StrategyAggregateStore) InsertBulk(ctx context.Context, aggregates []*domain.StrategyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(aggregates))
	for _, a := range aggregates {
		if a == nil || a.BatchID == "" || a.UniqueKey == "" {
			return storage.ErrInvalidInput
		}
		key := a.BatchID + "|" + a.UniqueKey
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	// ReplacingMergeTree would silently replace, so check existing rows first
	for _, a := range aggregates {
		exists, err := s.exists(ctx, a.BatchID, a.UniqueKey)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO strategy_aggregates ("+aggregateColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, a := range aggregates {
		if err := batch.Append(aggregateValues(a)...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByKey retrieves an aggregate by (batch_id, unique_key).
func (s *StrategyAggregateStore) GetByKey(ctx context.Context, batchID, uniqueKey string) (*domain.StrategyAggregate, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+aggregateColumns+`
		FROM strategy_aggregates FINAL
		WHERE batch_id = ? AND unique_key = ?
		LIMIT 1
	`, batchID, uniqueKey)
	if err != nil {
		return nil, fmt.Errorf("query by key: %w", err)
	}
	defer rows.Close()

	aggregates, err := scanStrategyAggregates(rows)
	if err != nil {
		return nil, err
	}
	if len(aggregates) == 0 {
		return nil, storage.ErrNotFound
	}
	return aggregates[0], nil
}

// GetByBatch retrieves all aggregates of a batch ordered by unique_key.
func (s *StrategyAggregateStore) GetByBatch(ctx context.Context, batchID string) ([]*domain.StrategyAggregate, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+aggregateColumns+`
		FROM strategy_aggregates FINAL
		WHERE batch_id = ?
		ORDER BY unique_key ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query by batch: %w", err)
	}
	defer rows.Close()

	return scanStrategyAggregates(rows)
}

func (s *StrategyAggregateStore) exists(ctx context.Context, batchID, uniqueKey string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count(*) FROM strategy_aggregates FINAL
		WHERE batch_id = ? AND unique_key = ?
	`, batchID, uniqueKey).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows used for scanning.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanStrategyAggregates(rows chRows) ([]*domain.StrategyAggregate, error) {
	var aggregates []*domain.StrategyAggregate

	for rows.Next() {
		var (
			a                    domain.StrategyAggregate
			simulations, crashes uint32
		)
		err := rows.Scan(
			&a.BatchID, &a.UniqueKey, &a.StrategyKey,
			&simulations, &crashes,
			&a.PerformanceMean, &a.PerformanceMin, &a.PerformanceMax, &a.PerformanceStddev, &a.PerformanceMedian,
			&a.MaxDrawdownMean, &a.MaxDrawdownMin, &a.MaxDrawdownMax,
			&a.AvgSuccessRate, &a.AvgMaxConsecutiveWins, &a.AvgMaxConsecutiveLosses, &a.AvgFinalCapital,
		)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		a.Simulations = int(simulations)
		a.Crashes = int(crashes)
		aggregates = append(aggregates, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return aggregates, nil
}
