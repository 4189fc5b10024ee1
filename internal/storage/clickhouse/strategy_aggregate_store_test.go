package clickhouse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
	"rmultiple-lab/internal/storage/clickhouse"
)

func makeAggregate(batchID, uniqueKey string) *domain.StrategyAggregate {
	return &domain.StrategyAggregate{
		BatchID:                 batchID,
		UniqueKey:               uniqueKey,
		StrategyKey:             "anti_martingale",
		Simulations:             100,
		Crashes:                 3,
		PerformanceMean:         14.2,
		PerformanceMin:          -99.1,
		PerformanceMax:          310.5,
		PerformanceStddev:       42.7,
		PerformanceMedian:       9.8,
		MaxDrawdownMean:         -31.4,
		MaxDrawdownMin:          -100,
		MaxDrawdownMax:          -4.2,
		AvgSuccessRate:          0.41,
		AvgMaxConsecutiveWins:   4.1,
		AvgMaxConsecutiveLosses: 9.3,
		AvgFinalCapital:         11420.5,
	}
}

func TestStrategyAggregateStore_Insert(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewStrategyAggregateStore(conn)
	ctx := context.Background()

	agg := makeAggregate("b1", "anti_martingale_4kP2xQ9a")
	require.NoError(t, store.Insert(ctx, agg))

	got, err := store.GetByKey(ctx, "b1", "anti_martingale_4kP2xQ9a")
	require.NoError(t, err)
	assert.Equal(t, agg, got)
}

func TestStrategyAggregateStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewStrategyAggregateStore(conn)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, makeAggregate("b1", "k")))
	assert.ErrorIs(t, store.Insert(ctx, makeAggregate("b1", "k")), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.StrategyAggregate{
		makeAggregate("b2", "x"),
		makeAggregate("b2", "x"),
	}), storage.ErrDuplicateKey)
}

func TestStrategyAggregateStore_GetByBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewStrategyAggregateStore(conn)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.StrategyAggregate{
		makeAggregate("b1", "zeta"),
		makeAggregate("b1", "alpha"),
		makeAggregate("b2", "other"),
	}))

	got, err := store.GetByBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].UniqueKey)
	assert.Equal(t, "zeta", got[1].UniqueKey)
}

func TestStrategyAggregateStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := clickhouse.NewStrategyAggregateStore(conn)
	_, err := store.GetByKey(context.Background(), "missing", "k")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
