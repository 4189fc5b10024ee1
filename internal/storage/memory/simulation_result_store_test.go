package memory

import (
	"context"
	"errors"
	"testing"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

func makeResult(batchID, key string, idx int, perf float64) *domain.SimulationResult {
	return &domain.SimulationResult{
		BatchID:         batchID,
		StrategyKey:     "fixed",
		UniqueKey:       key,
		SimulationIndex: idx,
		PerformancePct:  perf,
	}
}

func TestSimulationResultStore_InsertBulkAndGet(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	results := []*domain.SimulationResult{
		makeResult("b1", "k2", 1, 5),
		makeResult("b1", "k1", 1, 3),
		makeResult("b1", "k1", 0, 1),
		makeResult("b2", "k1", 0, 9),
	}
	if err := store.InsertBulk(ctx, results); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	all, err := store.GetByBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("GetByBatch failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(all))
	}
	if all[0].UniqueKey != "k1" || all[0].SimulationIndex != 0 || all[2].UniqueKey != "k2" {
		t.Errorf("Unexpected order: %+v", all)
	}

	one, err := store.GetByBatchKey(ctx, "b1", "k1")
	if err != nil {
		t.Fatalf("GetByBatchKey failed: %v", err)
	}
	if len(one) != 2 || one[1].PerformancePct != 3 {
		t.Errorf("Unexpected results: %+v", one)
	}
}

func TestSimulationResultStore_DuplicateRejectsBatch(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.SimulationResult{makeResult("b1", "k", 0, 1)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.SimulationResult{
		makeResult("b1", "k", 1, 1),
		makeResult("b1", "k", 0, 1),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByBatchKey(ctx, "b1", "k")
	if len(got) != 1 {
		t.Errorf("Failed batch must not insert anything, got %d results", len(got))
	}
}

func TestSimulationResultStore_CopiesEquityCurve(t *testing.T) {
	store := NewSimulationResultStore()
	ctx := context.Background()

	r := makeResult("b1", "k", 0, 1)
	r.EquityCurve = []float64{100, 110}
	if err := store.InsertBulk(ctx, []*domain.SimulationResult{r}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	r.EquityCurve[0] = -1

	got, _ := store.GetByBatch(ctx, "b1")
	if got[0].EquityCurve[0] != 100 {
		t.Errorf("Store shares equity curve with caller")
	}
}
