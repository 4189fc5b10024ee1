package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

func TestSimulationBatchStore_Lifecycle(t *testing.T) {
	store := NewSimulationBatchStore()
	ctx := context.Background()

	b := &domain.SimulationBatch{
		BatchID:          "b1",
		Name:             "nightly",
		Status:           domain.BatchStatusPending,
		TotalSimulations: 40,
		CreatedAt:        time.Now().UTC(),
	}
	if err := store.Insert(ctx, b); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, b); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	if err := store.UpdateStatus(ctx, "b1", domain.BatchStatusRunning, ""); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ := store.GetByID(ctx, "b1")
	if got.Status != domain.BatchStatusRunning || got.CompletedAt != nil {
		t.Errorf("Running batch: status %s, completed %v", got.Status, got.CompletedAt)
	}

	if err := store.UpdateStatus(ctx, "b1", domain.BatchStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	got, _ = store.GetByID(ctx, "b1")
	if got.Status != domain.BatchStatusFailed || got.ErrorMessage != "boom" || got.CompletedAt == nil {
		t.Errorf("Failed batch: %+v", got)
	}
}

func TestSimulationBatchStore_UpdateUnknown(t *testing.T) {
	store := NewSimulationBatchStore()
	err := store.UpdateStatus(context.Background(), "missing", domain.BatchStatusRunning, "")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSimulationBatchStore_ListNewestFirst(t *testing.T) {
	store := NewSimulationBatchStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new"} {
		b := &domain.SimulationBatch{BatchID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.Insert(ctx, b); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].BatchID != "new" {
		t.Errorf("Unexpected order: %v, %v", list[0].BatchID, list[1].BatchID)
	}
}
