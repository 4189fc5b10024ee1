package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SimulationBatchStore is an in-memory implementation of storage.SimulationBatchStore.
type SimulationBatchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SimulationBatch
}

// NewSimulationBatchStore creates a new in-memory simulation batch store.
func NewSimulationBatchStore() *SimulationBatchStore {
	return &SimulationBatchStore{
		data: make(map[string]*domain.SimulationBatch),
	}
}

func copyBatch(b *domain.SimulationBatch) *domain.SimulationBatch {
	c := *b
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
func (s *SimulationBatchStore) Insert(_ context.Context, b *domain.SimulationBatch) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BatchID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[b.BatchID] = copyBatch(b)
	return nil
}

// UpdateStatus moves a batch to status. Returns ErrNotFound if not exists.
func (s *SimulationBatchStore) UpdateStatus(_ context.Context, batchID string, status domain.BatchStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.data[batchID]
	if !exists {
		return storage.ErrNotFound
	}
	b.Status = status
	b.ErrorMessage = errMsg
	if status == domain.BatchStatusCompleted || status == domain.BatchStatusFailed {
		now := time.Now().UTC()
		b.CompletedAt = &now
	}
	return nil
}

// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
func (s *SimulationBatchStore) GetByID(_ context.Context, batchID string) (*domain.SimulationBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[batchID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyBatch(b), nil
}

// List returns all batches, newest first.
func (s *SimulationBatchStore) List(_ context.Context) ([]*domain.SimulationBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SimulationBatch, 0, len(s.data))
	for _, b := range s.data {
		result = append(result, copyBatch(b))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].BatchID < result[j].BatchID
	})
	return result, nil
}

var _ storage.SimulationBatchStore = (*SimulationBatchStore)(nil)
