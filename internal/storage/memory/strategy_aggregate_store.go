package memory

import (
	"context"
	"sort"
	"sync"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// StrategyAggregateStore is an in-memory implementation of storage.StrategyAggregateStore.
type StrategyAggregateStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyAggregate // keyed by batch_id|unique_key
}

// NewStrategyAggregateStore creates a new in-memory strategy aggregate store.
func NewStrategyAggregateStore() *StrategyAggregateStore {
	return &StrategyAggregateStore{
		data: make(map[string]*domain.StrategyAggregate),
	}
}

func aggregateKey(batchID, uniqueKey string) string {
	return batchID + "|" + uniqueKey
}

func validAggregate(a *domain.StrategyAggregate) bool {
	return a != nil && a.BatchID != "" && a.UniqueKey != ""
}

// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
func (s *StrategyAggregateStore) Insert(_ context.Context, a *domain.StrategyAggregate) error {
	if !validAggregate(a) {
		return storage.ErrInvalidInput
	}

	key := aggregateKey(a.BatchID, a.UniqueKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	aggCopy := *a
	s.data[key] = &aggCopy
	return nil
}

// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
func (s *StrategyAggregateStore) InsertBulk(_ context.Context, aggregates []*domain.StrategyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(aggregates))

	// First pass: check for duplicates (existing + intra-batch)
	for _, a := range aggregates {
		if !validAggregate(a) {
			return storage.ErrInvalidInput
		}
		key := aggregateKey(a.BatchID, a.UniqueKey)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, a := range aggregates {
		aggCopy := *a
		s.data[aggregateKey(a.BatchID, a.UniqueKey)] = &aggCopy
	}

	return nil
}

// GetByKey retrieves an aggregate by (batch_id, unique_key). Returns ErrNotFound if not exists.
func (s *StrategyAggregateStore) GetByKey(_ context.Context, batchID, uniqueKey string) (*domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.data[aggregateKey(batchID, uniqueKey)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	aggCopy := *a
	return &aggCopy, nil
}

// GetByBatch retrieves all aggregates of a batch ordered by unique_key.
func (s *StrategyAggregateStore) GetByBatch(_ context.Context, batchID string) ([]*domain.StrategyAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StrategyAggregate
	for _, a := range s.data {
		if a.BatchID == batchID {
			aggCopy := *a
			result = append(result, &aggCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UniqueKey < result[j].UniqueKey
	})

	return result, nil
}

var _ storage.StrategyAggregateStore = (*StrategyAggregateStore)(nil)
