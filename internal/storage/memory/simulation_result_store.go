package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SimulationResultStore is an in-memory implementation of storage.SimulationResultStore.
type SimulationResultStore struct {
	mu      sync.RWMutex
	data    map[string]*domain.SimulationResult // keyed by batch_id|unique_key|index
	byBatch map[string][]string
}

// NewSimulationResultStore creates a new in-memory simulation result store.
func NewSimulationResultStore() *SimulationResultStore {
	return &SimulationResultStore{
		data:    make(map[string]*domain.SimulationResult),
		byBatch: make(map[string][]string),
	}
}

func resultKey(r *domain.SimulationResult) string {
	return fmt.Sprintf("%s|%s|%d", r.BatchID, r.UniqueKey, r.SimulationIndex)
}

func copyResult(r *domain.SimulationResult) *domain.SimulationResult {
	c := *r
	if r.EquityCurve != nil {
		c.EquityCurve = append([]float64(nil), r.EquityCurve...)
	}
	return &c
}

// InsertBulk adds multiple results atomically. Fails entire batch on any duplicate.
func (s *SimulationResultStore) InsertBulk(_ context.Context, results []*domain.SimulationResult) error {
	if len(results) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r == nil || r.BatchID == "" || r.UniqueKey == "" {
			return storage.ErrInvalidInput
		}
		key := resultKey(r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range results {
		key := resultKey(r)
		s.data[key] = copyResult(r)
		s.byBatch[r.BatchID] = append(s.byBatch[r.BatchID], key)
	}
	return nil
}

// GetByBatch retrieves all results of a batch ordered by unique_key, simulation_index.
func (s *SimulationResultStore) GetByBatch(_ context.Context, batchID string) ([]*domain.SimulationResult, error) {
	return s.collect(batchID, func(*domain.SimulationResult) bool { return true }), nil
}

// GetByBatchKey retrieves results of one strategy configuration ordered by simulation_index.
func (s *SimulationResultStore) GetByBatchKey(_ context.Context, batchID, uniqueKey string) ([]*domain.SimulationResult, error) {
	return s.collect(batchID, func(r *domain.SimulationResult) bool { return r.UniqueKey == uniqueKey }), nil
}

func (s *SimulationResultStore) collect(batchID string, keep func(*domain.SimulationResult) bool) []*domain.SimulationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SimulationResult
	for _, key := range s.byBatch[batchID] {
		if r := s.data[key]; keep(r) {
			result = append(result, copyResult(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].UniqueKey != result[j].UniqueKey {
			return result[i].UniqueKey < result[j].UniqueKey
		}
		return result[i].SimulationIndex < result[j].SimulationIndex
	})
	return result
}

var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)
