package storage

import (
	"context"

	"rmultiple-lab/internal/domain"
)

// SessionStore provides access to sessions storage.
// Sessions are the only mutable records: Save replaces the previous version.
type SessionStore interface {
	// Save inserts or replaces a session snapshot.
	Save(ctx context.Context, s *domain.Session) error

	// Get retrieves a session by its ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// List returns all session IDs in ascending order.
	List(ctx context.Context) ([]string, error)
}

// SimulationBatchStore provides access to simulation_batches storage.
type SimulationBatchStore interface {
	// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
	Insert(ctx context.Context, b *domain.SimulationBatch) error

	// UpdateStatus moves a batch to status. completedAt is set for terminal states.
	// Returns ErrNotFound if the batch does not exist.
	UpdateStatus(ctx context.Context, batchID string, status domain.BatchStatus, errMsg string) error

	// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, batchID string) (*domain.SimulationBatch, error)

	// List returns all batches, newest first.
	List(ctx context.Context) ([]*domain.SimulationBatch, error)
}

// SimulationResultStore provides access to simulation_results storage.
type SimulationResultStore interface {
	// InsertBulk adds multiple results atomically.
	// Fails entire batch on duplicate (batch_id, unique_key, simulation_index).
	InsertBulk(ctx context.Context, results []*domain.SimulationResult) error

	// GetByBatch retrieves all results of a batch ordered by unique_key, simulation_index.
	GetByBatch(ctx context.Context, batchID string) ([]*domain.SimulationResult, error)

	// GetByBatchKey retrieves results of one strategy configuration ordered by simulation_index.
	GetByBatchKey(ctx context.Context, batchID, uniqueKey string) ([]*domain.SimulationResult, error)
}

// StrategyAggregateStore provides access to strategy_aggregates storage.
type StrategyAggregateStore interface {
	// Insert adds a new aggregate. Returns ErrDuplicateKey if key exists.
	Insert(ctx context.Context, a *domain.StrategyAggregate) error

	// InsertBulk adds multiple aggregates atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, aggregates []*domain.StrategyAggregate) error

	// GetByKey retrieves an aggregate by (batch_id, unique_key).
	GetByKey(ctx context.Context, batchID, uniqueKey string) (*domain.StrategyAggregate, error)

	// GetByBatch retrieves all aggregates of a batch ordered by unique_key.
	GetByBatch(ctx context.Context, batchID string) ([]*domain.StrategyAggregate, error)
}
