package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SimulationBatchStore implements storage.SimulationBatchStore using PostgreSQL.
type SimulationBatchStore struct {
	pool *Pool
}

// NewSimulationBatchStore creates a new SimulationBatchStore.
func NewSimulationBatchStore(pool *Pool) *SimulationBatchStore {
	return &SimulationBatchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SimulationBatchStore = (*SimulationBatchStore)(nil)

// Insert adds a new batch. Returns ErrDuplicateKey if batch_id exists.
func (s *SimulationBatchStore) Insert(ctx context.Context, b *domain.SimulationBatch) error {
	if b == nil || b.BatchID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO simulation_batches (
			batch_id, name, status, total_simulations, error_message, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.BatchID, b.Name, string(b.Status), b.TotalSimulations, b.ErrorMessage, b.CreatedAt, b.CompletedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert simulation batch: %w", err)
	}
	return nil
}

// UpdateStatus moves a batch to status. completed_at is set for terminal states.
func (s *SimulationBatchStore) UpdateStatus(ctx context.Context, batchID string, status domain.BatchStatus, errMsg string) error {
	terminal := status == domain.BatchStatusCompleted || status == domain.BatchStatusFailed

	tag, err := s.pool.Exec(ctx, `
		UPDATE simulation_batches
		SET status = $2,
		    error_message = $3,
		    completed_at = CASE WHEN $4 THEN NOW() ELSE completed_at END
		WHERE batch_id = $1
	`, batchID, string(status), errMsg, terminal)
	if err != nil {
		return fmt.Errorf("update simulation batch status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a batch by its ID. Returns ErrNotFound if not exists.
func (s *SimulationBatchStore) GetByID(ctx context.Context, batchID string) (*domain.SimulationBatch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT batch_id, name, status, total_simulations, error_message, created_at, completed_at
		FROM simulation_batches
		WHERE batch_id = $1
	`, batchID)

	b, err := scanBatch(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get simulation batch: %w", err)
	}
	return b, nil
}

// List returns all batches, newest first.
func (s *SimulationBatchStore) List(ctx context.Context) ([]*domain.SimulationBatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT batch_id, name, status, total_simulations, error_message, created_at, completed_at
		FROM simulation_batches
		ORDER BY created_at DESC, batch_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list simulation batches: %w", err)
	}
	defer rows.Close()

	var batches []*domain.SimulationBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation batch row: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate simulation batch rows: %w", err)
	}
	return batches, nil
}

func scanBatch(row pgx.Row) (*domain.SimulationBatch, error) {
	var (
		b      domain.SimulationBatch
		status string
	)
	err := row.Scan(&b.BatchID, &b.Name, &status, &b.TotalSimulations, &b.ErrorMessage, &b.CreatedAt, &b.CompletedAt)
	if err != nil {
		return nil, err
	}
	b.Status = domain.BatchStatus(status)
	b.CreatedAt = b.CreatedAt.UTC()
	if b.CompletedAt != nil {
		t := b.CompletedAt.UTC()
		b.CompletedAt = &t
	}
	return &b, nil
}
