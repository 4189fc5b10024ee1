package clickhouse

import (
	"context"
	"fmt"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SimulationResultStore implements storage.SimulationResultStore using ClickHouse.
type SimulationResultStore struct {
	conn *Conn
}

// NewSimulationResultStore creates a new SimulationResultStore.
func NewSimulationResultStore(conn *Conn) *SimulationResultStore {
	return &SimulationResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SimulationResultStore = (*SimulationResultStore)(nil)

const resultColumns = `
	batch_id, strategy_key, unique_key, simulation_index, seed,
	trades_executed, crashed,
	initial_capital, final_capital, performance_pct, max_capital, max_drawdown_pct, max_performance_pct,
	avg_risk_percent, avg_risk_amount, avg_profit_loss, profit_loss_std,
	max_consecutive_wins, max_consecutive_losses, success_rate, wins, losses,
	equity_curve
`

// InsertBulk adds multiple results in one native batch.
// Fails entire batch on duplicate (batch_id, unique_key, simulation_index).
func (s *SimulationResultStore) InsertBulk(ctx context.Context, results []*domain.SimulationResult) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(results))
	batchIDs := make(map[string]struct{})
	for _, r := range results {
		if r == nil || r.BatchID == "" || r.UniqueKey == "" {
			return storage.ErrInvalidInput
		}
		key := fmt.Sprintf("%s|%s|%d", r.BatchID, r.UniqueKey, r.SimulationIndex)
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		batchIDs[r.BatchID] = struct{}{}
	}

	// MergeTree does not enforce keys; check against stored rows per batch
	for batchID := range batchIDs {
		existing, err := s.existingKeys(ctx, batchID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for key := range existing {
			if _, clash := seen[key]; clash {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO simulation_results ("+resultColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range results {
		curve := r.EquityCurve
		if curve == nil {
			curve = []float64{}
		}
		err := batch.Append(
			r.BatchID, r.StrategyKey, r.UniqueKey, uint32(r.SimulationIndex), r.Seed,
			uint32(r.TradesExecuted), r.Crashed,
			r.InitialCapital, r.FinalCapital, r.PerformancePct, r.MaxCapital, r.MaxDrawdownPct, r.MaxPerformancePct,
			r.AvgRiskPercent, r.AvgRiskAmount, r.AvgProfitLoss, r.ProfitLossStd,
			uint32(r.MaxConsecutiveWins), uint32(r.MaxConsecutiveLosses), r.SuccessRate, uint32(r.Wins), uint32(r.Losses),
			curve,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByBatch retrieves all results of a batch ordered by unique_key, simulation_index.
func (s *SimulationResultStore) GetByBatch(ctx context.Context, batchID string) ([]*domain.SimulationResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+resultColumns+`
		FROM simulation_results
		WHERE batch_id = ?
		ORDER BY unique_key ASC, simulation_index ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query by batch: %w", err)
	}
	defer rows.Close()

	return scanSimulationResults(rows)
}

// GetByBatchKey retrieves results of one strategy configuration ordered by simulation_index.
func (s *SimulationResultStore) GetByBatchKey(ctx context.Context, batchID, uniqueKey string) ([]*domain.SimulationResult, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT `+resultColumns+`
		FROM simulation_results
		WHERE batch_id = ? AND unique_key = ?
		ORDER BY simulation_index ASC
	`, batchID, uniqueKey)
	if err != nil {
		return nil, fmt.Errorf("query by batch key: %w", err)
	}
	defer rows.Close()

	return scanSimulationResults(rows)
}

func (s *SimulationResultStore) existingKeys(ctx context.Context, batchID string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT unique_key, simulation_index
		FROM simulation_results
		WHERE batch_id = ?
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var (
			uniqueKey string
			idx       uint32
		)
		if err := rows.Scan(&uniqueKey, &idx); err != nil {
			return nil, err
		}
		keys[fmt.Sprintf("%s|%s|%d", batchID, uniqueKey, idx)] = struct{}{}
	}
	return keys, rows.Err()
}

func scanSimulationResults(rows chRows) ([]*domain.SimulationResult, error) {
	var results []*domain.SimulationResult

	for rows.Next() {
		var (
			r                domain.SimulationResult
			idx, trades      uint32
			maxWins, maxLoss uint32
			wins, losses     uint32
		)
		err := rows.Scan(
			&r.BatchID, &r.StrategyKey, &r.UniqueKey, &idx, &r.Seed,
			&trades, &r.Crashed,
			&r.InitialCapital, &r.FinalCapital, &r.PerformancePct, &r.MaxCapital, &r.MaxDrawdownPct, &r.MaxPerformancePct,
			&r.AvgRiskPercent, &r.AvgRiskAmount, &r.AvgProfitLoss, &r.ProfitLossStd,
			&maxWins, &maxLoss, &r.SuccessRate, &wins, &losses,
			&r.EquityCurve,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		r.SimulationIndex = int(idx)
		r.TradesExecuted = int(trades)
		r.MaxConsecutiveWins = int(maxWins)
		r.MaxConsecutiveLosses = int(maxLoss)
		r.Wins = int(wins)
		r.Losses = int(losses)
		if len(r.EquityCurve) == 0 {
			r.EquityCurve = nil
		}
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return results, nil
}
