// Package app wires configuration, storage and services together for the
// command line entry points.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rmultiple-lab/internal/config"
	"rmultiple-lab/internal/storage"
	chstore "rmultiple-lab/internal/storage/clickhouse"
	"rmultiple-lab/internal/storage/memory"
	"rmultiple-lab/internal/storage/migrations"
	pgstore "rmultiple-lab/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Sessions   storage.SessionStore
	Batches    storage.SimulationBatchStore
	Results    storage.SimulationResultStore
	Aggregates storage.StrategyAggregateStore

	closers []func()
}

// Close releases backend connections in reverse order of opening.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// MemoryStores returns stores that keep everything in process memory.
func MemoryStores() *Stores {
	return &Stores{
		Sessions:   memory.NewSessionStore(),
		Batches:    memory.NewSimulationBatchStore(),
		Results:    memory.NewSimulationResultStore(),
		Aggregates: memory.NewStrategyAggregateStore(),
	}
}

// OpenStores connects the configured backends and applies migrations.
// Sessions and batches go to PostgreSQL for the postgres backend; results
// and aggregates go to ClickHouse whenever a ClickHouse DSN is set.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Stores, error) {
	stores := MemoryStores()

	if cfg.Backend == "postgres" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		stores.closers = append(stores.closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			stores.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.Sessions = pgstore.NewSessionStore(pool)
		stores.Batches = pgstore.NewSimulationBatchStore(pool)
		logger.Info("postgres storage ready")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			stores.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.closers = append(stores.closers, func() { _ = conn.Close() })

		stores.Results = chstore.NewSimulationResultStore(conn)
		stores.Aggregates = chstore.NewStrategyAggregateStore(conn)
		logger.Info("clickhouse storage ready")
	}

	return stores, nil
}
