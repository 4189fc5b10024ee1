// Package simulation runs batches of independent account simulations and
// aggregates them per strategy configuration.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/engine"
	"rmultiple-lab/internal/idhash"
	"rmultiple-lab/internal/metrics"
	"rmultiple-lab/internal/observability"
	"rmultiple-lab/internal/storage"
)

// DefaultWorkers is the worker pool size when none is configured.
const DefaultWorkers = 4

// Runner executes simulation batches.
type Runner struct {
	batchStore  storage.SimulationBatchStore
	resultStore storage.SimulationResultStore
	aggregator  *metrics.Aggregator

	engineCfg engine.Config
	workers   int
	baseSeed  uint64

	logger  *zap.Logger
	metrics *observability.Metrics
	newID   func() string
	now     func() time.Time
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	BatchStore  storage.SimulationBatchStore
	ResultStore storage.SimulationResultStore
	Aggregator  *metrics.Aggregator

	Engine   engine.Config
	Workers  int
	BaseSeed uint64

	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewRunner creates a simulation runner.
func NewRunner(opts RunnerOptions) *Runner {
	r := &Runner{
		batchStore:  opts.BatchStore,
		resultStore: opts.ResultStore,
		aggregator:  opts.Aggregator,
		engineCfg:   opts.Engine,
		workers:     opts.Workers,
		baseSeed:    opts.BaseSeed,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		newID:       uuid.NewString,
		now:         time.Now,
	}
	if r.engineCfg.MaxBatchCount == 0 {
		r.engineCfg = engine.DefaultConfig()
	}
	if r.workers <= 0 {
		r.workers = DefaultWorkers
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Report is the outcome of a finished batch.
type Report struct {
	Batch      *domain.SimulationBatch
	Aggregates []*domain.StrategyAggregate
}

// Run executes every spec of a batch.
// Steps:
//  1. Validate specs (nothing is stored for an invalid request)
//  2. Insert batch as pending, then mark running
//  3. Run NumSimulations sessions per spec on the worker pool
//  4. Persist results per spec
//  5. Compute and store strategy aggregates
//  6. Mark batch completed, or failed with the error message
func (r *Runner) Run(ctx context.Context, name string, specs []domain.SimulationSpec) (*Report, error) {
	start := time.Now()

	// 1. Validate
	plans, total, err := buildPlans(specs)
	if err != nil {
		return nil, err
	}

	// 2. Create batch
	batch := &domain.SimulationBatch{
		BatchID:          r.newID(),
		Name:             name,
		Status:           domain.BatchStatusPending,
		TotalSimulations: total,
		CreatedAt:        r.now().UTC(),
	}
	if batch.Name == "" {
		batch.Name = "Batch " + batch.CreatedAt.Format("2006-01-02 15:04")
	}
	if err := r.batchStore.Insert(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert batch: %w", err)
	}

	log := r.logger.With(zap.String("batch_id", batch.BatchID))
	log.Info("simulation batch started",
		zap.Int("configurations", len(plans)),
		zap.Int("simulations", total),
		zap.Int("workers", r.workers))

	aggregates, runErr := r.execute(ctx, batch.BatchID, plans)

	// 6. Final status survives a cancelled ctx
	statusCtx := context.WithoutCancel(ctx)
	status, msg := domain.BatchStatusCompleted, ""
	if runErr != nil {
		status, msg = domain.BatchStatusFailed, runErr.Error()
	}
	if err := r.batchStore.UpdateStatus(statusCtx, batch.BatchID, status, msg); err != nil {
		log.Error("update batch status", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("update batch status: %w", err)
		}
	}
	if r.metrics != nil {
		r.metrics.RecordBatchRun(string(status), time.Since(start).Seconds(), len(aggregates))
	}

	if runErr != nil {
		log.Error("simulation batch failed", zap.Error(runErr))
		return nil, runErr
	}

	stored, err := r.batchStore.GetByID(statusCtx, batch.BatchID)
	if err != nil {
		return nil, err
	}
	log.Info("simulation batch completed",
		zap.Int("aggregates", len(aggregates)),
		zap.Duration("elapsed", time.Since(start)))
	return &Report{Batch: stored, Aggregates: aggregates}, nil
}

func (r *Runner) execute(ctx context.Context, batchID string, plans []plan) ([]*domain.StrategyAggregate, error) {
	if err := r.batchStore.UpdateStatus(ctx, batchID, domain.BatchStatusRunning, ""); err != nil {
		return nil, fmt.Errorf("mark batch running: %w", err)
	}

	// 3-4. Simulate and persist each configuration
	for _, p := range plans {
		results, err := r.runPlan(ctx, batchID, p)
		if err != nil {
			return nil, err
		}
		if err := r.resultStore.InsertBulk(ctx, results); err != nil {
			return nil, fmt.Errorf("insert results for %s: %w", p.uniqueKey, err)
		}
	}

	// 5. Aggregate
	aggregates, err := r.aggregator.ComputeBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("compute aggregates: %w", err)
	}
	return aggregates, nil
}

// runPlan runs the simulations of one configuration concurrently.
// Each simulation writes only its own slot, so the output order and content
// do not depend on scheduling.
func (r *Runner) runPlan(ctx context.Context, batchID string, p plan) ([]*domain.SimulationResult, error) {
	results := make([]*domain.SimulationResult, p.spec.NumSimulations)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i := range results {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.simulate(gctx, batchID, p, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// simulate runs one independent session to completion or crash.
func (r *Runner) simulate(ctx context.Context, batchID string, p plan, i int) (*domain.SimulationResult, error) {
	seed := idhash.SimulationSeed(r.baseSeed, i, p.index)

	sess := engine.NewSession(fmt.Sprintf("%s/%s/%d", batchID, p.uniqueKey, i), r.engineCfg)
	if err := sess.Start(p.spec.InitialCapital, p.dist, seed); err != nil {
		return nil, err
	}
	sess.SetPreset(p.spec.Preset)

	chunk := min(p.spec.NumTrades, r.engineCfg.MaxBatchCount)
	if _, err := sess.RunChunked(ctx, p.spec.NumTrades, chunk, p.sizer, nil); err != nil {
		return nil, err
	}

	snap := sess.Snapshot()
	res := metrics.Summarize(snap, p.spec.KeepEquityCurve)
	res.BatchID = batchID
	res.StrategyKey = p.spec.StrategyKey
	res.UniqueKey = p.uniqueKey
	res.SimulationIndex = i
	res.Seed = seed

	if r.metrics != nil {
		r.metrics.RecordTrades(res.TradesExecuted, res.Crashed)
		r.metrics.SimulationsRun.WithLabelValues(p.spec.StrategyKey).Inc()
	}
	return res, nil
}
