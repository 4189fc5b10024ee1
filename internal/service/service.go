// Package service is the session boundary: every operation loads a session
// from storage, runs it through the engine and saves it back.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rmultiple-lab/internal/distribution"
	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/engine"
	"rmultiple-lab/internal/idhash"
	"rmultiple-lab/internal/metrics"
	"rmultiple-lab/internal/observability"
	"rmultiple-lab/internal/storage"
	"rmultiple-lab/internal/strategy"
)

// ErrSessionNotFound is returned for an unknown session id.
// It is a form of ErrSessionNotStarted.
var ErrSessionNotFound = fmt.Errorf("%w: unknown session", domain.ErrSessionNotStarted)

// Service runs session operations against a SessionStore.
type Service struct {
	store   storage.SessionStore
	cfg     engine.Config
	locks   *keyedLocks
	logger  *zap.Logger
	metrics *observability.Metrics
	newID   func() string
}

// Options contains configuration for creating a Service.
type Options struct {
	Store   storage.SessionStore
	Engine  engine.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// New creates a session service.
func New(opts Options) *Service {
	s := &Service{
		store:   opts.Store,
		cfg:     opts.Engine,
		locks:   newKeyedLocks(),
		logger:  opts.Logger,
		metrics: opts.Metrics,
		newID:   uuid.NewString,
	}
	if s.cfg.MaxBatchCount == 0 {
		s.cfg = engine.DefaultConfig()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// MaxBatchCount returns the largest count accepted by one batch call.
func (s *Service) MaxBatchCount() int {
	return s.cfg.MaxBatchCount
}

// MaxStreamCount returns the largest count accepted by a chunked run.
func (s *Service) MaxStreamCount() int {
	return s.cfg.MaxStreamCount
}

// Presets returns the preset catalog.
func (s *Service) Presets() []PresetInfo {
	presets := distribution.Presets()
	out := make([]PresetInfo, len(presets))
	for i, p := range presets {
		counts := make(map[int]int, len(p.Counts))
		for r, n := range p.Counts {
			counts[r] = n
		}
		out[i] = PresetInfo{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description(),
			Counts:      counts,
			Expectation: p.Expectation(),
		}
	}
	return out
}

// Strategies returns the strategy catalog.
func (s *Service) Strategies() []strategy.Descriptor {
	return strategy.List()
}

// StartSession creates a session, or restarts an existing one with new settings.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (res *StartResult, err error) {
	defer s.record("start_session", time.Now(), &err)

	dist, err := requestDistribution(req)
	if err != nil {
		return nil, err
	}

	id := req.SessionID
	if id == "" {
		id = s.newID()
	}
	seed := idhash.SeedFromID(uuid.NewString())
	if req.Seed != nil {
		seed = *req.Seed
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	sess := engine.NewSession(id, s.cfg)
	prev, err := s.store.Get(ctx, id)
	switch {
	case err == nil:
		if sess, err = engine.Restore(prev, s.cfg); err != nil {
			return nil, fmt.Errorf("restore session %s: %w", id, err)
		}
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	if err := sess.Start(req.InitialCapital, dist, seed); err != nil {
		return nil, err
	}
	if len(req.Outcomes) == 0 {
		sess.SetPreset(presetKey(req.Preset))
	} else {
		sess.SetPreset("")
	}

	if err := s.store.Save(ctx, sess.Snapshot()); err != nil {
		return nil, fmt.Errorf("save session %s: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	s.logger.Info("session started",
		zap.String("session_id", id),
		zap.String("initial_capital", req.InitialCapital.String()),
		zap.Uint64("seed", seed))
	return &StartResult{SessionID: id, Seed: seed}, nil
}

// ExecuteTrade executes one trade at a fixed risk percent.
func (s *Service) ExecuteTrade(ctx context.Context, id string, riskPercent float64) (res *TradeResult, err error) {
	defer s.record("execute_trade", time.Now(), &err)

	sizer, err := strategy.NewFixedSizer(riskPercent)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id, func(sess *engine.Session) error {
		trade, err := sess.ExecuteOne(sizer)
		if err != nil {
			return err
		}
		snap := sess.Snapshot()
		res = &TradeResult{
			Trade:          trade,
			CurrentCapital: snap.CurrentCapital,
			AccountCrashed: snap.Crashed,
			Stats:          metrics.ComputeStats(snap),
			History:        metrics.History(snap),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordTrades(1, res.AccountCrashed)
	}
	return res, nil
}

// ExecuteBatch executes up to count trades at a fixed risk percent.
func (s *Service) ExecuteBatch(ctx context.Context, id string, riskPercent float64, count int) (*BatchResult, error) {
	return s.ExecuteRequest(ctx, id, BatchRequest{Mode: domain.SizingFixed, RiskPercent: riskPercent, Count: count})
}

// ExecuteStrategyBatch executes up to count trades sized by a catalog strategy.
func (s *Service) ExecuteStrategyBatch(ctx context.Context, id, key string, params map[string]float64, count int) (*BatchResult, error) {
	return s.ExecuteRequest(ctx, id, BatchRequest{Mode: domain.SizingStrategy, StrategyKey: key, Params: params, Count: count})
}

// ExecuteRequest executes a batch described by req in a single call.
func (s *Service) ExecuteRequest(ctx context.Context, id string, req BatchRequest) (res *BatchResult, err error) {
	defer s.record("execute_batch", time.Now(), &err)

	sizer, err := newSizer(req)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id, func(sess *engine.Session) error {
		out, err := sess.RunBatch(req.Count, sizer)
		if err != nil {
			return err
		}
		res = batchResult(sess, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterBatch(id, req, res)
	return res, nil
}

// ExecuteChunked executes a batch in chunks and calls onProgress after each one.
// The run stops before the next chunk once ctx is done or onProgress returns
// an error; nothing is saved then. Otherwise the session is saved once,
// after the last chunk.
func (s *Service) ExecuteChunked(ctx context.Context, id string, req BatchRequest, chunk int, onProgress func(Progress) error) (res *BatchResult, err error) {
	defer s.record("execute_chunked", time.Now(), &err)

	sizer, err := newSizer(req)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id, func(sess *engine.Session) error {
		var report func(engine.Progress) error
		if onProgress != nil {
			report = func(p engine.Progress) error {
				return onProgress(Progress{
					TradesExecuted: p.Executed,
					Total:          p.Total,
					AccountCrashed: p.Crashed,
					Stats:          metrics.RunningStats(p.Session),
				})
			}
		}
		out, err := sess.RunChunked(ctx, req.Count, chunk, sizer, report)
		if err != nil {
			return err
		}
		res = batchResult(sess, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.afterBatch(id, req, res)
	return res, nil
}

// Stats returns the statistics and the equity curve of a session.
func (s *Service) Stats(ctx context.Context, id string) (res *StatsResult, err error) {
	defer s.record("stats", time.Now(), &err)

	snap, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !snap.Started {
		return nil, domain.ErrSessionNotStarted
	}
	return &StatsResult{Stats: metrics.ComputeStats(snap), History: metrics.History(snap)}, nil
}

// Restart returns a session to the un-started state.
func (s *Service) Restart(ctx context.Context, id string) (err error) {
	defer s.record("restart", time.Now(), &err)

	err = s.mutate(ctx, id, func(sess *engine.Session) error {
		sess.Reset()
		return nil
	})
	if err == nil {
		s.logger.Info("session restarted", zap.String("session_id", id))
	}
	return err
}

// DeleteSession removes a session from storage.
func (s *Service) DeleteSession(ctx context.Context, id string) (err error) {
	defer s.record("delete_session", time.Now(), &err)

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// mutate runs fn on a restored session under the session lock and saves
// the result. Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, id string, fn func(sess *engine.Session) error) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	snap, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	sess, err := engine.Restore(snap, s.cfg)
	if err != nil {
		return fmt.Errorf("restore session %s: %w", id, err)
	}

	if err := fn(sess); err != nil {
		return err
	}

	if err := s.store.Save(ctx, sess.Snapshot()); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Session, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return snap, nil
}

func (s *Service) afterBatch(id string, req BatchRequest, res *BatchResult) {
	if s.metrics != nil {
		s.metrics.RecordTrades(res.TradesExecuted, res.AccountCrashed)
	}
	s.logger.Debug("batch executed",
		zap.String("session_id", id),
		zap.String("mode", string(req.Mode)),
		zap.Int("trades", res.TradesExecuted),
		zap.Bool("account_crashed", res.AccountCrashed))
}

func (s *Service) record(op string, start time.Time, err *error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, start, *err)
	}
}

func batchResult(sess *engine.Session, out engine.BatchResult) *BatchResult {
	snap := sess.Snapshot()
	return &BatchResult{
		TradesExecuted: out.TradesExecuted,
		CurrentCapital: snap.CurrentCapital,
		AccountCrashed: snap.Crashed,
		Stats:          metrics.ComputeStats(snap),
		History:        metrics.History(snap),
	}
}

// newSizer builds the sizer of a batch request.
func newSizer(req BatchRequest) (strategy.Sizer, error) {
	switch req.Mode {
	case domain.SizingFixed:
		sizer, err := strategy.NewFixedSizer(req.RiskPercent)
		if err != nil {
			return nil, err
		}
		return sizer, nil
	case domain.SizingStrategy:
		sizer, err := strategy.NewStrategySizer(req.StrategyKey, req.Params)
		if err != nil {
			return nil, err
		}
		return sizer, nil
	default:
		return nil, fmt.Errorf("%w: sizing mode %q", domain.ErrInvalidParameter, req.Mode)
	}
}

func requestDistribution(req StartRequest) (*distribution.Distribution, error) {
	if len(req.Outcomes) > 0 {
		return distribution.Normalize(req.Outcomes)
	}
	p, err := distribution.PresetByKey(presetKey(req.Preset))
	if err != nil {
		return nil, err
	}
	return p.Distribution(), nil
}

func presetKey(key string) string {
	if key == "" {
		return distribution.PresetBalanced
	}
	return key
}
