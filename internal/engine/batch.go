package engine

import (
	"context"
	"fmt"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/strategy"
)

// ErrInvalidCount is returned for a batch count outside [1, MaxBatchCount].
var ErrInvalidCount = fmt.Errorf("%w: trade count", domain.ErrInvalidParameter)

// BatchResult summarizes one batch call.
type BatchResult struct {
	TradesExecuted int            `json:"trades_executed"`
	Crashed        bool           `json:"account_crashed"`
	Trades         []domain.Trade `json:"-"`
}

// Progress is reported after each chunk of RunChunked.
type Progress struct {
	Executed int  `json:"executed"`
	Total    int  `json:"total"`
	Crashed  bool `json:"account_crashed"`

	// Session is the state after the chunk. Its Trades share the live
	// history and must not be modified; RNGState is not set.
	Session *domain.Session `json:"-"`
}

// RunBatch executes up to count trades and stops early on a crash.
// Count, start and crash checks all happen before the first trade.
func (s *Session) RunBatch(count int, sizer strategy.Sizer) (BatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runBatchLocked(count, sizer)
}

func (s *Session) runBatchLocked(count int, sizer strategy.Sizer) (BatchResult, error) {
	if count <= 0 || count > s.cfg.MaxBatchCount {
		return BatchResult{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidCount, count, s.cfg.MaxBatchCount)
	}
	if err := s.checkTradable(); err != nil {
		return BatchResult{}, err
	}

	res := BatchResult{Trades: make([]domain.Trade, 0, count)}
	for i := 0; i < count && !s.state.Crashed; i++ {
		res.Trades = append(res.Trades, s.executeLocked(sizer))
	}
	res.TradesExecuted = len(res.Trades)
	res.Crashed = s.state.Crashed
	s.state.Sizing = sizer.Sizing()
	s.state.UpdatedAt = s.now()
	return res, nil
}

// RunChunked executes count trades in chunks of at most chunk and calls
// onProgress after each chunk. The lock is released between chunks so
// readers can observe progress. MaxBatchCount applies per chunk and
// MaxStreamCount to the whole run.
//
// The run stops before the next chunk once ctx is done or onProgress
// returns an error. That error is returned with the result so far; the
// trades of completed chunks stay applied to the session. The result does
// not carry the trades; read them from the session.
func (s *Session) RunChunked(ctx context.Context, count, chunk int, sizer strategy.Sizer, onProgress func(Progress) error) (BatchResult, error) {
	if count <= 0 || (s.cfg.MaxStreamCount > 0 && count > s.cfg.MaxStreamCount) {
		return BatchResult{}, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidCount, count, s.cfg.MaxStreamCount)
	}
	if chunk <= 0 {
		chunk = count
	}

	var total BatchResult
	for total.TradesExecuted < count {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("chunked run stopped after %d trades: %w", total.TradesExecuted, err)
		}
		n := min(chunk, count-total.TradesExecuted)

		s.mu.Lock()
		res, err := s.runBatchLocked(n, sizer)
		var view *domain.Session
		if err == nil && onProgress != nil {
			view = s.progressViewLocked()
		}
		s.mu.Unlock()
		if err != nil {
			// Only the first chunk can be rejected; later ones end on crash.
			if total.TradesExecuted == 0 {
				return BatchResult{}, err
			}
			break
		}

		total.TradesExecuted += res.TradesExecuted
		total.Crashed = res.Crashed
		if onProgress != nil {
			p := Progress{Executed: total.TradesExecuted, Total: count, Crashed: res.Crashed, Session: view}
			if err := onProgress(p); err != nil {
				return total, fmt.Errorf("chunked run stopped after %d trades: %w", total.TradesExecuted, err)
			}
		}
		if res.Crashed {
			break
		}
	}
	return total, nil
}

// progressViewLocked returns a copy of the session that does not copy the
// trade history. The history slice is capped at its length, so later trades
// appended to the session never show through it.
func (s *Session) progressViewLocked() *domain.Session {
	v := *s.state
	v.Trades = s.state.Trades[:len(s.state.Trades):len(s.state.Trades)]
	v.Running.OutcomeCounts = make(map[int]int, len(s.state.Running.OutcomeCounts))
	for r, n := range s.state.Running.OutcomeCounts {
		v.Running.OutcomeCounts[r] = n
	}
	v.RNGState = nil
	return &v
}
