package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/distribution"
	"rmultiple-lab/internal/domain"
)

// pcgIncrement is the second PCG word; the first is the session seed.
const pcgIncrement = 0x9e3779b97f4a7c15

// ErrCorruptSnapshot is returned when a stored session cannot be restored.
var ErrCorruptSnapshot = errors.New("corrupt session snapshot")

// Session is a live simulated account.
// All methods are safe for concurrent use; mutations are serialized.
type Session struct {
	mu    sync.Mutex
	cfg   Config
	state *domain.Session
	dist  *distribution.Distribution
	src   *rand.PCG
	rng   *rand.Rand
	now   func() time.Time
}

// NewSession creates an un-started session.
func NewSession(id string, cfg Config) *Session {
	now := time.Now().UTC()
	return &Session{
		cfg: cfg,
		state: &domain.Session{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Restore rebuilds a live session from a snapshot, including the position
// of its random stream.
func Restore(snap *domain.Session, cfg Config) (*Session, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrCorruptSnapshot)
	}
	s := &Session{
		cfg:   cfg,
		state: snap.Clone(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	if !snap.Started {
		return s, nil
	}

	dist, err := distribution.FromNormalized(snap.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	src := rand.NewPCG(snap.Seed, pcgIncrement)
	if len(snap.RNGState) > 0 {
		if err := src.UnmarshalBinary(snap.RNGState); err != nil {
			return nil, fmt.Errorf("%w: rng state: %v", ErrCorruptSnapshot, err)
		}
	}
	if s.state.Running.OutcomeCounts == nil {
		s.state.Running.OutcomeCounts = make(map[int]int)
	}
	s.dist = dist
	s.src = src
	s.rng = rand.New(src)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.state.ID
}

// Start initializes the account. Any previous trades are discarded.
// Returns ErrInvalidCapital below the configured minimum and
// ErrInvalidDistribution for a nil distribution; the session is unchanged
// on error.
func (s *Session) Start(initialCapital decimal.Decimal, dist *distribution.Distribution, seed uint64) error {
	if initialCapital.LessThan(s.cfg.MinCapital) {
		return fmt.Errorf("%w: %s is below minimum %s", domain.ErrInvalidCapital, initialCapital, s.cfg.MinCapital)
	}
	if dist == nil {
		return fmt.Errorf("%w: nil distribution", domain.ErrInvalidDistribution)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := rand.NewPCG(seed, pcgIncrement)
	s.src = src
	s.rng = rand.New(src)
	s.dist = dist

	st := s.state
	st.Started = true
	st.InitialCapital = initialCapital
	st.CurrentCapital = initialCapital
	st.Outcomes = dist.Weights()
	st.Sizing = domain.Sizing{}
	st.Trades = nil
	st.Running = newRunningState(initialCapital)
	st.Crashed = false
	st.Seed = seed
	st.RNGState = nil
	st.UpdatedAt = s.now()
	return nil
}

// SetPreset records the preset key the distribution came from.
func (s *Session) SetPreset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PresetKey = key
}

// Reset returns the session to the un-started state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = &domain.Session{
		ID:        s.state.ID,
		CreatedAt: s.state.CreatedAt,
		UpdatedAt: s.now(),
	}
	s.dist = nil
	s.src = nil
	s.rng = nil
}

// Started reports whether the session has been started.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Started
}

// Crashed reports whether the account has crashed.
func (s *Session) Crashed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Crashed
}

// Snapshot returns a deep copy of the session for persistence.
func (s *Session) Snapshot() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *domain.Session {
	snap := s.state.Clone()
	if s.src != nil {
		// PCG.MarshalBinary never fails.
		state, _ := s.src.MarshalBinary()
		snap.RNGState = state
	}
	return snap
}

// checkTradable returns the rejection for a session that cannot trade.
func (s *Session) checkTradable() error {
	if !s.state.Started {
		return domain.ErrSessionNotStarted
	}
	if s.state.Crashed {
		return domain.ErrAlreadyCrashed
	}
	return nil
}
