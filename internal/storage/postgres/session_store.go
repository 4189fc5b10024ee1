package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
// Scalar fields are columns; trades, running state, sizing and outcomes are JSONB.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

// sessionDocs holds the JSONB encoded parts of a session.
type sessionDocs struct {
	outcomes, sizing, running, trades []byte
}

func encodeDocs(s *domain.Session) (sessionDocs, error) {
	var (
		d   sessionDocs
		err error
	)
	if d.outcomes, err = json.Marshal(s.Outcomes); err != nil {
		return d, fmt.Errorf("encode outcomes: %w", err)
	}
	if d.sizing, err = json.Marshal(s.Sizing); err != nil {
		return d, fmt.Errorf("encode sizing: %w", err)
	}
	if d.running, err = json.Marshal(s.Running); err != nil {
		return d, fmt.Errorf("encode running state: %w", err)
	}
	trades := s.Trades
	if trades == nil {
		trades = []domain.Trade{}
	}
	if d.trades, err = json.Marshal(trades); err != nil {
		return d, fmt.Errorf("encode trades: %w", err)
	}
	return d, nil
}

// Save inserts or replaces a session snapshot.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	if sess == nil || sess.ID == "" {
		return storage.ErrInvalidInput
	}

	docs, err := encodeDocs(sess)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO sessions (
			id, started, initial_capital, current_capital, preset_key,
			outcomes, sizing, running, trades,
			crashed, seed, rng_state, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14
		)
		ON CONFLICT (id) DO UPDATE
		SET started = EXCLUDED.started,
		    initial_capital = EXCLUDED.initial_capital,
		    current_capital = EXCLUDED.current_capital,
		    preset_key = EXCLUDED.preset_key,
		    outcomes = EXCLUDED.outcomes,
		    sizing = EXCLUDED.sizing,
		    running = EXCLUDED.running,
		    trades = EXCLUDED.trades,
		    crashed = EXCLUDED.crashed,
		    seed = EXCLUDED.seed,
		    rng_state = EXCLUDED.rng_state,
		    updated_at = EXCLUDED.updated_at
	`,
		sess.ID, sess.Started, sess.InitialCapital, sess.CurrentCapital, sess.PresetKey,
		docs.outcomes, docs.sizing, docs.running, docs.trades,
		sess.Crashed, int64(sess.Seed), sess.RNGState, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by its ID. Returns ErrNotFound if not exists.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT
			id, started, initial_capital, current_capital, preset_key,
			outcomes, sizing, running, trades,
			crashed, seed, rng_state, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`, id)

	sess, err := scanSession(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Returns ErrNotFound if not exists.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns all session IDs in ascending order.
func (s *SessionStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM sessions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}
	return ids, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		sess                 domain.Session
		initial, current     decimal.Decimal
		docs                 sessionDocs
		seed                 int64
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&sess.ID, &sess.Started, &initial, &current, &sess.PresetKey,
		&docs.outcomes, &docs.sizing, &docs.running, &docs.trades,
		&sess.Crashed, &seed, &sess.RNGState, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.InitialCapital = initial
	sess.CurrentCapital = current
	sess.Seed = uint64(seed)
	sess.CreatedAt = createdAt.UTC()
	sess.UpdatedAt = updatedAt.UTC()

	if err := json.Unmarshal(docs.outcomes, &sess.Outcomes); err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}
	if err := json.Unmarshal(docs.sizing, &sess.Sizing); err != nil {
		return nil, fmt.Errorf("decode sizing: %w", err)
	}
	if err := json.Unmarshal(docs.running, &sess.Running); err != nil {
		return nil, fmt.Errorf("decode running state: %w", err)
	}
	if err := json.Unmarshal(docs.trades, &sess.Trades); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}
	if len(sess.Trades) == 0 {
		sess.Trades = nil
	}
	return &sess, nil
}
