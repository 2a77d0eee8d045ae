package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// sessionSelect projects a session row s joined with its initiator u.
const sessionSelect = `
	SELECT s.id, s.session_code, s.initiator_id, u.username, s.status,
	       s.created_at, s.locked_at, s.selected_restaurant_id`

type SessionRepository struct {
	pool *pgxpool.Pool
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created, err := scanSession(r.pool.QueryRow(ctx, `
		WITH s AS (
			INSERT INTO sessions (session_code, initiator_id, status, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING *
		)`+sessionSelect+`
		FROM s JOIN users u ON u.id = s.initiator_id`,
		s.Code, s.InitiatorID, string(s.Status), s.CreatedAt,
	))
	if err != nil {
		if isUniqueViolation(err, "sessions_session_code_key") {
			return nil, domain.ErrDuplicateSessionCode
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return created, nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, sessionSelect+`
		FROM sessions s JOIN users u ON u.id = s.initiator_id
		WHERE s.session_code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

func (r *SessionRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE session_code = $1)`, code).Scan(&ok); err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return ok, nil
}

// Lock runs the ACTIVE -> LOCKED transition as a single conditional UPDATE.
// Postgres serializes concurrent updates on the row, and the loser re-evaluates
// the WHERE clause against the committed LOCKED status and matches nothing.
func (r *SessionRepository) Lock(ctx context.Context, code string, lockedAt time.Time, selectedRestaurantID *int64) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, `
		WITH s AS (
			UPDATE sessions
			SET status = $2, locked_at = $3, selected_restaurant_id = $4
			WHERE session_code = $1 AND status = $5
			RETURNING *
		)`+sessionSelect+`
		FROM s JOIN users u ON u.id = s.initiator_id`,
		code, string(domain.SessionLocked), lockedAt, selectedRestaurantID, string(domain.SessionActive),
	))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	exists, existsErr := r.ExistsByCode(ctx, code)
	if existsErr != nil {
		return nil, existsErr
	}
	if !exists {
		return nil, domain.ErrSessionNotFound
	}
	return nil, domain.ErrSessionAlreadyLocked
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s      domain.Session
		status string
	)
	if err := row.Scan(
		&s.ID, &s.Code, &s.InitiatorID, &s.Initiator, &status,
		&s.CreatedAt, &s.LockedAt, &s.SelectedRestaurantID,
	); err != nil {
		return nil, err
	}
	s.Status = domain.SessionStatus(status)
	s.CreatedAt = s.CreatedAt.UTC()
	if s.LockedAt != nil {
		t := s.LockedAt.UTC()
		s.LockedAt = &t
	}
	return &s, nil
}
