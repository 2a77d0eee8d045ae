package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

const (
	restaurantColumns = `id, restaurant_name, submitted_by, session_id, submitted_at`
	ledgerOrder       = `ORDER BY submitted_at ASC, id ASC`
)

type RestaurantRepository struct {
	pool *pgxpool.Pool
}

var _ ports.RestaurantRepository = (*RestaurantRepository)(nil)

func NewRestaurantRepository(pool *pgxpool.Pool) *RestaurantRepository {
	return &RestaurantRepository{pool: pool}
}

// Create inserts only while the owning session is ACTIVE. FOR SHARE holds the
// session row so a concurrent lock waits for the insert, or wins and makes
// the SELECT come back empty.
func (r *RestaurantRepository) Create(ctx context.Context, in *domain.Restaurant) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	created, err := scanRestaurant(r.pool.QueryRow(ctx, `
		INSERT INTO restaurants (restaurant_name, submitted_by, session_id, submitted_at)
		SELECT $1, $2, s.id, $4
		FROM sessions s
		WHERE s.id = $3 AND s.status = $5
		FOR SHARE
		RETURNING `+restaurantColumns,
		in.Name, in.SubmittedBy, in.SessionID, in.SubmittedAt, string(domain.SessionActive),
	))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`, in.SessionID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}
	if !exists {
		return nil, domain.ErrSessionNotFound
	}
	return nil, domain.ErrSessionLocked
}

func (r *RestaurantRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE session_id = $1 `+ledgerOrder, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Restaurant, 0)
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		list = append(list, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return list, nil
}

func (r *RestaurantRepository) CountBySession(ctx context.Context, sessionID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM restaurants WHERE session_id = $1`, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

func (r *RestaurantRepository) FirstBySession(ctx context.Context, sessionID int64) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rest, err := scanRestaurant(r.pool.QueryRow(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE session_id = $1 `+ledgerOrder+` LIMIT 1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("first restaurant: %w", err)
	}
	return rest, nil
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rest, err := scanRestaurant(r.pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return rest, nil
}

func (r *RestaurantRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	if err := row.Scan(&rest.ID, &rest.Name, &rest.SubmittedBy, &rest.SessionID, &rest.SubmittedAt); err != nil {
		return nil, err
	}
	rest.SubmittedAt = rest.SubmittedAt.UTC()
	return &rest, nil
}
