package ports

import (
	"context"
	"time"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
)

// UserRepository defines persistence operations for the user directory.
type UserRepository interface {
	// Create stores a new user and returns it with its assigned ID.
	// Returns domain.ErrUserExists or domain.ErrEmailExists on a unique violation.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// CreateMany stores a batch of users. IDs are assigned in order.
	CreateMany(ctx context.Context, users []*domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// List returns every user ordered by ID.
	List(ctx context.Context) ([]*domain.User, error)
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	// Create stores a new session. Returns domain.ErrDuplicateSessionCode
	// when the code was taken concurrently.
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
	FindByCode(ctx context.Context, code string) (*domain.Session, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Lock atomically moves an ACTIVE session to LOCKED, recording lockedAt
	// and the optional selected restaurant. Exactly one concurrent caller
	// succeeds; the others get domain.ErrSessionAlreadyLocked.
	Lock(ctx context.Context, code string, lockedAt time.Time, selectedRestaurantID *int64) (*domain.Session, error)
}

// RestaurantRepository defines persistence operations for a session's ledger.
type RestaurantRepository interface {
	// Create appends a restaurant to the ledger of r.SessionID. Stores that can
	// check the session status in the same statement return domain.ErrSessionLocked
	// when the session is no longer ACTIVE.
	Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error)
	// ListBySession returns the ledger ordered by submission time, then ID.
	ListBySession(ctx context.Context, sessionID int64) ([]*domain.Restaurant, error)
	CountBySession(ctx context.Context, sessionID int64) (int64, error)
	// FirstBySession returns the earliest submission or domain.ErrRestaurantNotFound.
	FirstBySession(ctx context.Context, sessionID int64) (*domain.Restaurant, error)
	FindByID(ctx context.Context, id int64) (*domain.Restaurant, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher delivers session lifecycle events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
}
