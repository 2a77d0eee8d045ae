package ports

import (
	"context"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
)

// CreateUserInput is the DTO passed from the transport layer to UserService.
type CreateUserInput struct {
	Username string
	Email    string
	Role     string
}

// UserValidation answers the front-end's "who am I" probe.
type UserValidation struct {
	Username           string
	Exists             bool
	CanInitiateSession bool
}

// UserService exposes the user directory.
type UserService interface {
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetUser(ctx context.Context, username string) (*domain.User, error)
	UserExists(ctx context.Context, username string) (bool, error)
	CanInitiateSession(ctx context.Context, username string) (bool, error)
	ValidateUser(ctx context.Context, username string) (*UserValidation, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error)
}

// UserRecord is one row of a user import file.
type UserRecord struct {
	Line     int
	Username string
	Email    string
	Role     string
}

// ImportResult summarises an import run.
type ImportResult struct {
	Read     int `json:"read"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// UserImporter bulk-loads users, skipping usernames that already exist.
type UserImporter interface {
	Import(ctx context.Context, records []UserRecord) (*ImportResult, error)
}

// SessionService manages the session lifecycle.
type SessionService interface {
	CreateSession(ctx context.Context, username string) (*domain.Session, error)
	GetSession(ctx context.Context, code string) (*domain.Session, error)
	IsLocked(ctx context.Context, code string) (bool, error)
	LockSession(ctx context.Context, code string) (*domain.Session, error)
}

// SubmitRestaurantInput carries a new ledger entry.
type SubmitRestaurantInput struct {
	SessionCode    string
	RestaurantName string
	SubmittedBy    string
}

// RestaurantService manages a session's restaurant ledger and the random pick.
type RestaurantService interface {
	Submit(ctx context.Context, input SubmitRestaurantInput) (*domain.Restaurant, error)
	List(ctx context.Context, code string) ([]*domain.Restaurant, error)
	Count(ctx context.Context, code string) (int64, error)
	// PickRandom chooses one entry uniformly and locks the session.
	PickRandom(ctx context.Context, code, requester string) (*domain.Restaurant, error)
	// FirstSubmitter returns the submitter of the earliest entry; ok is false
	// when the ledger is empty.
	FirstSubmitter(ctx context.Context, code string) (submitter string, ok bool, err error)
	CanRequestRandom(ctx context.Context, code, username string) (bool, error)
	Delete(ctx context.Context, code string, restaurantID int64, username string) error
}

// AuthService issues bearer tokens for directory users.
type AuthService interface {
	IssueToken(ctx context.Context, username string) (string, *domain.User, error)
}
