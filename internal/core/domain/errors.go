package domain

import "errors"

// Lookup failures.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

// Caller mistakes.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotAuthorized   = errors.New("user is not authorized for this action")
	ErrUserExists      = errors.New("username already exists")
	ErrEmailExists     = errors.New("email already exists")
)

// State conflicts.
var (
	ErrSessionLocked        = errors.New("session is locked")
	ErrSessionAlreadyLocked = errors.New("session is already locked")
	ErrEmptyLedger          = errors.New("no restaurants submitted")
	ErrPickInProgress       = errors.New("a random pick is already in progress")
)

// ErrCodeGenerationExhausted is returned when no unused session code could
// be produced within the configured number of attempts.
var ErrCodeGenerationExhausted = errors.New("could not generate a unique session code")

// ErrDuplicateSessionCode is returned by stores when a session code is
// already taken at insert time.
var ErrDuplicateSessionCode = errors.New("session code already in use")
