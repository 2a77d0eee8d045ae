package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// DefaultCodeAttempts bounds how many candidate codes CreateSession tries.
const DefaultCodeAttempts = 10

// CodeGenerator produces candidate session codes.
type CodeGenerator func() string

// UUIDCode takes the first six hex digits of a random UUID, upper-cased.
func UUIDCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:domain.SessionCodeLength])
}

// SessionOptions tunes a SessionService. Zero values select defaults.
type SessionOptions struct {
	MaxCodeAttempts int
	Codes           CodeGenerator
	Publisher       ports.EventPublisher
}

// SessionService implements the session lifecycle.
type SessionService struct {
	sessions    ports.SessionRepository
	users       ports.UserRepository
	publisher   ports.EventPublisher
	codes       CodeGenerator
	maxAttempts int
	logger      zerolog.Logger
	now         func() time.Time
}

var _ ports.SessionService = (*SessionService)(nil)

func NewSessionService(
	sessions ports.SessionRepository,
	users ports.UserRepository,
	opts SessionOptions,
	logger zerolog.Logger,
) *SessionService {
	if opts.MaxCodeAttempts <= 0 {
		opts.MaxCodeAttempts = DefaultCodeAttempts
	}
	if opts.Codes == nil {
		opts.Codes = UUIDCode
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	return &SessionService{
		sessions:    sessions,
		users:       users,
		publisher:   opts.Publisher,
		codes:       opts.Codes,
		maxAttempts: opts.MaxCodeAttempts,
		logger:      logger,
		now:         utcNow,
	}
}

// CreateSession opens a new ACTIVE session owned by username.
// Only existing SESSION_INITIATOR users may do this.
func (s *SessionService) CreateSession(ctx context.Context, username string) (*domain.Session, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("create session: %w: user %q does not exist", domain.ErrNotAuthorized, username)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	if !user.CanInitiateSession() {
		return nil, fmt.Errorf("create session: %w: user %q cannot initiate sessions", domain.ErrNotAuthorized, username)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code := s.codes()

		taken, err := s.sessions.ExistsByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		if taken {
			s.logger.Warn().Str("session_code", code).Int("attempt", attempt).Msg("session code collision")
			continue
		}

		created, err := s.sessions.Create(ctx, &domain.Session{
			Code:        code,
			InitiatorID: user.ID,
			Initiator:   user.Username,
			Status:      domain.SessionActive,
			CreatedAt:   s.now(),
		})
		if errors.Is(err, domain.ErrDuplicateSessionCode) {
			s.logger.Warn().Str("session_code", code).Int("attempt", attempt).Msg("session code taken on insert")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

		s.logger.Info().Str("session_code", created.Code).Str("initiator", user.Username).Msg("session created")
		s.publish(ctx, domain.SessionEvent{
			Type:        domain.EventSessionCreated,
			SessionCode: created.Code,
			Actor:       user.Username,
			OccurredAt:  created.CreatedAt,
		})
		return created, nil
	}

	return nil, fmt.Errorf("create session: %w after %d attempts", domain.ErrCodeGenerationExhausted, s.maxAttempts)
}

func (s *SessionService) GetSession(ctx context.Context, code string) (*domain.Session, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// IsLocked reports false for unknown codes.
func (s *SessionService) IsLocked(ctx context.Context, code string) (bool, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("is locked: %w", err)
	}
	return session.IsLocked(), nil
}

// LockSession closes the session without selecting a restaurant.
func (s *SessionService) LockSession(ctx context.Context, code string) (*domain.Session, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}
	if session.IsLocked() {
		return nil, fmt.Errorf("lock session: %w", domain.ErrSessionAlreadyLocked)
	}

	lockedAt := s.now()
	locked, err := s.sessions.Lock(ctx, code, lockedAt, nil)
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	s.logger.Info().Str("session_code", code).Msg("session locked")
	s.publish(ctx, domain.SessionEvent{
		Type:        domain.EventSessionLocked,
		SessionCode: code,
		OccurredAt:  lockedAt,
	})
	return locked, nil
}

func (s *SessionService) publish(ctx context.Context, ev domain.SessionEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", string(ev.Type)).Str("session_code", ev.SessionCode).Msg("failed to publish event")
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.SessionEvent) error { return nil }
