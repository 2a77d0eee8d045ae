package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// UserService implements the user directory.
type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
	now    func() time.Time
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: utcNow}
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *UserService) UserExists(ctx context.Context, username string) (bool, error) {
	ok, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return ok, nil
}

// CanInitiateSession reports whether username exists and holds the
// SESSION_INITIATOR role. A missing user is not an error.
func (s *UserService) CanInitiateSession(ctx context.Context, username string) (bool, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("can initiate session: %w", err)
	}
	return user.CanInitiateSession(), nil
}

func (s *UserService) ValidateUser(ctx context.Context, username string) (*ports.UserValidation, error) {
	result := &ports.UserValidation{Username: username}

	user, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("validate user: %w", err)
	}

	result.Exists = true
	result.CanInitiateSession = user.CanInitiateSession()
	return result, nil
}

// CreateUser registers a single user. Username and email must both be unused.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("create user: %w: username and email are required", domain.ErrInvalidArgument)
	}

	role := domain.Role(strings.ToUpper(strings.TrimSpace(in.Role)))
	if in.Role == "" {
		role = domain.RoleGuest
	}
	if !role.Valid() {
		return nil, fmt.Errorf("create user: %w: unknown role %q", domain.ErrInvalidArgument, in.Role)
	}

	if exists, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	} else if exists {
		return nil, fmt.Errorf("create user: %w", domain.ErrUserExists)
	}
	if exists, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	} else if exists {
		return nil, fmt.Errorf("create user: %w", domain.ErrEmailExists)
	}

	created, err := s.repo.Create(ctx, &domain.User{
		Username:  username,
		Email:     email,
		Role:      role,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("username", created.Username).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

func utcNow() time.Time {
	return time.Now().UTC()
}
