package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// PickGuard serializes random picks per session across replicas (Redis).
type PickGuard interface {
	// Acquire reports false when another pick for code is in flight.
	Acquire(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// RestaurantOptions tunes a RestaurantService. Zero values select defaults.
type RestaurantOptions struct {
	// RequireFirstSubmitter makes PickRandom enforce CanRequestRandom.
	RequireFirstSubmitter bool
	Guard                 PickGuard
	Picker                Picker
	Publisher             ports.EventPublisher
}

// RestaurantService implements the restaurant ledger, the random pick and
// the first-submitter policy.
type RestaurantService struct {
	sessions    ports.SessionRepository
	restaurants ports.RestaurantRepository
	opts        RestaurantOptions
	logger      zerolog.Logger
	now         func() time.Time
}

var _ ports.RestaurantService = (*RestaurantService)(nil)

func NewRestaurantService(
	sessions ports.SessionRepository,
	restaurants ports.RestaurantRepository,
	opts RestaurantOptions,
	logger zerolog.Logger,
) *RestaurantService {
	if opts.Picker == nil {
		opts.Picker = rand.IntN
	}
	if opts.Publisher == nil {
		opts.Publisher = nopPublisher{}
	}
	return &RestaurantService{
		sessions:    sessions,
		restaurants: restaurants,
		opts:        opts,
		logger:      logger,
		now:         utcNow,
	}
}

// Submit appends a restaurant to an ACTIVE session's ledger. Name and
// submitter are stored as given, trimmed; the submitter is later compared
// against usernames, so it must not be rewritten.
func (s *RestaurantService) Submit(ctx context.Context, in ports.SubmitRestaurantInput) (*domain.Restaurant, error) {
	name := strings.TrimSpace(in.RestaurantName)
	submitter := strings.TrimSpace(in.SubmittedBy)
	if name == "" || submitter == "" {
		return nil, fmt.Errorf("submit restaurant: %w: restaurant name and submitter are required", domain.ErrInvalidArgument)
	}

	session, err := s.sessions.FindByCode(ctx, in.SessionCode)
	if err != nil {
		return nil, fmt.Errorf("submit restaurant: %w", err)
	}
	if session.IsLocked() {
		return nil, fmt.Errorf("submit restaurant: %w", domain.ErrSessionLocked)
	}

	created, err := s.restaurants.Create(ctx, &domain.Restaurant{
		Name:        name,
		SubmittedBy: submitter,
		SessionID:   session.ID,
		SubmittedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("submit restaurant: %w", err)
	}

	s.logger.Info().
		Str("session_code", session.Code).
		Int64("restaurant_id", created.ID).
		Str("submitted_by", created.SubmittedBy).
		Msg("restaurant submitted")
	s.publish(ctx, domain.SessionEvent{
		Type:         domain.EventRestaurantSubmitted,
		SessionCode:  session.Code,
		Actor:        created.SubmittedBy,
		RestaurantID: created.ID,
		Restaurant:   created.Name,
		OccurredAt:   created.SubmittedAt,
	})
	return created, nil
}

func (s *RestaurantService) List(ctx context.Context, code string) ([]*domain.Restaurant, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	list, err := s.restaurants.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return list, nil
}

func (s *RestaurantService) Count(ctx context.Context, code string) (int64, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	n, err := s.restaurants.CountBySession(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

// PickRandom selects one ledger entry uniformly at random, locks the session
// with that entry recorded as the selection and returns it. The lock is a
// compare-and-set in the store, so of two racing picks only one wins.
func (s *RestaurantService) PickRandom(ctx context.Context, code, requester string) (*domain.Restaurant, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("pick random: %w", err)
	}
	if session.IsLocked() {
		return nil, fmt.Errorf("pick random: %w", domain.ErrSessionLocked)
	}

	if s.opts.RequireFirstSubmitter {
		first, err := s.restaurants.FirstBySession(ctx, session.ID)
		if err != nil && !errors.Is(err, domain.ErrRestaurantNotFound) {
			return nil, fmt.Errorf("pick random: %w", err)
		}
		if first != nil && first.SubmittedBy != strings.TrimSpace(requester) {
			return nil, fmt.Errorf("pick random: %w: only %q may request the pick", domain.ErrNotAuthorized, first.SubmittedBy)
		}
	}

	if s.opts.Guard != nil {
		release, err := s.acquireGuard(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("pick random: %w", err)
		}
		defer release()
	}

	entries, err := s.restaurants.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("pick random: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("pick random: %w", domain.ErrEmptyLedger)
	}

	chosen := entries[s.opts.Picker(len(entries))]

	lockedAt := s.now()
	if _, err := s.sessions.Lock(ctx, code, lockedAt, &chosen.ID); err != nil {
		return nil, fmt.Errorf("pick random: %w", err)
	}

	s.logger.Info().
		Str("session_code", code).
		Str("requester", requester).
		Int64("restaurant_id", chosen.ID).
		Int("candidates", len(entries)).
		Msg("restaurant picked")
	s.publish(ctx, domain.SessionEvent{
		Type:         domain.EventRestaurantPicked,
		SessionCode:  code,
		Actor:        requester,
		RestaurantID: chosen.ID,
		Restaurant:   chosen.Name,
		OccurredAt:   lockedAt,
	})
	return chosen, nil
}

// acquireGuard takes the per-session pick guard. Guard outages are logged
// and the pick proceeds; the store-level lock still decides the winner.
func (s *RestaurantService) acquireGuard(ctx context.Context, code string) (func(), error) {
	noop := func() {}

	ok, err := s.opts.Guard.Acquire(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_code", code).Msg("pick guard unavailable, continuing")
		return noop, nil
	}
	if !ok {
		return noop, domain.ErrPickInProgress
	}

	return func() {
		if err := s.opts.Guard.Release(context.WithoutCancel(ctx), code); err != nil {
			s.logger.Warn().Err(err).Str("session_code", code).Msg("failed to release pick guard")
		}
	}, nil
}

func (s *RestaurantService) FirstSubmitter(ctx context.Context, code string) (string, bool, error) {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("first submitter: %w", err)
	}
	first, err := s.restaurants.FirstBySession(ctx, session.ID)
	if err != nil {
		if errors.Is(err, domain.ErrRestaurantNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("first submitter: %w", err)
	}
	return first.SubmittedBy, true, nil
}

// CanRequestRandom is true iff username submitted the earliest entry.
func (s *RestaurantService) CanRequestRandom(ctx context.Context, code, username string) (bool, error) {
	first, ok, err := s.FirstSubmitter(ctx, code)
	if err != nil {
		return false, err
	}
	return ok && first == strings.TrimSpace(username), nil
}

// Delete removes an entry on behalf of its submitter while the session is ACTIVE.
func (s *RestaurantService) Delete(ctx context.Context, code string, id int64, username string) error {
	session, err := s.sessions.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}

	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if r.SessionID != session.ID {
		return fmt.Errorf("delete restaurant: %w", domain.ErrRestaurantNotFound)
	}
	if session.IsLocked() {
		return fmt.Errorf("delete restaurant: %w", domain.ErrSessionLocked)
	}
	if r.SubmittedBy != strings.TrimSpace(username) {
		return fmt.Errorf("delete restaurant: %w: only the submitter may delete an entry", domain.ErrNotAuthorized)
	}

	if err := s.restaurants.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}

	s.logger.Info().Str("session_code", code).Int64("restaurant_id", id).Str("username", username).Msg("restaurant deleted")
	s.publish(ctx, domain.SessionEvent{
		Type:         domain.EventRestaurantDeleted,
		SessionCode:  code,
		Actor:        username,
		RestaurantID: id,
		Restaurant:   r.Name,
		OccurredAt:   s.now(),
	})
	return nil
}

func (s *RestaurantService) publish(ctx context.Context, ev domain.SessionEvent) {
	if err := s.opts.Publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("event", string(ev.Type)).Str("session_code", ev.SessionCode).Msg("failed to publish event")
	}
}
