package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

// ImportChunkSize is the number of users written per CreateMany call.
const ImportChunkSize = 10

// UserImportService loads users from parsed import records.
type UserImportService struct {
	repo      ports.UserRepository
	chunkSize int
	logger    zerolog.Logger
	now       func() time.Time
}

var _ ports.UserImporter = (*UserImportService)(nil)

func NewUserImportService(repo ports.UserRepository, logger zerolog.Logger) *UserImportService {
	return &UserImportService{repo: repo, chunkSize: ImportChunkSize, logger: logger, now: utcNow}
}

// Import inserts every record whose username (and email) is not yet known,
// either in the store or earlier in the same batch. Unrecognised roles
// become GUEST. Writes happen in chunks; a failing chunk aborts the run and
// earlier chunks stay committed.
func (s *UserImportService) Import(ctx context.Context, records []ports.UserRecord) (*ports.ImportResult, error) {
	result := &ports.ImportResult{}
	seenUsers := make(map[string]struct{}, len(records))
	seenEmails := make(map[string]struct{}, len(records))
	chunk := make([]*domain.User, 0, s.chunkSize)

	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		if err := s.repo.CreateMany(ctx, chunk); err != nil {
			return fmt.Errorf("import users: write chunk: %w", err)
		}
		result.Imported += len(chunk)
		chunk = chunk[:0]
		return nil
	}

	for _, rec := range records {
		result.Read++

		username := strings.TrimSpace(rec.Username)
		email := strings.TrimSpace(rec.Email)
		if username == "" || email == "" {
			s.logger.Warn().Int("line", rec.Line).Msg("import: missing username or email, skipped")
			result.Skipped++
			continue
		}

		if _, dup := seenUsers[username]; dup {
			result.Skipped++
			continue
		}
		exists, err := s.repo.ExistsByUsername(ctx, username)
		if err != nil {
			return result, fmt.Errorf("import users: %w", err)
		}
		if exists {
			s.logger.Debug().Str("username", username).Msg("import: username exists, skipped")
			result.Skipped++
			continue
		}

		if _, dup := seenEmails[email]; dup {
			result.Skipped++
			continue
		}
		emailTaken, err := s.repo.ExistsByEmail(ctx, email)
		if err != nil {
			return result, fmt.Errorf("import users: %w", err)
		}
		if emailTaken {
			s.logger.Warn().Str("username", username).Msg("import: email already registered, skipped")
			result.Skipped++
			continue
		}

		seenUsers[username] = struct{}{}
		seenEmails[email] = struct{}{}
		chunk = append(chunk, &domain.User{
			Username:  username,
			Email:     email,
			Role:      domain.ParseRole(rec.Role),
			CreatedAt: s.now(),
		})
		if len(chunk) == s.chunkSize {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		return result, err
	}

	s.logger.Info().
		Int("read", result.Read).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("user import finished")
	return result, nil
}
