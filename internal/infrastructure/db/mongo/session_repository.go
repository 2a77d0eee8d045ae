package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

const collectionSessions = "sessions"

type SessionRepository struct {
	col *mongo.Collection
	seq *sequences
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions), seq: newSequences(db)}
}

// Create inserts a new session document.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionSessions)
	if err != nil {
		return nil, err
	}

	doc := *s
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateSessionCode
		}
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &doc, nil
}

func (r *SessionRepository) FindByCode(ctx context.Context, code string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Session
	err := r.col.FindOne(ctx, bson.M{"session_code": code}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"session_code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count sessions: %w", err)
	}
	return n > 0, nil
}

// Lock flips status ACTIVE -> LOCKED in a single conditional update. When the
// filter misses, a follow-up read tells "unknown" apart from "already locked".
func (r *SessionRepository) Lock(ctx context.Context, code string, lockedAt time.Time, selectedRestaurantID *int64) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"status":    domain.SessionLocked,
		"locked_at": lockedAt.UTC(),
	}
	if selectedRestaurantID != nil {
		set["selected_restaurant_id"] = *selectedRestaurantID
	}

	var s domain.Session
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"session_code": code, "status": domain.SessionActive},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&s)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	if _, findErr := r.FindByCode(ctx, code); findErr != nil {
		return nil, findErr
	}
	return nil, domain.ErrSessionAlreadyLocked
}
