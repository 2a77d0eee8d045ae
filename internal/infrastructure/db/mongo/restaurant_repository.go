package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
	"github.com/eatwhat/eatwhat-api/internal/core/ports"
)

const collectionRestaurants = "restaurants"

// ledgerOrder sorts by submission time, ties broken by insertion ID.
var ledgerOrder = bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}}

// RestaurantRepository stores ledger entries. Mongo has no cross-collection
// conditional insert, so the ACTIVE check on submit is left to the service.
type RestaurantRepository struct {
	col *mongo.Collection
	seq *sequences
}

var _ ports.RestaurantRepository = (*RestaurantRepository)(nil)

func NewRestaurantRepository(db *mongo.Database) *RestaurantRepository {
	return &RestaurantRepository{col: db.Collection(collectionRestaurants), seq: newSequences(db)}
}

func (r *RestaurantRepository) Create(ctx context.Context, in *domain.Restaurant) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx, collectionRestaurants)
	if err != nil {
		return nil, err
	}

	doc := *in
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert restaurant: %w", err)
	}
	return &doc, nil
}

func (r *RestaurantRepository) ListBySession(ctx context.Context, sessionID int64) ([]*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"session_id": sessionID}, options.Find().SetSort(ledgerOrder))
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	list := make([]*domain.Restaurant, 0)
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode restaurants: %w", err)
	}
	return list, nil
}

func (r *RestaurantRepository) CountBySession(ctx context.Context, sessionID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

func (r *RestaurantRepository) FirstBySession(ctx context.Context, sessionID int64) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rest domain.Restaurant
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}, options.FindOne().SetSort(ledgerOrder)).Decode(&rest)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("first restaurant: %w", err)
	}
	return &rest, nil
}

func (r *RestaurantRepository) FindByID(ctx context.Context, id int64) (*domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rest domain.Restaurant
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("find restaurant: %w", err)
	}
	return &rest, nil
}

func (r *RestaurantRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete restaurant: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}
