package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionCounters = "counters"

// sequences hands out auto-incrementing int64 IDs per collection, stored as
// {_id: <name>, seq: <last issued>} documents.
type sequences struct {
	col *mongo.Collection
}

func newSequences(db *mongo.Database) *sequences {
	return &sequences{col: db.Collection(collectionCounters)}
}

// reserve atomically allocates n consecutive IDs and returns the first.
func (s *sequences) reserve(ctx context.Context, name string, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve %s ids: count must be positive", name)
	}

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(n)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("reserve %s ids: %w", name, err)
	}
	return doc.Seq - int64(n) + 1, nil
}

func (s *sequences) next(ctx context.Context, name string) (int64, error) {
	return s.reserve(ctx, name, 1)
}
