package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoDocuments is returned by FindOne when nothing matched. Repositories
// translate it to their own not-found sentinel.
var ErrNoDocuments = mongo.ErrNoDocuments

func FindOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to find in %s: %w", coll.Name(), err)
	}
	return &out, nil
}

func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]*T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

// Aggregate runs pipeline and decodes every result into T.
func Aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s aggregation: %w", coll.Name(), err)
	}
	return out, nil
}

// CountBy groups the collection by field and counts documents per value.
func CountBy(ctx context.Context, coll *mongo.Collection, field string) (map[string]int64, error) {
	type group struct {
		Key   string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	rows, err := Aggregate[group](ctx, coll, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Page returns find options for one page sorted by sort.
func Page(limit int, offset int64, sort bson.D) *options.FindOptions {
	return options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(sort)
}
