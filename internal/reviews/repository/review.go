package repository

import (
	"context"
	"errors"
	"fmt"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "reviews"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	Delete(ctx context.Context, id string) error
	ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error)
	CountByTutor(ctx context.Context, tutorID string) (int64, error)
	ListByStudent(ctx context.Context, studentID string, limit int, offset int64) ([]*model.Review, error)
	CountByStudent(ctx context.Context, studentID string) (int64, error)
	Stats(ctx context.Context) (*model.ReviewStats, error)
}

type mongoReviewRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoReviewRepository(cfg *config.Config) ReviewRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoReviewRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoReviewRepository) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	review.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	review, err := mongodb.FindOne[model.Review](ctx, r.collection, bson.M{"_id": oid})
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return review, err
}

func (r *mongoReviewRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoReviewRepository) ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error) {
	return r.list(ctx, bson.M{"tutor_id": tutorID}, limit, offset)
}

func (r *mongoReviewRepository) CountByTutor(ctx context.Context, tutorID string) (int64, error) {
	return r.count(ctx, bson.M{"tutor_id": tutorID})
}

func (r *mongoReviewRepository) ListByStudent(ctx context.Context, studentID string, limit int, offset int64) ([]*model.Review, error) {
	return r.list(ctx, bson.M{"student_id": studentID}, limit, offset)
}

func (r *mongoReviewRepository) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	return r.count(ctx, bson.M{"student_id": studentID})
}

func (r *mongoReviewRepository) list(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Review, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return mongodb.FindAll[model.Review](ctx, r.collection, filter, mongodb.Page(limit, offset, sort))
}

func (r *mongoReviewRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func (r *mongoReviewRepository) Stats(ctx context.Context) (*model.ReviewStats, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	rows, err := mongodb.Aggregate[model.ReviewStats](ctx, r.collection, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "average", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "total", Value: 1},
			{Key: "average", Value: bson.D{{Key: "$round", Value: bson.A{"$average", 2}}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &model.ReviewStats{}, nil
	}
	return &rows[0], nil
}
