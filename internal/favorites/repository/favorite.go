package repository

import (
	"context"
	"fmt"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionName = "favorites"
)

type FavoriteRepository interface {
	Create(ctx context.Context, favorite *model.Favorite) error
	Delete(ctx context.Context, studentID, tutorID string) error
	Exists(ctx context.Context, studentID, tutorID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string, limit int, offset int64) ([]*model.Favorite, error)
	CountByStudent(ctx context.Context, studentID string) (int64, error)
}

type mongoFavoriteRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoFavoriteRepository(cfg *config.Config) FavoriteRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFavoriteRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoFavoriteRepository) Create(ctx context.Context, favorite *model.Favorite) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, favorite)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	favorite.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoFavoriteRepository) Delete(ctx context.Context, studentID, tutorID string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"student_id": studentID, "tutor_id": tutorID})
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoFavoriteRepository) Exists(ctx context.Context, studentID, tutorID string) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"student_id": studentID, "tutor_id": tutorID})
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

func (r *mongoFavoriteRepository) ListByStudent(ctx context.Context, studentID string, limit int, offset int64) ([]*model.Favorite, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return mongodb.FindAll[model.Favorite](ctx, r.collection, bson.M{"student_id": studentID}, mongodb.Page(limit, offset, sort))
}

func (r *mongoFavoriteRepository) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}
