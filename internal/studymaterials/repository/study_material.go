package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "study_materials"
)

type StudyMaterialRepository interface {
	Create(ctx context.Context, material *model.StudyMaterial) error
	FindByID(ctx context.Context, id string) (*model.StudyMaterial, error)
	Update(ctx context.Context, material *model.StudyMaterial) error
	Delete(ctx context.Context, id string) error
	ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.StudyMaterial, error)
	CountByTutor(ctx context.Context, tutorID string) (int64, error)
	// ListVisibleTo returns materials shared with studentID plus public
	// materials of tutorIDs.
	ListVisibleTo(ctx context.Context, studentID string, tutorIDs []string, limit int, offset int64) ([]*model.StudyMaterial, error)
	CountVisibleTo(ctx context.Context, studentID string, tutorIDs []string) (int64, error)
	Share(ctx context.Context, id string, studentIDs []string, at time.Time) (*model.StudyMaterial, error)
}

type mongoStudyMaterialRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoStudyMaterialRepository(cfg *config.Config) StudyMaterialRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoStudyMaterialRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoStudyMaterialRepository) Create(ctx context.Context, material *model.StudyMaterial) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if material.SharedWith == nil {
		material.SharedWith = []string{}
	}
	res, err := r.collection.InsertOne(ctx, material)
	if err != nil {
		return fmt.Errorf("failed to insert study material: %w", err)
	}
	material.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoStudyMaterialRepository) FindByID(ctx context.Context, id string) (*model.StudyMaterial, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	material, err := mongodb.FindOne[model.StudyMaterial](ctx, r.collection, bson.M{"_id": oid})
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return material, err
}

func (r *mongoStudyMaterialRepository) Update(ctx context.Context, material *model.StudyMaterial) error {
	oid, err := mongodb.ObjectID(material.ID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"title":       material.Title,
		"description": material.Description,
		"subject":     material.Subject,
		"url":         material.URL,
		"type":        material.Type,
		"is_public":   material.IsPublic,
		"updated_at":  material.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update study material: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoStudyMaterialRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete study material: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoStudyMaterialRepository) ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.StudyMaterial, error) {
	return r.list(ctx, bson.M{"tutor_id": tutorID}, limit, offset)
}

func (r *mongoStudyMaterialRepository) CountByTutor(ctx context.Context, tutorID string) (int64, error) {
	return r.count(ctx, bson.M{"tutor_id": tutorID})
}

func (r *mongoStudyMaterialRepository) ListVisibleTo(ctx context.Context, studentID string, tutorIDs []string, limit int, offset int64) ([]*model.StudyMaterial, error) {
	return r.list(ctx, visibleFilter(studentID, tutorIDs), limit, offset)
}

func (r *mongoStudyMaterialRepository) CountVisibleTo(ctx context.Context, studentID string, tutorIDs []string) (int64, error) {
	return r.count(ctx, visibleFilter(studentID, tutorIDs))
}

func (r *mongoStudyMaterialRepository) Share(ctx context.Context, id string, studentIDs []string, at time.Time) (*model.StudyMaterial, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$addToSet": bson.M{"shared_with": bson.M{"$each": studentIDs}},
		"$set":      bson.M{"updated_at": at},
	}
	var material model.StudyMaterial
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&material)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to share study material: %w", err)
	}
	return &material, nil
}

func (r *mongoStudyMaterialRepository) list(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.StudyMaterial, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	return mongodb.FindAll[model.StudyMaterial](ctx, r.collection, filter, mongodb.Page(limit, offset, sort))
}

func (r *mongoStudyMaterialRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count study materials: %w", err)
	}
	return count, nil
}

func visibleFilter(studentID string, tutorIDs []string) bson.M {
	or := bson.A{bson.M{"shared_with": studentID}}
	if len(tutorIDs) > 0 {
		or = append(or, bson.M{"is_public": true, "tutor_id": bson.M{"$in": tutorIDs}})
	}
	return bson.M{"$or": or}
}
