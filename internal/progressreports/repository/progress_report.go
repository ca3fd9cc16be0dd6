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
	CollectionName = "progress_reports"
)

type ProgressReportRepository interface {
	Create(ctx context.Context, report *model.ProgressReport) error
	FindByID(ctx context.Context, id string) (*model.ProgressReport, error)
	Update(ctx context.Context, report *model.ProgressReport) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.ProgressReport, error)
	CountForUser(ctx context.Context, userID, role string) (int64, error)
}

type mongoProgressReportRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoProgressReportRepository(cfg *config.Config) ProgressReportRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoProgressReportRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoProgressReportRepository) Create(ctx context.Context, report *model.ProgressReport) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert progress report: %w", err)
	}
	report.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoProgressReportRepository) FindByID(ctx context.Context, id string) (*model.ProgressReport, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	report, err := mongodb.FindOne[model.ProgressReport](ctx, r.collection, bson.M{"_id": oid})
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return report, err
}

func (r *mongoProgressReportRepository) Update(ctx context.Context, report *model.ProgressReport) error {
	oid, err := mongodb.ObjectID(report.ID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"progress_rating":       report.ProgressRating,
		"strengths":             report.Strengths,
		"areas_for_improvement": report.AreasForImprovement,
		"goals":                 report.Goals,
		"comments":              report.Comments,
		"updated_at":            report.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update progress report: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProgressReportRepository) Delete(ctx context.Context, id string) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete progress report: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoProgressReportRepository) ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.ProgressReport, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "period_end", Value: -1}, {Key: "_id", Value: -1}}
	return mongodb.FindAll[model.ProgressReport](ctx, r.collection, userFilter(userID, role), mongodb.Page(limit, offset, sort))
}

func (r *mongoProgressReportRepository) CountForUser(ctx context.Context, userID, role string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID, role))
	if err != nil {
		return 0, fmt.Errorf("failed to count progress reports: %w", err)
	}
	return count, nil
}

func userFilter(userID, role string) bson.M {
	if role == model.RoleTutor {
		return bson.M{"tutor_id": userID}
	}
	return bson.M{"student_id": userID}
}
