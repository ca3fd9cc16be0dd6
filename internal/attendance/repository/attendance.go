package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "attendance"
)

type AttendanceRepository interface {
	// Upsert writes the record for its booking and returns the status it
	// replaced, or "" when the record is new.
	Upsert(ctx context.Context, record *model.Attendance) (string, error)
	FindByBookingID(ctx context.Context, bookingID string) (*model.Attendance, error)
	List(ctx context.Context, filter model.AttendanceFilter, limit int, offset int64) ([]*model.Attendance, error)
	Count(ctx context.Context, filter model.AttendanceFilter) (int64, error)
	CountByStatus(ctx context.Context, filter model.AttendanceFilter) (map[string]int64, error)
}

type mongoAttendanceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoAttendanceRepository(cfg *config.Config) AttendanceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAttendanceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoAttendanceRepository) Upsert(ctx context.Context, record *model.Attendance) (string, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     record.Status,
			"notes":      record.Notes,
			"marked_by":  record.MarkedBy,
			"marked_at":  record.MarkedAt,
			"updated_at": record.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"student_id":   record.StudentID,
			"tutor_id":     record.TutorID,
			"subject":      record.Subject,
			"session_date": record.SessionDate,
			"created_at":   record.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before).
		SetProjection(bson.M{"status": 1})

	var previous struct {
		Status string `bson:"status"`
	}
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"booking_id": record.BookingID}, update, opts).Decode(&previous)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return previous.Status, nil
}

func (r *mongoAttendanceRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.Attendance, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	record, err := mongodb.FindOne[model.Attendance](ctx, r.collection, bson.M{"booking_id": bookingID})
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return record, err
}

func (r *mongoAttendanceRepository) List(ctx context.Context, filter model.AttendanceFilter, limit int, offset int64) ([]*model.Attendance, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "session_date", Value: -1}, {Key: "_id", Value: 1}}
	return mongodb.FindAll[model.Attendance](ctx, r.collection, buildFilter(filter), mongodb.Page(limit, offset, sort))
}

func (r *mongoAttendanceRepository) Count(ctx context.Context, filter model.AttendanceFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return count, nil
}

func (r *mongoAttendanceRepository) CountByStatus(ctx context.Context, filter model.AttendanceFilter) (map[string]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	type group struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	rows, err := mongodb.Aggregate[group](ctx, r.collection, mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func buildFilter(f model.AttendanceFilter) bson.M {
	filter := bson.M{}
	if f.StudentID != "" {
		filter["student_id"] = f.StudentID
	}
	if f.TutorID != "" {
		filter["tutor_id"] = f.TutorID
	}
	if f.Subject != "" {
		filter["subject"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(f.Subject) + "$", Options: "i"}
	}
	return filter
}
