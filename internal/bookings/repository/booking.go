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
	CollectionName = "bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	HasOverlap(ctx context.Context, tutorID string, start, end time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, change model.BookingStatusChange) (*model.Booking, error)
	NextApprovedStart(ctx context.Context, key model.RelationshipKey, after time.Time) (*time.Time, error)

	StatusCounts(ctx context.Context) (map[string]int64, error)
	TopSubjects(ctx context.Context, limit int) ([]model.CountByKey, error)
	CreatedPerDay(ctx context.Context, since time.Time) ([]model.CountByKey, error)
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	booking.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	booking, err := mongodb.FindOne[model.Booking](ctx, r.collection, bson.M{"_id": oid})
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return booking, err
}

func (r *mongoBookingRepository) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.FindAll[model.Booking](ctx, r.collection, buildFilter(filter),
		mongodb.Page(limit, offset, bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}))
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// HasOverlap reports whether the tutor has a pending or approved booking that
// intersects [start, end).
func (r *mongoBookingRepository) HasOverlap(ctx context.Context, tutorID string, start, end time.Time) (bool, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"tutor_id":   tutorID,
		"status":     bson.M{"$in": model.ActiveBookingStatuses},
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return count > 0, nil
}

// UpdateStatus applies change only while the stored status is one of
// change.From and returns the updated booking.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, change model.BookingStatusChange) (*model.Booking, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{"status": change.To, "updated_at": change.At}
	switch change.To {
	case model.BookingStatusApproved:
		set["approved_at"] = change.At
		if change.MeetingLink != "" {
			set["meeting_link"] = change.MeetingLink
		}
	case model.BookingStatusRejected:
		if change.Reason != "" {
			set["rejection_reason"] = change.Reason
		}
	case model.BookingStatusCancelled:
		set["cancelled_at"] = change.At
		set["cancelled_by"] = change.By
		if change.Reason != "" {
			set["cancellation_reason"] = change.Reason
		}
	case model.BookingStatusCompleted:
		set["completed_at"] = change.At
	}

	filter := bson.M{"_id": oid, "status": bson.M{"$in": change.From}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStatusChanged
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &updated, nil
}

// NextApprovedStart returns the earliest approved session of the relationship
// starting after the given time, or nil.
func (r *mongoBookingRepository) NextApprovedStart(ctx context.Context, key model.RelationshipKey, after time.Time) (*time.Time, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"student_id": key.StudentID,
		"tutor_id":   key.TutorID,
		"subject":    key.Subject,
		"status":     model.BookingStatusApproved,
		"start_time": bson.M{"$gt": after},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: 1}})

	booking, err := mongodb.FindOne[model.Booking](ctx, r.collection, filter, opts)
	if err != nil {
		if errors.Is(err, mongodb.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &booking.StartTime, nil
}

func (r *mongoBookingRepository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.CountBy(ctx, r.collection, "status")
}

func (r *mongoBookingRepository) TopSubjects(ctx context.Context, limit int) ([]model.CountByKey, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.Aggregate[model.CountByKey](ctx, r.collection, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$subject"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	})
}

// CreatedPerDay counts bookings by UTC creation day, oldest day first.
func (r *mongoBookingRepository) CreatedPerDay(ctx context.Context, since time.Time) ([]model.CountByKey, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.Aggregate[model.CountByKey](ctx, r.collection, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	})
}

func buildFilter(f model.BookingFilter) bson.M {
	filter := bson.M{}
	switch f.Role {
	case model.RoleTutor:
		filter["tutor_id"] = f.UserID
	case model.RoleStudent:
		filter["student_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}
