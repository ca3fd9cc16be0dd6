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
)

const (
	CollectionName = "session_feedback"
)

type SessionFeedbackRepository interface {
	Create(ctx context.Context, feedback *model.SessionFeedback) error
	FindByID(ctx context.Context, id string) (*model.SessionFeedback, error)
	FindByBookingID(ctx context.Context, bookingID string) (*model.SessionFeedback, error)
	ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.SessionFeedback, error)
	CountForUser(ctx context.Context, userID, role string) (int64, error)
	// UpdateTutorSection writes the tutor section only if the stored version
	// still equals feedback.Version, returning ErrModified otherwise.
	UpdateTutorSection(ctx context.Context, feedback *model.SessionFeedback) error
	SetStudentFeedback(ctx context.Context, id string, feedback *model.StudentFeedback) error
	// SetHomeworkStatus moves one homework item to status when it is
	// currently in one of from.
	SetHomeworkStatus(ctx context.Context, id, homeworkID string, from []string, status string, at time.Time) error
}

type mongoSessionFeedbackRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSessionFeedbackRepository(cfg *config.Config) SessionFeedbackRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionFeedbackRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoSessionFeedbackRepository) Create(ctx context.Context, feedback *model.SessionFeedback) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, feedback)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert session feedback: %w", err)
	}
	feedback.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoSessionFeedbackRepository) FindByID(ctx context.Context, id string) (*model.SessionFeedback, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoSessionFeedbackRepository) FindByBookingID(ctx context.Context, bookingID string) (*model.SessionFeedback, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

func (r *mongoSessionFeedbackRepository) findOne(ctx context.Context, filter bson.M) (*model.SessionFeedback, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	feedback, err := mongodb.FindOne[model.SessionFeedback](ctx, r.collection, filter)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return feedback, err
}

func (r *mongoSessionFeedbackRepository) ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.SessionFeedback, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "session_date", Value: -1}, {Key: "_id", Value: 1}}
	return mongodb.FindAll[model.SessionFeedback](ctx, r.collection, userFilter(userID, role), mongodb.Page(limit, offset, sort))
}

func (r *mongoSessionFeedbackRepository) CountForUser(ctx context.Context, userID, role string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID, role))
	if err != nil {
		return 0, fmt.Errorf("failed to count session feedback: %w", err)
	}
	return count, nil
}

func (r *mongoSessionFeedbackRepository) UpdateTutorSection(ctx context.Context, feedback *model.SessionFeedback) error {
	oid, err := mongodb.ObjectID(feedback.ID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "version": feedback.Version}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{
		"$set": bson.M{
			"tutor_feedback":  feedback.TutorFeedback,
			"study_materials": feedback.StudyMaterials,
			"homework":        feedback.Homework,
			"updated_at":      feedback.UpdatedAt,
		},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to update session feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("failed to check session feedback: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrModified
	}
	feedback.Version++
	return nil
}

func (r *mongoSessionFeedbackRepository) SetStudentFeedback(ctx context.Context, id string, feedback *model.StudentFeedback) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"student_feedback": feedback,
			"updated_at":       feedback.SubmittedAt,
		},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return fmt.Errorf("failed to save student feedback: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSessionFeedbackRepository) SetHomeworkStatus(ctx context.Context, id, homeworkID string, from []string, status string, at time.Time) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"homework.$.status": status,
		"updated_at":        at,
	}
	switch status {
	case model.HomeworkSubmitted:
		set["homework.$.submitted_at"] = at
	case model.HomeworkReviewed:
		set["homework.$.reviewed_at"] = at
	}

	filter := bson.M{
		"_id":      oid,
		"homework": bson.M{"$elemMatch": bson.M{"id": homeworkID, "status": bson.M{"$in": from}}},
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set, "$inc": bson.M{"version": 1}})
	if err != nil {
		return fmt.Errorf("failed to update homework status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

func userFilter(userID, role string) bson.M {
	if role == model.RoleTutor {
		return bson.M{"tutor_id": userID}
	}
	return bson.M{"student_id": userID}
}
