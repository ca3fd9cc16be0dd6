package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "current_tutors"
)

type CurrentTutorRepository interface {
	ApplyDelta(ctx context.Context, key model.RelationshipKey, delta model.CounterDelta, at time.Time) error
	FindByID(ctx context.Context, id string) (*model.CurrentTutor, error)
	FindByKey(ctx context.Context, key model.RelationshipKey) (*model.CurrentTutor, error)
	ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.CurrentTutor, error)
	CountForUser(ctx context.Context, userID, role string) (int64, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	StudentIDsOfTutor(ctx context.Context, tutorID string) ([]string, error)
	TutorIDsOfStudent(ctx context.Context, studentID string) ([]string, error)
}

type mongoCurrentTutorRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCurrentTutorRepository(cfg *config.Config) CurrentTutorRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCurrentTutorRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// ApplyDelta upserts the relationship for key and moves its counters in a
// single update, so it is safe to call from concurrent transactions.
func (r *mongoCurrentTutorRepository) ApplyDelta(ctx context.Context, key model.RelationshipKey, delta model.CounterDelta, at time.Time) error {
	if delta.IsZero() {
		return nil
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"student_id": key.StudentID, "tutor_id": key.TutorID, "subject": key.Subject}
	_, err := r.collection.UpdateOne(ctx, filter, deltaUpdate(delta, at), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to apply current tutor delta: %w", err)
	}
	return nil
}

func deltaUpdate(d model.CounterDelta, at time.Time) bson.M {
	inc := bson.M{}
	for field, v := range map[string]int{
		"total_sessions_booked":    d.Booked,
		"total_sessions_completed": d.Completed,
		"total_sessions_cancelled": d.Cancelled,
		"total_sessions_attended":  d.Attended,
		"total_sessions_missed":    d.Missed,
	} {
		if v != 0 {
			inc[field] = v
		}
	}

	set := bson.M{"updated_at": at}
	onInsert := bson.M{"created_at": at}
	if d.Activate {
		set["status"] = model.RelationshipActive
	} else {
		onInsert["status"] = model.RelationshipActive
	}
	if d.NextSessionAt != nil {
		set["next_session_at"] = *d.NextSessionAt
	}

	update := bson.M{"$set": set, "$setOnInsert": onInsert}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if d.FirstSessionAt != nil {
		update["$min"] = bson.M{"first_session_at": *d.FirstSessionAt}
	}
	if d.LastSessionAt != nil {
		update["$max"] = bson.M{"last_session_at": *d.LastSessionAt}
	}
	if d.ClearNext && d.NextSessionAt == nil {
		update["$unset"] = bson.M{"next_session_at": ""}
	}
	return update
}

func (r *mongoCurrentTutorRepository) FindByID(ctx context.Context, id string) (*model.CurrentTutor, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByKey matches the subject case-insensitively.
func (r *mongoCurrentTutorRepository) FindByKey(ctx context.Context, key model.RelationshipKey) (*model.CurrentTutor, error) {
	return r.findOne(ctx, bson.M{
		"student_id": key.StudentID,
		"tutor_id":   key.TutorID,
		"subject":    primitive.Regex{Pattern: "^" + regexp.QuoteMeta(key.Subject) + "$", Options: "i"},
	})
}

func (r *mongoCurrentTutorRepository) findOne(ctx context.Context, filter bson.M) (*model.CurrentTutor, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	ct, err := mongodb.FindOne[model.CurrentTutor](ctx, r.collection, filter)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return ct, err
}

func (r *mongoCurrentTutorRepository) ListForUser(ctx context.Context, userID, role string, limit int, offset int64) ([]*model.CurrentTutor, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	sort := bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}
	return mongodb.FindAll[model.CurrentTutor](ctx, r.collection, userFilter(userID, role), mongodb.Page(limit, offset, sort))
}

func (r *mongoCurrentTutorRepository) CountForUser(ctx context.Context, userID, role string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, userFilter(userID, role))
	if err != nil {
		return 0, fmt.Errorf("failed to count current tutors: %w", err)
	}
	return count, nil
}

func (r *mongoCurrentTutorRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"status": status, "updated_at": at}})
	if err != nil {
		return fmt.Errorf("failed to update current tutor status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCurrentTutorRepository) StudentIDsOfTutor(ctx context.Context, tutorID string) ([]string, error) {
	return r.distinct(ctx, "student_id", bson.M{"tutor_id": tutorID})
}

func (r *mongoCurrentTutorRepository) TutorIDsOfStudent(ctx context.Context, studentID string) ([]string, error) {
	return r.distinct(ctx, "tutor_id", bson.M{"student_id": studentID})
}

func (r *mongoCurrentTutorRepository) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func userFilter(userID, role string) bson.M {
	if role == model.RoleTutor {
		return bson.M{"tutor_id": userID}
	}
	return bson.M{"student_id": userID}
}
