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
)

const (
	CollectionName = "tutor_profiles"
)

// StatusChange moves a profile out of From into To.
type StatusChange struct {
	From       string
	To         string
	Reason     string
	ReviewedBy string
	At         time.Time
}

type TutorProfileRepository interface {
	Create(ctx context.Context, profile *model.TutorProfile) error
	Update(ctx context.Context, profile *model.TutorProfile) error
	FindByID(ctx context.Context, id string) (*model.TutorProfile, error)
	FindByUserID(ctx context.Context, userID string) (*model.TutorProfile, error)
	ListApproved(ctx context.Context, filter model.TutorFilter, limit int, offset int64) ([]*model.TutorProfile, error)
	CountApproved(ctx context.Context, filter model.TutorFilter) (int64, error)
	ListByStatus(ctx context.Context, status string, limit int, offset int64) ([]*model.TutorProfile, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	UpdateStatus(ctx context.Context, id string, change StatusChange) error
	ApplyRating(ctx context.Context, userID string, sumDelta, countDelta int) error
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

type mongoTutorProfileRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTutorProfileRepository(cfg *config.Config) TutorProfileRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTutorProfileRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoTutorProfileRepository) Create(ctx context.Context, profile *model.TutorProfile) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, profile)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert tutor profile: %w", err)
	}
	profile.ID = mongodb.InsertedHex(res)
	return nil
}

// Update writes the editable fields and the status. Rating counters are owned
// by ApplyRating and never overwritten here.
func (r *mongoTutorProfileRepository) Update(ctx context.Context, profile *model.TutorProfile) error {
	oid, err := mongodb.ObjectID(profile.ID)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"headline":         profile.Headline,
		"bio":              profile.Bio,
		"subjects":         profile.Subjects,
		"hourly_rate":      profile.HourlyRate,
		"experience_years": profile.ExperienceYears,
		"education":        profile.Education,
		"languages":        profile.Languages,
		"availability":     profile.Availability,
		"time_zone":        profile.TimeZone,
		"status":           profile.Status,
		"updated_at":       profile.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if profile.RejectionReason == "" {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}

	res, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update tutor profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTutorProfileRepository) FindByID(ctx context.Context, id string) (*model.TutorProfile, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoTutorProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.TutorProfile, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *mongoTutorProfileRepository) findOne(ctx context.Context, filter bson.M) (*model.TutorProfile, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	profile, err := mongodb.FindOne[model.TutorProfile](ctx, r.collection, filter)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return profile, err
}

func (r *mongoTutorProfileRepository) ListApproved(ctx context.Context, filter model.TutorFilter, limit int, offset int64) ([]*model.TutorProfile, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.FindAll[model.TutorProfile](ctx, r.collection, approvedFilter(filter),
		mongodb.Page(limit, offset, sortFor(filter.Sort)))
}

func (r *mongoTutorProfileRepository) CountApproved(ctx context.Context, filter model.TutorFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, approvedFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count tutor profiles: %w", err)
	}
	return count, nil
}

func (r *mongoTutorProfileRepository) ListByStatus(ctx context.Context, status string, limit int, offset int64) ([]*model.TutorProfile, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Oldest first so the review queue is worked in submission order.
	return mongodb.FindAll[model.TutorProfile](ctx, r.collection, bson.M{"status": status},
		mongodb.Page(limit, offset, bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}}))
}

func (r *mongoTutorProfileRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count tutor profiles: %w", err)
	}
	return count, nil
}

func (r *mongoTutorProfileRepository) UpdateStatus(ctx context.Context, id string, change StatusChange) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{
		"status":      change.To,
		"reviewed_by": change.ReviewedBy,
		"reviewed_at": change.At,
		"updated_at":  change.At,
	}
	update := bson.M{"$set": set}
	if change.Reason != "" {
		set["rejection_reason"] = change.Reason
	} else {
		update["$unset"] = bson.M{"rejection_reason": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": change.From}, update)
	if err != nil {
		return fmt.Errorf("failed to update tutor profile status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// ApplyRating adjusts the rating counters and recomputes the average in one
// pipeline update so concurrent reviews cannot lose increments.
func (r *mongoTutorProfileRepository) ApplyRating(ctx context.Context, userID string, sumDelta, countDelta int) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"rating_sum":   bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating_sum", 0}}, sumDelta}}}},
			"rating_count": bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$rating_count", 0}}, countDelta}}}},
			"updated_at":   mongodb.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"rating_average": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$rating_count", 0}},
				bson.M{"$round": bson.A{bson.M{"$divide": bson.A{"$rating_sum", "$rating_count"}}, 2}},
				0,
			}},
		}}},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to apply rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTutorProfileRepository) StatusCounts(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.CountBy(ctx, r.collection, "status")
}

func approvedFilter(f model.TutorFilter) bson.M {
	filter := bson.M{"status": model.ProfileStatusApproved}
	if f.Subject != "" {
		filter["subjects"] = exactFold(f.Subject)
	}
	if f.Language != "" {
		filter["languages"] = exactFold(f.Language)
	}
	if f.MinRating != nil {
		filter["rating_average"] = bson.M{"$gte": *f.MinRating}
	}
	if f.MaxRate != nil {
		filter["hourly_rate"] = bson.M{"$lte": *f.MaxRate}
	}
	return filter
}

func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func sortFor(sort string) bson.D {
	switch sort {
	case model.TutorSortRateAsc:
		return bson.D{{Key: "hourly_rate", Value: 1}, {Key: "_id", Value: 1}}
	case model.TutorSortRateDesc:
		return bson.D{{Key: "hourly_rate", Value: -1}, {Key: "_id", Value: 1}}
	case model.TutorSortNewest:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "rating_average", Value: -1}, {Key: "rating_count", Value: -1}, {Key: "_id", Value: 1}}
	}
}
