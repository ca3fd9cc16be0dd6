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
	CollectionName = "users"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
	UpdateProfile(ctx context.Context, id string, set bson.M) error
	SetPassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	TouchLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, filter model.UserFilter) (int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type mongoUserRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID = mongodb.InsertedHex(res)
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	user, err := mongodb.FindOne[model.User](ctx, r.collection, filter)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	return user, err
}

// FindSummaries loads the public projection of every user in ids, keyed by id.
// Unknown and malformed ids are absent from the result.
func (r *mongoUserRepository) FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error) {
	out := make(map[string]*model.UserSummary, len(ids))
	oids := mongodb.ObjectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "role": 1, "avatar_url": 1})
	summaries, err := mongodb.FindAll[model.UserSummary](ctx, r.collection, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		out[s.ID] = s
	}
	return out, nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = mongodb.Now()
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *mongoUserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"password_hash": passwordHash,
		"updated_at":    mongodb.Now(),
	}})
}

func (r *mongoUserRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{
		"is_active":  active,
		"updated_at": mongodb.Now(),
	}})
}

func (r *mongoUserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"last_login_at": at}})
}

func (r *mongoUserRepository) updateOne(ctx context.Context, id string, update bson.M) error {
	oid, err := mongodb.ObjectID(id)
	if err != nil {
		return ErrInvalidID
	}

	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	res, err := r.collection.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) List(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.FindAll[model.User](ctx, r.collection, buildFilter(filter),
		mongodb.Page(limit, offset, bson.D{{Key: "created_at", Value: -1}}))
}

func (r *mongoUserRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (r *mongoUserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return mongodb.CountBy(ctx, r.collection, "role")
}

func buildFilter(f model.UserFilter) bson.M {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.IsActive != nil {
		filter["is_active"] = *f.IsActive
	}
	return filter
}
