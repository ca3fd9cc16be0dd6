package repository

import (
	"context"
	"fmt"
	"time"

	"tutorhub/pkg/config"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	LockCollectionName = "booking_locks"
)

// BookingLockRepository provides advisory locks on a tutor's calendar.
// Acquire returns an owner token; Release only removes the lock while that
// owner still holds it.
type BookingLockRepository interface {
	Acquire(ctx context.Context, id string, ttl time.Duration) (string, error)
	Release(ctx context.Context, id, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Acquire inserts the lock document. A duplicate key means someone else holds it.
// Expired locks that the TTL monitor has not reaped yet are taken over.
func (r *mongoBookingLockRepository) Acquire(ctx context.Context, id string, ttl time.Duration) (string, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := mongodb.Now()
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$lte": now}}); err != nil {
		return "", fmt.Errorf("failed to clear expired lock: %w", err)
	}

	owner := uuid.NewString()
	_, err := r.collection.InsertOne(ctx, &model.BookingLock{
		ID:        id,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		if mongodb.IsDuplicateKey(err) {
			return "", ErrLocked
		}
		return "", fmt.Errorf("failed to acquire lock: %w", err)
	}
	return owner, nil
}

func (r *mongoBookingLockRepository) Release(ctx context.Context, id, owner string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner": owner})
	return err
}
