package mongo

import (
	"context"
	"fmt"

	"tutorhub/internal/migrations/mongo/validators"
	"tutorhub/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UsersIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	TutorProfilesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "rating_average", Value: -1}}},
		{Keys: bson.D{{Key: "subjects", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "tutor_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "start_time", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	// Locks expire on their own when a holder dies before releasing.
	BookingLocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}

	CurrentTutorsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "student_id", Value: 1},
				{Key: "tutor_id", Value: 1},
				{Key: "subject", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "updated_at", Value: -1}}},
	}

	AttendanceIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "tutor_id", Value: 1}}},
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "session_date", Value: -1}}},
	}

	SessionFeedbackIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "session_date", Value: -1}}},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "session_date", Value: -1}}},
	}

	ReviewsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	StudyMaterialsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "shared_with", Value: 1}}},
		{Keys: bson.D{{Key: "is_public", Value: 1}, {Key: "tutor_id", Value: 1}}},
	}

	FavoritesIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "tutor_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ProgressReportsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "period_end", Value: -1}}},
		{Keys: bson.D{{Key: "tutor_id", Value: 1}, {Key: "period_end", Value: -1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

// Collections maps every collection the API writes to its schema and indexes.
// A nil validator leaves the collection schemaless.
var Collections = map[string]CollectionDef{
	"users":            {Indexes: UsersIndexes, Validator: validators.UserValidator},
	"tutor_profiles":   {Indexes: TutorProfilesIndexes, Validator: validators.TutorProfileValidator},
	"bookings":         {Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	"booking_locks":    {Indexes: BookingLocksIndexes},
	"current_tutors":   {Indexes: CurrentTutorsIndexes, Validator: validators.CurrentTutorValidator},
	"attendance":       {Indexes: AttendanceIndexes, Validator: validators.AttendanceValidator},
	"session_feedback": {Indexes: SessionFeedbackIndexes, Validator: validators.SessionFeedbackValidator},
	"reviews":          {Indexes: ReviewsIndexes, Validator: validators.ReviewValidator},
	"study_materials":  {Indexes: StudyMaterialsIndexes, Validator: validators.StudyMaterialValidator},
	"favorites":        {Indexes: FavoritesIndexes, Validator: validators.FavoriteValidator},
	"progress_reports": {Indexes: ProgressReportsIndexes, Validator: validators.ProgressReportValidator},
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name(), "collections", len(Collections))

	for name, def := range Collections {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
