package main

import (
	"context"
	"time"

	mongoMigration "tutorhub/internal/migrations/mongo"
	"tutorhub/pkg/config"
)

const JobName = "mongo-migration"

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Mongo migration job")
	err := migrateMongo(cfg)
	cfg.Client.GracefulShutdown()
	if err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
	cfg.Log.Close()
}

func migrateMongo(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return mongoMigration.RunMigration(ctx, db, cfg.Log)
}
