package main

import (
	"os"

	"tutorhub/internal/events"
	userrepo "tutorhub/internal/users/repository"
	userservice "tutorhub/internal/users/service"
	"tutorhub/pkg/auth"
	"tutorhub/pkg/config"
	"tutorhub/pkg/sealer"
	"tutorhub/pkg/validation"
)

const ServiceName = "tutorhub-admin"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	resetSealer, err := sealer.New(cfg.SealerKey)
	if err != nil {
		cfg.Log.Fatal("Failed to create token sealer", "error", err)
	}
	users := userservice.NewUserService(
		userrepo.NewMongoUserRepository(cfg),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		resetSealer,
		validation.New(cfg.Log),
		events.NewNopPublisher(cfg.Log),
		userservice.Options{
			PasswordResetTTL:   cfg.PasswordResetTTL,
			FrontendURL:        cfg.FrontendURL,
			DefaultPhoneRegion: cfg.DefaultPhoneRegion,
		},
		cfg.Log,
	)

	app := newApp(users, os.Stdout)
	runErr := app.Run(os.Args)
	cfg.GracefulShutdown()
	if runErr != nil {
		cfg.Log.Error("Command failed", "error", runErr)
		os.Exit(1)
	}
}
