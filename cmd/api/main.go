package main

import (
	adminhandler "tutorhub/internal/admin/handler"
	adminservice "tutorhub/internal/admin/service"
	attendancehandler "tutorhub/internal/attendance/handler"
	attendancerepo "tutorhub/internal/attendance/repository"
	attendanceservice "tutorhub/internal/attendance/service"
	bookinghandler "tutorhub/internal/bookings/handler"
	bookingrepo "tutorhub/internal/bookings/repository"
	bookingservice "tutorhub/internal/bookings/service"
	currenttutorhandler "tutorhub/internal/currenttutors/handler"
	currenttutorrepo "tutorhub/internal/currenttutors/repository"
	currenttutorservice "tutorhub/internal/currenttutors/service"
	"tutorhub/internal/events"
	favoritehandler "tutorhub/internal/favorites/handler"
	favoriterepo "tutorhub/internal/favorites/repository"
	favoriteservice "tutorhub/internal/favorites/service"
	progresshandler "tutorhub/internal/progressreports/handler"
	progressrepo "tutorhub/internal/progressreports/repository"
	progressservice "tutorhub/internal/progressreports/service"
	reviewhandler "tutorhub/internal/reviews/handler"
	reviewrepo "tutorhub/internal/reviews/repository"
	reviewservice "tutorhub/internal/reviews/service"
	feedbackhandler "tutorhub/internal/sessionfeedback/handler"
	feedbackrepo "tutorhub/internal/sessionfeedback/repository"
	feedbackservice "tutorhub/internal/sessionfeedback/service"
	materialhandler "tutorhub/internal/studymaterials/handler"
	materialrepo "tutorhub/internal/studymaterials/repository"
	materialservice "tutorhub/internal/studymaterials/service"
	tutorhandler "tutorhub/internal/tutors/handler"
	tutorrepo "tutorhub/internal/tutors/repository"
	tutorservice "tutorhub/internal/tutors/service"
	userhandler "tutorhub/internal/users/handler"
	userrepo "tutorhub/internal/users/repository"
	userservice "tutorhub/internal/users/service"
	"tutorhub/pkg/app"
	"tutorhub/pkg/auth"
	"tutorhub/pkg/config"
	"tutorhub/pkg/contracts"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/kafka"
	kafkaconfig "tutorhub/pkg/kafka/config"
	kafkamiddleware "tutorhub/pkg/kafka/middleware"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/sealer"
	"tutorhub/pkg/validation"
)

const ServiceName = "tutorhub-api"

type repositories struct {
	users         *userrepo.ActiveCache
	tutors        tutorrepo.TutorProfileRepository
	bookings      bookingrepo.BookingRepository
	locks         bookingrepo.BookingLockRepository
	currentTutors currenttutorrepo.CurrentTutorRepository
	attendance    attendancerepo.AttendanceRepository
	feedback      feedbackrepo.SessionFeedbackRepository
	reviews       reviewrepo.ReviewRepository
	materials     materialrepo.StudyMaterialRepository
	favorites     favoriterepo.FavoriteRepository
	progress      progressrepo.ProgressReportRepository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting TutorHub API")

	serverApp := app.NewApplication()
	publisher := initPublisher(cfg, serverApp)
	handlers := initHandlers(cfg, initRepositories(cfg), publisher)

	serverApp.SetApp(cfg, handlers...)
	serverApp.OnShutdown(cfg.GracefulShutdown)
	serverApp.Run()
}

func initRepositories(cfg *config.Config) repositories {
	repos := repositories{
		users:         userrepo.NewActiveCache(userrepo.NewMongoUserRepository(cfg), cfg.AccountCacheTTL),
		tutors:        tutorrepo.NewMongoTutorProfileRepository(cfg),
		bookings:      bookingrepo.NewMongoBookingRepository(cfg),
		locks:         bookingrepo.NewMongoBookingLockRepository(cfg),
		currentTutors: currenttutorrepo.NewMongoCurrentTutorRepository(cfg),
		attendance:    attendancerepo.NewMongoAttendanceRepository(cfg),
		feedback:      feedbackrepo.NewMongoSessionFeedbackRepository(cfg),
		reviews:       reviewrepo.NewMongoReviewRepository(cfg),
		materials:     materialrepo.NewMongoStudyMaterialRepository(cfg),
		favorites:     favoriterepo.NewMongoFavoriteRepository(cfg),
		progress:      progressrepo.NewMongoProgressReportRepository(cfg),
	}
	cfg.Log.Info("Repositories initialized", "database", cfg.MongoDatabaseName)
	return repos
}

// initPublisher returns a Kafka backed publisher when events are enabled.
// Without Kafka the API still works and events are only logged.
func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.NewNopPublisher(cfg.Log)
	}

	kcfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	producer, err := kafka.NewProducer(kcfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafkamiddleware.NewMetrics()
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(metrics.ProducerMiddleware())

	serverApp.OnShutdown(func() {
		cfg.Log.Info("Kafka producer stats", "metrics", metrics.Snapshot())
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Domain events enabled", "topic", kcfg.Topic, "brokers", kcfg.Brokers)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.Log)
}

func initHandlers(cfg *config.Config, repos repositories, publisher events.Publisher) []contracts.Handler {
	log := cfg.Log
	validator := validation.New(log)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authenticator := middleware.NewAuthenticator(tokens, repos.users, log)
	resetSealer, err := sealer.New(cfg.SealerKey)
	if err != nil {
		log.Fatal("Failed to create token sealer", "error", err)
	}

	txManager := mongodb.NewDirectTransactionManager()
	if cfg.MongoTransactionsEnabled {
		txManager = mongodb.NewTransactionManager(cfg.Client.Mongo)
	} else {
		log.Warn("MongoDB transactions disabled, multi-document writes are not atomic")
	}

	users := userservice.NewUserService(repos.users, tokens, resetSealer, validator, publisher, userservice.Options{
		PasswordResetTTL:   cfg.PasswordResetTTL,
		FrontendURL:        cfg.FrontendURL,
		DefaultPhoneRegion: cfg.DefaultPhoneRegion,
	}, log)
	tutors := tutorservice.NewTutorService(repos.tutors, repos.users, repos.reviews, validator, log)
	currentTutors := currenttutorservice.NewCurrentTutorService(repos.currentTutors, repos.users, validator, log)
	bookings := bookingservice.NewBookingService(
		repos.bookings,
		repos.locks,
		repos.tutors,
		repos.currentTutors,
		repos.users,
		txManager,
		publisher,
		validator,
		log,
	)

	// Attendance marked directly and attendance set through session feedback
	// share one recorder so both move the relationship counters the same way.
	recorder := attendanceservice.NewRecorder(repos.attendance, repos.currentTutors)
	attendance := attendanceservice.NewAttendanceService(repos.attendance, repos.bookings, recorder, txManager, validator, log)
	feedback := feedbackservice.NewSessionFeedbackService(repos.feedback, repos.bookings, recorder, txManager, validator, log)

	reviews := reviewservice.NewReviewService(repos.reviews, repos.bookings, repos.tutors, repos.users, txManager, publisher, validator, log)
	materials := materialservice.NewStudyMaterialService(repos.materials, repos.currentTutors, validator, log)
	favorites := favoriteservice.NewFavoriteService(repos.favorites, repos.users, validator, log)
	progress := progressservice.NewProgressReportService(repos.progress, repos.currentTutors, repos.users, validator, log)
	admin := adminservice.NewAdminService(repos.users, repos.tutors, repos.bookings, repos.reviews, publisher, validator, log)

	log.Info("Services initialized", "transactions", cfg.MongoTransactionsEnabled, "events", cfg.EventsEnabled)

	return []contracts.Handler{
		userhandler.NewUserHandler(users, authenticator, log),
		tutorhandler.NewTutorHandler(tutors, authenticator, log),
		currenttutorhandler.NewCurrentTutorHandler(currentTutors, authenticator, log),
		bookinghandler.NewBookingHandler(bookings, authenticator, log),
		attendancehandler.NewAttendanceHandler(attendance, authenticator, log),
		feedbackhandler.NewSessionFeedbackHandler(feedback, authenticator, log),
		reviewhandler.NewReviewHandler(reviews, authenticator, log),
		materialhandler.NewStudyMaterialHandler(materials, authenticator, log),
		favoritehandler.NewFavoriteHandler(favorites, authenticator, log),
		progresshandler.NewProgressReportHandler(progress, authenticator, log),
		adminhandler.NewAdminHandler(admin, authenticator, log),
	}
}
