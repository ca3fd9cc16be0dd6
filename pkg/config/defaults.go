package config

import "time"

const (
	DefaultEnvironment = "development"

	DefaultMongoURI                 = "mongodb://localhost:27017"
	DefaultMongoDatabaseName        = "tutorhub"
	DefaultMongoConnTimeout         = 10 * time.Second
	DefaultMongoTransactionsEnabled = true

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultJWTTTL          = 24 * time.Hour
	DefaultAccountCacheTTL = 30 * time.Second

	DefaultCORSAllowedOrigins = "http://localhost:3000"

	DefaultPasswordResetTTL = 1 * time.Hour
	DefaultFrontendURL      = "http://localhost:3000"

	DefaultPhoneRegion = "US"

	DefaultEventsEnabled = false

	DefaultMailFrom     = "no-reply@tutorhub.local"
	DefaultMailFromName = "TutorHub"
	DefaultSMTPPort     = 587

	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100

	MinJWTSecretLength = 32
	SealerKeyLength    = 32
)
