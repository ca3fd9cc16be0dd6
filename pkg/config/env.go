package config

const (
	EnvEnvironment = "APP_ENV"

	EnvMongoURI                 = "MONGO_URI"
	EnvMongoDatabaseName        = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout         = "MONGO_CONN_TIMEOUT"
	EnvMongoTransactionsEnabled = "MONGO_TRANSACTIONS_ENABLED"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvJWTSecret       = "JWT_SECRET"
	EnvJWTTTL          = "JWT_TTL"
	EnvAccountCacheTTL = "ACCOUNT_CACHE_TTL"

	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvSealerKey        = "SEALER_KEY"
	EnvPasswordResetTTL = "PASSWORD_RESET_TTL"
	EnvFrontendURL      = "FRONTEND_URL"

	EnvDefaultPhoneRegion = "DEFAULT_PHONE_REGION"

	EnvEventsEnabled = "EVENTS_ENABLED"

	EnvRollbarToken = "ROLLBAR_TOKEN"

	EnvMailFrom       = "MAIL_FROM"
	EnvMailFromName   = "MAIL_FROM_NAME"
	EnvSMTPHost       = "SMTP_HOST"
	EnvSMTPPort       = "SMTP_PORT"
	EnvSMTPUsername   = "SMTP_USERNAME"
	EnvSMTPPassword   = "SMTP_PASSWORD"
	EnvSendGridAPIKey = "SENDGRID_API_KEY"
)
