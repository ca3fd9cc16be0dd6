package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tutorhub/pkg/client"
	"tutorhub/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string

	MongoURI                 string
	MongoDatabaseName        string
	MongoConnTimeout         time.Duration
	MongoTransactionsEnabled bool

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	// AccountCacheTTL bounds how long a deactivated account can keep using
	// a token it already holds.
	AccountCacheTTL time.Duration

	CORSAllowedOrigins []string

	// SealerKey is the raw 32 byte AES key used for password reset tokens.
	SealerKey        []byte
	PasswordResetTTL time.Duration
	FrontendURL      string

	DefaultPhoneRegion string

	EventsEnabled bool

	RollbarToken string

	MailFrom       string
	MailFromName   string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SendGridAPIKey string

	Log    *logger.Logger
	Client *client.Client

	sealerKeyErr error
}

// Load reads .env (when present) and the process environment, validates the
// result and exits on invalid configuration.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:        getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:       logger.JSON,
		AddSource:    true,
		Service:      serviceName,
		RollbarToken: cfg.RollbarToken,
		Environment:  cfg.Environment,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a Config from the environment without validating it.
func FromEnv() *Config {
	cfg := &Config{
		Environment: getEnvStr(EnvEnvironment, DefaultEnvironment),

		MongoURI:                 getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName:        getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:         getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),
		MongoTransactionsEnabled: getEnvBool(EnvMongoTransactionsEnabled, DefaultMongoTransactionsEnabled),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),
		JWTTTL:    getEnvDuration(EnvJWTTTL, DefaultJWTTTL),

		AccountCacheTTL: getEnvDuration(EnvAccountCacheTTL, DefaultAccountCacheTTL),

		CORSAllowedOrigins: getEnvList(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),

		PasswordResetTTL: getEnvDuration(EnvPasswordResetTTL, DefaultPasswordResetTTL),
		FrontendURL:      strings.TrimRight(getEnvStr(EnvFrontendURL, DefaultFrontendURL), "/"),

		DefaultPhoneRegion: strings.ToUpper(getEnvStr(EnvDefaultPhoneRegion, DefaultPhoneRegion)),

		EventsEnabled: getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),

		RollbarToken: getEnvStr(EnvRollbarToken, ""),

		MailFrom:       getEnvStr(EnvMailFrom, DefaultMailFrom),
		MailFromName:   getEnvStr(EnvMailFromName, DefaultMailFromName),
		SMTPHost:       getEnvStr(EnvSMTPHost, ""),
		SMTPPort:       getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername:   getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword:   getEnvStr(EnvSMTPPassword, ""),
		SendGridAPIKey: getEnvStr(EnvSendGridAPIKey, ""),
	}
	cfg.SealerKey, cfg.sealerKeyErr = resolveSealerKey(getEnvStr(EnvSealerKey, ""), cfg.JWTSecret)
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if len(cfg.JWTSecret) < MinJWTSecretLength {
		errors = append(errors, fmt.Sprintf("JWTSecret must be at least %d characters, got: %d", MinJWTSecretLength, len(cfg.JWTSecret)))
	}
	if cfg.JWTTTL <= 0 {
		errors = append(errors, fmt.Sprintf("JWTTTL must be positive, got: %s", cfg.JWTTTL))
	}
	if cfg.AccountCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("AccountCacheTTL cannot be negative, got: %s", cfg.AccountCacheTTL))
	}
	if cfg.sealerKeyErr != nil {
		errors = append(errors, cfg.sealerKeyErr.Error())
	}
	if cfg.PasswordResetTTL <= 0 {
		errors = append(errors, fmt.Sprintf("PasswordResetTTL must be positive, got: %s", cfg.PasswordResetTTL))
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		errors = append(errors, "CORSAllowedOrigins must list at least one origin")
	}
	if len(cfg.DefaultPhoneRegion) != 2 {
		errors = append(errors, fmt.Sprintf("DefaultPhoneRegion must be an ISO 3166-1 alpha-2 code, got: %s", cfg.DefaultPhoneRegion))
	}
	if cfg.SMTPHost != "" && (cfg.SMTPPort < 1 || cfg.SMTPPort > 65535) {
		errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"environment", cfg.Environment,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"mongo_transactions_enabled", cfg.MongoTransactionsEnabled,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"jwt_ttl", cfg.JWTTTL,
		"account_cache_ttl", cfg.AccountCacheTTL,
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"password_reset_ttl", cfg.PasswordResetTTL,
		"default_phone_region", cfg.DefaultPhoneRegion,
		"events_enabled", cfg.EventsEnabled,
		"rollbar_enabled", cfg.RollbarToken != "",
		"smtp_enabled", cfg.SMTPHost != "",
		"sendgrid_enabled", cfg.SendGridAPIKey != "",
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
	cfg.Log.Close()
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

// resolveSealerKey decodes a base64 key, or derives one from the JWT secret
// when no dedicated key is configured.
func resolveSealerKey(encoded, jwtSecret string) ([]byte, error) {
	if encoded == "" {
		sum := sha256.Sum256([]byte("password-reset:" + jwtSecret))
		return sum[:], nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("SealerKey must be base64 encoded: %v", err)
	}
	if len(key) != SealerKeyLength {
		return nil, fmt.Errorf("SealerKey must decode to %d bytes, got: %d", SealerKeyLength, len(key))
	}
	return key, nil
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPaginationLimit
	} else if limit > MaxPaginationLimit {
		limit = MaxPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
