package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv(EnvJWTSecret, testSecret)

	cfg := FromEnv()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultMongoDatabaseName, cfg.MongoDatabaseName)
	assert.Equal(t, DefaultJWTTTL, cfg.JWTTTL)
	assert.True(t, cfg.MongoTransactionsEnabled)
	assert.Equal(t, []string{DefaultCORSAllowedOrigins}, cfg.CORSAllowedOrigins)
	assert.Len(t, cfg.SealerKey, SealerKeyLength)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", SealerKeyLength)))
	t.Setenv(EnvJWTSecret, testSecret)
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvJWTTTL, "2h")
	t.Setenv(EnvCORSAllowedOrigins, "https://a.example, https://b.example ,")
	t.Setenv(EnvSealerKey, key)
	t.Setenv(EnvMongoTransactionsEnabled, "false")
	t.Setenv(EnvDefaultPhoneRegion, "il")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, []byte(strings.Repeat("k", SealerKeyLength)), cfg.SealerKey)
	assert.False(t, cfg.MongoTransactionsEnabled)
	assert.Equal(t, "IL", cfg.DefaultPhoneRegion)
	require.NoError(t, cfg.Validate())
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvSealerKey, "not base64!")
	t.Setenv(EnvPort, "70000")
	t.Setenv(EnvMongoURI, "postgres://localhost")

	cfg := FromEnv()
	err := cfg.Validate()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Port must be between 1 and 65535")
	assert.Contains(t, msg, "MongoURI must start with")
	assert.Contains(t, msg, "JWTSecret must be at least")
	assert.Contains(t, msg, "SealerKey must be base64 encoded")
	assert.Contains(t, msg, "  1. ")
}

func TestRedactMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://***:***@db:27017", redactMongoURI("mongodb://admin:secret@db:27017"))
	assert.Equal(t, "mongodb://localhost:27017", redactMongoURI("mongodb://localhost:27017"))
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(0))
	assert.Equal(t, DefaultPaginationLimit, NormalizePaginationLimit(-3))
	assert.Equal(t, 25, NormalizePaginationLimit(25))
	assert.Equal(t, MaxPaginationLimit, NormalizePaginationLimit(1000))
	assert.Equal(t, int64(0), NormalizeOffset(-5))
	assert.Equal(t, int64(40), NormalizeOffset(40))
}
