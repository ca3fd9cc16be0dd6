package kafkaconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, "tutoring.events", cfg.Topic)
	assert.Equal(t, "tutorhub-notifier", cfg.GroupID)
	assert.Empty(t, cfg.DLQTopic)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv(EnvKafkaDLQTopic, DefaultKafkaDLQTopic)
	t.Setenv(EnvKafkaProducerCompression, "zstd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	assert.Equal(t, DefaultKafkaDLQTopic, cfg.DLQTopic)
	assert.Equal(t, "zstd", cfg.ProducerCompression)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaProducerRequireAcks, "2")
	t.Setenv(EnvKafkaDLQTopic, DefaultKafkaTopic)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProducerCompression")
	assert.Contains(t, err.Error(), "ProducerRequireAcks")
	assert.Contains(t, err.Error(), "DLQTopic must differ")
}
