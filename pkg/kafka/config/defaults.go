package kafkaconfig

import "time"

const (
	DefaultKafkaBrokers  = "localhost:9092"
	DefaultKafkaClientID = "tutorhub"
	DefaultKafkaTopic    = "tutoring.events"
	DefaultKafkaDLQTopic = "tutoring.events.dlq"
	DefaultKafkaGroupID  = "tutorhub-notifier"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all replicas
	DefaultProducerCompression  = "snappy"

	DefaultConsumerStartOffset       = -2 // oldest
	DefaultConsumerMinBytes          = 1
	DefaultConsumerMaxBytes          = 10 * 1024 * 1024
	DefaultConsumerMaxWait           = 500 * time.Millisecond
	DefaultConsumerCommitInterval    = 0 // synchronous commits
	DefaultConsumerHeartbeatInterval = 3 * time.Second
	DefaultConsumerSessionTimeout    = 30 * time.Second
	DefaultConsumerMaxRetries        = 3
	DefaultConsumerRetryBackoff      = 500 * time.Millisecond
)
