package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"tutorhub/internal/notifier"
	"tutorhub/pkg/config"
	"tutorhub/pkg/kafka"
	kafkaconfig "tutorhub/pkg/kafka/config"
	kafkamiddleware "tutorhub/pkg/kafka/middleware"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/mailer"

	"github.com/joho/godotenv"
)

const ServiceName = "tutorhub-notifier"

// The notifier never touches MongoDB or issues tokens, so it reads the shared
// environment without the API's validation.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(logger.Config{
		Level:        os.Getenv(config.EnvLogLevel),
		Format:       logger.JSON,
		Service:      ServiceName,
		RollbarToken: cfg.RollbarToken,
		Environment:  cfg.Environment,
	})
	defer log.Close()

	kcfg, err := kafkaconfig.Load()
	if err != nil {
		log.Fatal("Invalid Kafka configuration", "error", err)
	}

	m := mailer.New(mailer.Config{
		From:           cfg.MailFrom,
		FromName:       cfg.MailFromName,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUsername:   cfg.SMTPUsername,
		SMTPPassword:   cfg.SMTPPassword,
		SendGridAPIKey: cfg.SendGridAPIKey,
	}, log)

	consumer, err := kafka.NewConsumer(kcfg, notifier.New(m, log).Handle, log)
	if err != nil {
		log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	metrics := kafkamiddleware.NewMetrics()
	consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(log))
	consumer.Use(metrics.ConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Notifier consuming", "topic", kcfg.Topic, "group_id", kcfg.GroupID, "brokers", kcfg.Brokers)
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped", "error", err)
	}

	if err := consumer.Close(); err != nil {
		log.Error("Failed to close Kafka consumer", "error", err)
	}
	log.Info("Notifier stopped", "metrics", metrics.Snapshot())
}
