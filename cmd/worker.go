package cmd

import (
	"context"
	"fmt"

	"field-booking/internal/notify"
	"field-booking/pkg/mailer"
	"field-booking/pkg/mq"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// NotificationWorker consumes notification events from RabbitMQ and mails
// them until ctx is cancelled
func NotificationWorker(ctx context.Context, config *utils.Config, m mailer.Mailer, logger *zap.Logger) error {
	if config.Rabbit.URL == "" {
		return fmt.Errorf("RABBIT_URL is required for the worker")
	}

	consumer, err := mq.NewConsumer(config.Rabbit.URL, config.Rabbit.Exchange, config.Rabbit.Queue, notify.RoutingKeys())
	if err != nil {
		return err
	}
	defer consumer.Close()

	logger.Info("Notification worker started", zap.String("queue", config.Rabbit.Queue))
	return notify.NewWorker(consumer, m, logger).Run(ctx)
}
